// Package cache реализует хранилище ключ-значение поверх Redis:
// JSON-значения по ключу и небольшие множества (пользователи, чаты администраторов).
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/kvira-space/internal/config"
)

// Cache обёртка над клиентом Redis.
type Cache struct {
	Db *redis.Client
}

// InitServer подключается к Redis и проверяет соединение.
func InitServer(ctx context.Context, cfg config.RedisConnection) (*Cache, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{Db: db}, nil
}

// Get читает JSON-значение по ключу в result. found=false, если ключа нет.
func (c *Cache) Get(ctx context.Context, key string, result any) (bool, error) {
	const op = "cache.Get"
	val, err := c.Db.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err = json.Unmarshal(val, result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// Set сохраняет value в JSON. expiration == 0 означает хранение без срока.
func (c *Cache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	const op = "cache.Set"
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.Db.Set(ctx, key, jsonData, expiration).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AddToSet добавляет member в множество key.
func (c *Cache) AddToSet(ctx context.Context, key, member string) error {
	const op = "cache.AddToSet"
	if err := c.Db.SAdd(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AddNewToSet добавляет member в множество key и сообщает, не было ли его там раньше.
func (c *Cache) AddNewToSet(ctx context.Context, key, member string) (bool, error) {
	const op = "cache.AddNewToSet"
	added, err := c.Db.SAdd(ctx, key, member).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return added > 0, nil
}

// MembersOf возвращает элементы множества key. Для отсутствующего ключа — пустой список.
func (c *Cache) MembersOf(ctx context.Context, key string) ([]string, error) {
	const op = "cache.MembersOf"
	members, err := c.Db.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return members, nil
}

// Ping проверяет доступность Redis.
func (c *Cache) Ping(ctx context.Context) error {
	return c.Db.Ping(ctx).Err()
}

// Close закрывает клиент.
func (c *Cache) Close() error {
	return c.Db.Close()
}
