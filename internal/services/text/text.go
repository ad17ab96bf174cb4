// Package text кэширует каталог текстов сообщений.
//
// Каталог целиком заменяется при обновлении: читатели видят либо старый,
// либо новый снимок, но никогда не частичный.
package text

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/magabrotheeeer/kvira-space/internal/lib/sl"
	"github.com/magabrotheeeer/kvira-space/internal/models"
)

// FallbackText возвращается для отсутствующего сообщения.
const FallbackText = "Message not found. Please contact the administrator with a bugreport."

// MirrorKey ключ копии каталога в хранилище ключ-значение.
const MirrorKey = "texts"

// Source внешний источник текстов.
type Source interface {
	GetAllMessages(ctx context.Context) (models.TextCatalog, error)
}

// Mirror хранилище, куда сохраняется последний загруженный каталог.
type Mirror interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Metrics учитывает результаты обновлений.
type Metrics interface {
	TextRefreshed(ok bool)
}

// Cache кэш текстов сообщений.
type Cache struct {
	source   Source
	mirror   Mirror
	log      *slog.Logger
	metrics  Metrics
	snapshot atomic.Pointer[models.TextCatalog]
}

// NewCache создает пустой кэш. Перед использованием вызовите Bootstrap.
func NewCache(source Source, mirror Mirror, log *slog.Logger, metrics Metrics) *Cache {
	c := &Cache{
		source:  source,
		mirror:  mirror,
		log:     log,
		metrics: metrics,
	}
	empty := models.TextCatalog{}
	c.snapshot.Store(&empty)
	return c
}

// Bootstrap загружает каталог из источника, а если он недоступен — из копии в хранилище.
func (c *Cache) Bootstrap(ctx context.Context) error {
	const op = "text.Bootstrap"
	err := c.Refresh(ctx)
	if err == nil {
		return nil
	}
	c.log.Warn("text source unavailable, loading mirrored catalog", sl.Op(op), sl.Err(err))

	var catalog models.TextCatalog
	found, mirrorErr := c.mirror.Get(ctx, MirrorKey, &catalog)
	if mirrorErr != nil {
		return fmt.Errorf("%s: %w", op, mirrorErr)
	}
	if !found {
		return fmt.Errorf("%s: no mirrored catalog: %w", op, err)
	}
	c.snapshot.Store(&catalog)
	return nil
}

// Refresh полностью заменяет каталог содержимым источника.
func (c *Cache) Refresh(ctx context.Context) error {
	const op = "text.Refresh"
	catalog, err := c.source.GetAllMessages(ctx)
	if err != nil {
		c.metrics.TextRefreshed(false)
		return fmt.Errorf("%s: %w", op, err)
	}
	c.snapshot.Store(&catalog)
	c.metrics.TextRefreshed(true)
	c.log.Info("text catalog refreshed", sl.Op(op), slog.Int("messages", len(catalog)))

	if err := c.mirror.Set(ctx, MirrorKey, catalog, 0); err != nil {
		c.log.Warn("failed to mirror text catalog", sl.Op(op), sl.Err(err))
	}
	return nil
}

// Run обновляет каталог с интервалом interval до отмены ctx.
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	const op = "text.Run"
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.log.Error("failed to refresh text catalog", sl.Op(op), sl.Err(err))
			}
		}
	}
}

// Get возвращает текст сообщения id на языке lang или FallbackText.
func (c *Cache) Get(id string, lang models.Lang) string {
	catalog := *c.snapshot.Load()
	if msg, ok := catalog[id][lang]; ok {
		return msg
	}
	c.log.Error("message not found in text catalog", slog.String("message_id", id), slog.String("lang", string(lang)))
	return FallbackText
}

// Format подставляет args по порядку вместо плейсхолдеров "{}".
// Лишние плейсхолдеры остаются как есть.
func Format(template string, args ...any) string {
	var b strings.Builder
	rest := template
	for _, arg := range args {
		i := strings.Index(rest, "{}")
		if i < 0 {
			break
		}
		b.WriteString(rest[:i])
		fmt.Fprint(&b, arg)
		rest = rest[i+2:]
	}
	b.WriteString(rest)
	return b.String()
}
