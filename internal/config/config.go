// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string   `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string   `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string   `yaml:"migrations_path" env-default:"./migrations"`
	AdminChats              []string `yaml:"admin_chats" env:"ADMIN_CHATS" env-separator:","`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	Texts                   `yaml:"texts"`
	RateLimit               `yaml:"rate_limit"`
	Location                `yaml:"location"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для проверки токенов администраторов
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"720h"`
}

// RabbitMQ настройки шины уведомлений администраторов
type RabbitMQ struct {
	RabbitMQURL         string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries  int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay  time.Duration `yaml:"retry_delay" env-default:"2s"`
	PublishMaxAttempts  int           `yaml:"publish_max_attempts" env-default:"3"`
	PublishInitialDelay time.Duration `yaml:"publish_initial_delay" env-default:"500ms"`
}

// Texts настройки кэша текстов сообщений
type Texts struct {
	RefreshInterval time.Duration `yaml:"refresh_interval" env-default:"10m"`
}

// RateLimit ограничение частоты запросов к API
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"5"`
	Burst int     `yaml:"burst" env-default:"10"`
}

// Location часовой пояс площадки, по нему определяется текущий день
type Location struct {
	Timezone string `yaml:"timezone" env:"TZ_LOCATION" env-default:"Asia/Tbilisi"`
}

// MustLoad функция для загрузки конфига, путь берётся из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

// TimeLocation возвращает часовой пояс площадки, при ошибке — UTC.
func (c *Config) TimeLocation() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Texts:\n"+
			"  RefreshInterval: %s\n"+
			"Location: %s\n",
		c.Env,
		c.AddressRedis,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.RefreshInterval,
		c.Timezone,
	)
}
