package kvira

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/kvira-space/internal/config"
	"github.com/magabrotheeeer/kvira-space/internal/http/handlers/kvira/health"
	"github.com/magabrotheeeer/kvira-space/internal/lib/jwt"
	"github.com/magabrotheeeer/kvira-space/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/kvira-space/internal/lib/sl"
	"github.com/magabrotheeeer/kvira-space/internal/metrics"
	"github.com/magabrotheeeer/kvira-space/internal/migrations"
	checkinservice "github.com/magabrotheeeer/kvira-space/internal/services/checkin"
	"github.com/magabrotheeeer/kvira-space/internal/services/notify"
	"github.com/magabrotheeeer/kvira-space/internal/services/punch"
	"github.com/magabrotheeeer/kvira-space/internal/services/text"
	"github.com/magabrotheeeer/kvira-space/internal/services/users"
	"github.com/magabrotheeeer/kvira-space/internal/storage/cache"
	"github.com/magabrotheeeer/kvira-space/internal/storage/ledger"
)

// App HTTP-приложение сервиса абонементов.
type App struct {
	server          *http.Server
	logger          *slog.Logger
	db              *ledger.Storage
	cache           *cache.Cache
	texts           *text.Cache
	refreshInterval time.Duration
	conn            *amqp.Connection
	ch              *amqp.Channel
}

func waitForDB(db *ledger.Storage) error {
	for attempt := 0; attempt < 10; attempt++ {
		err := ledger.CheckDatabaseReady(db)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New подключает хранилища, загружает тексты и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.kvira.New"

	db, err := ledger.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		closeDB(db, logger)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = waitForDB(db); err != nil {
		closeDB(db, logger)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		closeDB(db, logger)
		return nil, fmt.Errorf("%s: cache not initialized: %w", op, err)
	}

	conn, ch := connectBroker(cfg, logger)
	var publisher rabbitmq.Channel
	if ch != nil {
		publisher = ch
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	texts := text.NewCache(db, cacheRedis, logger, m)
	if err = texts.Bootstrap(ctx); err != nil {
		logger.Warn("text catalog is empty, fallback messages will be used", sl.Err(err))
	}

	notifier := notify.NewNotifier(cacheRedis, publisher, rabbitmq.RetryPolicy{
		MaxAttempts:  cfg.PublishMaxAttempts,
		InitialDelay: cfg.PublishInitialDelay,
	}, logger)
	for _, chatID := range cfg.AdminChats {
		if err := notifier.RegisterAdminChat(ctx, chatID); err != nil {
			logger.Error("failed to register admin chat", slog.String("chat_id", chatID), sl.Err(err))
		}
	}

	directory := users.NewDirectory(cacheRedis, logger)
	punchLedger := punch.NewLedger(db, logger, m.LockWait)
	checkinService := checkinservice.New(logger, directory, db, punchLedger, texts, notifier, m, cfg.TimeLocation())

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Services{
		CheckIn:  checkinService,
		Users:    directory,
		Ledger:   punchLedger,
		Texts:    texts,
		Notifier: notifier,
		Tokens:   jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL),
		Limiter:  rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		Health: map[string]health.Pinger{
			"postgres": db,
			"redis":    cacheRedis,
		},
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:          srv,
		logger:          logger,
		db:              db,
		cache:           cacheRedis,
		texts:           texts,
		refreshInterval: cfg.RefreshInterval,
		conn:            conn,
		ch:              ch,
	}, nil
}

// connectBroker подключается к RabbitMQ, если он настроен.
// Без брокера уведомления администраторам только пишутся в лог.
func connectBroker(cfg *config.Config, logger *slog.Logger) (*amqp.Connection, *amqp.Channel) {
	if cfg.RabbitMQURL == "" {
		logger.Warn("rabbitmq url is not set, admin notifications go to log only")
		return nil, nil
	}
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		logger.Error("failed to connect RabbitMQ", sl.Err(err))
		return nil, nil
	}
	ch, err := rabbitmq.SetupChannel(conn)
	if err != nil {
		logger.Error("failed to setup RabbitMQ channel", sl.Err(err))
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
		return nil, nil
	}
	return conn, ch
}

func closeDB(db *ledger.Storage, logger *slog.Logger) {
	if err := db.Close(); err != nil {
		logger.Error("failed to close database", sl.Err(err))
	}
}

// Run запускает HTTP-сервер и фоновое обновление текстов до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	go a.texts.Run(ctx, a.refreshInterval)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}

	a.close()
	return err
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
	closeDB(a.db, a.logger)
}
