// Package entitlement собирает HTTP-сервис решений о доступе: хранилище, кеш,
// метрики, маршруты, консьюмер событий инвалидации и фоновую очистку кеша.
package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/streadway/amqp"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/course-entitlement/internal/cache"
	"github.com/magabrotheeeer/course-entitlement/internal/config"
	"github.com/magabrotheeeer/course-entitlement/internal/lib/clock"
	"github.com/magabrotheeeer/course-entitlement/internal/lib/jwt"
	"github.com/magabrotheeeer/course-entitlement/internal/lib/sl"
	"github.com/magabrotheeeer/course-entitlement/internal/metrics"
	"github.com/magabrotheeeer/course-entitlement/internal/migrations"
	"github.com/magabrotheeeer/course-entitlement/internal/rabbitmq"
	entitlementservice "github.com/magabrotheeeer/course-entitlement/internal/services/entitlement"
	"github.com/magabrotheeeer/course-entitlement/internal/storage/guard"
	"github.com/magabrotheeeer/course-entitlement/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App приложение сервиса доступа.
type App struct {
	server        *http.Server
	logger        *slog.Logger
	db            *repository.Storage
	redis         *redis.Client
	decisions     *cache.DecisionCache
	service       *entitlementservice.Service
	pruneInterval time.Duration

	conn     *amqp.Connection
	ch       *amqp.Channel
	topology rabbitmq.Topology
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	for range 10 {
		if err := repository.CheckDatabaseReady(ctx, db); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает приложение и подключает внешние зависимости.
// Redis и RabbitMQ необязательны: без адреса redis кеш и версии живут в памяти процесса,
// без адреса RabbitMQ события инвалидации не принимаются.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err = waitForDB(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	app := &App{
		logger:        logger,
		db:            db,
		pruneInterval: cfg.PruneInterval,
	}

	opts := cache.Options{RefreshAhead: cfg.RefreshAhead, Recorder: m}
	if cfg.AddressRedis != "" {
		app.redis, err = cache.NewRedisClient(ctx, cfg.RedisConnection)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("cache not initialized: %w", err)
		}
		opts.Versions = cache.NewRedisVersions(app.redis)
		opts.Shared = cache.NewRedisShared(app.redis)
		logger.Info("decision cache uses redis", slog.String("address", cfg.AddressRedis))
	} else {
		logger.Warn("redis address is empty, decision versions are local to this instance")
	}
	app.decisions = cache.New(logger, opts)

	store := guard.New(logger, db, cfg.CircuitBreaker, m)
	app.service = entitlementservice.New(logger, store, app.decisions, m, clock.Real{}, entitlementservice.Config{
		DecisionTTL: cfg.DecisionTTL,
		LoadTimeout: cfg.LoadTimeout,
	})

	if cfg.RabbitMQURL != "" {
		app.conn, err = rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
		}
		app.topology = rabbitmq.NewTopology(cfg.Exchange, cfg.Queue)
		app.ch, err = rabbitmq.SetupChannel(app.conn, app.topology)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
		}
	}

	router := chi.NewRouter()
	RegisterRoutes(router, Routes{
		Logger:  logger,
		Service: app.service,
		Tokens:  jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL),
		Limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		DB:      db,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run запускает HTTP-сервер, консьюмер инвалидаций и очистку кеша до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	if a.ch != nil {
		handler := rabbitmq.NewInvalidationHandler(a.logger, a.service)
		if err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, a.topology.Queue, handler); err != nil {
			a.close()
			return err
		}
		a.logger.Info("invalidation consumer started", slog.String("queue", a.topology.Queue))
	}
	go a.prune(ctx)

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

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) prune(ctx context.Context) {
	if a.pruneInterval <= 0 {
		return
	}
	ticker := time.NewTicker(a.pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.decisions.Prune(); n > 0 {
				a.logger.Debug("expired decisions pruned", slog.Int("count", n), slog.Int("left", a.decisions.Len()))
			}
		}
	}
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close RabbitMQ channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close RabbitMQ connection", sl.Err(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
