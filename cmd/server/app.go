package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/checkledger/internal/adapter/http"
	"github.com/iho/checkledger/internal/adapter/http/handler"
	"github.com/iho/checkledger/internal/adapter/http/middleware"
	"github.com/iho/checkledger/internal/adapter/repository/items"
	"github.com/iho/checkledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/checkledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/checkledger/internal/adapter/repository/redis"
	"github.com/iho/checkledger/internal/infrastructure/auth"
	"github.com/iho/checkledger/internal/infrastructure/config"
	"github.com/iho/checkledger/internal/infrastructure/eventpublisher"
	"github.com/iho/checkledger/internal/infrastructure/metrics"
	"github.com/iho/checkledger/internal/infrastructure/postgres"
	"github.com/iho/checkledger/internal/infrastructure/redis"
	"github.com/iho/checkledger/internal/usecase"
)

// app is the wired service.
type app struct {
	handler     http.Handler
	publisher   *eventpublisher.EventPublisher
	rateLimiter *middleware.RateLimiter
	logger      zerolog.Logger
	closers     []func()
}

// backend is the item store chosen by STORE_BACKEND and what it brings along.
type backend struct {
	store       items.Store
	idempotency usecase.IdempotencyStore
	redis       goredis.UniversalClient // nil when Redis is not in use
	checks      map[string]handler.Pinger
	closers     []func()
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func redisPinger(client goredis.UniversalClient) handler.Pinger {
	return pingFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() })
}

func openBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backend, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		store := memory.New()
		return &backend{
			store:       store,
			idempotency: memory.NewIdempotencyStore(),
			checks:      map[string]handler.Pinger{"store": store},
		}, nil

	case config.BackendPostgres:
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
			return nil, err
		}

		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL:    cfg.DatabaseURL,
			MaxConns:       cfg.DatabaseMaxConns,
			MinConns:       cfg.DatabaseMinConns,
			ConnectTimeout: cfg.DatabaseTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		log.Info().Msg("connected to postgres")

		store, err := postgresRepo.NewItemStore(pool, cfg.TableName)
		if err != nil {
			pool.Close()
			return nil, err
		}

		b := &backend{
			store:   store,
			checks:  map[string]handler.Pinger{"postgres": store},
			closers: []func(){pool.Close},
		}

		// Idempotency keys live in Redis when it is reachable.
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, keeping idempotency keys in memory")
			b.idempotency = memory.NewIdempotencyStore()
			return b, nil
		}
		log.Info().Msg("connected to redis")
		b.idempotency = redisRepo.NewIdempotencyStore(client)
		b.redis = client
		b.checks["redis"] = redisPinger(client)
		b.closers = append(b.closers, func() { _ = client.Close() })
		return b, nil

	case config.BackendRedis:
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Info().Msg("connected to redis")

		store := redisRepo.NewItemStore(client, cfg.TableName)
		return &backend{
			store:       store,
			idempotency: redisRepo.NewIdempotencyStore(client),
			redis:       client,
			checks:      map[string]handler.Pinger{"redis": store},
			closers:     []func(){func() { _ = client.Close() }},
		}, nil
	}

	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func retryPolicy(cfg *config.Config) usecase.RetryPolicy {
	return usecase.RetryPolicy{
		MaxAttempts: cfg.RetryMaxAttempts,
		MinDelay:    cfg.RetryMinDelay,
		MaxDelay:    cfg.RetryMaxDelay,
		MaxElapsed:  cfg.RetryMaxElapsed,
	}
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	return newAppWithRegistry(ctx, cfg, log, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

func newAppWithRegistry(
	ctx context.Context,
	cfg *config.Config,
	log zerolog.Logger,
	reg prometheus.Registerer,
	gatherer prometheus.Gatherer,
) (*app, error) {
	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	m := metrics.NewWithRegisterer(reg)

	// Initialize repositories
	txManager := items.NewTxManager(b.store)
	accountRepo := items.NewAccountRepository(b.store)
	entryRepo := items.NewEntryRepository(b.store)
	idGen := items.NewULIDGenerator()

	var outboxRepo usecase.OutboxRepository = items.NewNullOutboxRepository()
	if cfg.OutboxEnabled {
		outboxRepo = items.NewOutboxRepository(b.store)
	}

	retrier := usecase.NewConflictRetrier(retryPolicy(cfg),
		usecase.WithRetryLogger(log),
		usecase.WithRetryMetrics(m),
	)

	// Initialize use cases
	accountUC := usecase.NewAccountUseCase(txManager, accountRepo, outboxRepo, idGen, log)
	ledgerUC := usecase.NewLedgerUseCase(txManager, accountRepo, entryRepo,
		usecase.WithLogger(log),
		usecase.WithMetrics(m),
		usecase.WithRetrier(retrier),
		usecase.WithOutbox(outboxRepo, idGen),
	)
	historyUC := usecase.NewHistoryUseCase(accountRepo, entryRepo)
	reconUC := usecase.NewReconciliationUseCase(accountRepo, entryRepo)

	a := &app{logger: log, closers: b.closers}

	if cfg.OutboxEnabled {
		publisher, err := newPublisher(cfg, b, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.publisher = eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: outboxRepo,
			Publisher:  publisher,
			Logger:     log,
			Metrics:    m,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxInterval,
		})
	}

	if cfg.RateLimitRPS > 0 {
		a.rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithMetrics(m)
	}

	var authenticator middleware.Authenticator
	if cfg.AuthEnabled {
		authenticator = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	}

	a.handler = httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:   handler.NewAccountHandler(accountUC, reconUC),
		LedgerHandler:    handler.NewLedgerHandler(ledgerUC),
		EntryHandler:     handler.NewEntryHandler(historyUC),
		HealthHandler:    handler.NewHealthHandler(b.checks),
		IdempotencyStore: b.idempotency,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      a.rateLimiter,
		Authenticator:    authenticator,
		Metrics:          m,
		Gatherer:         gatherer,
		Logger:           log,
	})

	return a, nil
}

func newPublisher(cfg *config.Config, b *backend, log zerolog.Logger) (eventpublisher.Publisher, error) {
	if cfg.OutboxPublisher != config.PublisherRedis {
		return eventpublisher.NewLogPublisher(log), nil
	}
	if b.redis == nil {
		return nil, fmt.Errorf("OUTBOX_PUBLISHER=redis needs a reachable Redis at %s", cfg.RedisURL)
	}
	return eventpublisher.NewStreamPublisher(b.redis, cfg.OutboxStream, cfg.OutboxStreamMax), nil
}

// startWorkers runs background loops until ctx is done.
func (a *app) startWorkers(ctx context.Context) {
	if a.publisher != nil {
		go func() {
			if err := a.publisher.Start(ctx); err != nil && ctx.Err() == nil {
				a.logger.Error().Err(err).Msg("event publisher stopped")
			}
		}()
	}
	if a.rateLimiter != nil {
		go a.rateLimiter.StartCleanup(ctx, 5*time.Minute)
	}
}

// Close releases connections in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
