package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/branchledger/internal/accounting"
	httpAdapter "github.com/iho/branchledger/internal/adapter/http"
	"github.com/iho/branchledger/internal/adapter/http/handler"
	"github.com/iho/branchledger/internal/adapter/http/middleware"
	"github.com/iho/branchledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/branchledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/branchledger/internal/adapter/repository/redis"
	"github.com/iho/branchledger/internal/infrastructure/auth"
	"github.com/iho/branchledger/internal/infrastructure/config"
	"github.com/iho/branchledger/internal/infrastructure/metrics"
	"github.com/iho/branchledger/internal/infrastructure/postgres"
	"github.com/iho/branchledger/internal/infrastructure/redis"
	"github.com/iho/branchledger/internal/usecase"
)

const (
	memoryCleanupInterval  = 10 * time.Minute
	limiterCleanupInterval = time.Hour
)

// app is the wired server with everything that must be released on exit.
type app struct {
	Handler http.Handler
	closers []func()
}

// Close releases connections and stops background loops in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg *config.Config, l zerolog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	datePolicy, err := accounting.ParseDatePolicy(cfg.ImportDatePolicy)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	var checks []handler.HealthCheck

	stores, retrier, err := a.openStores(ctx, cfg, l, m, &checks)
	if err != nil {
		return nil, err
	}

	var (
		cache       usecase.ChartCache
		idempotency usecase.IdempotencyStore
	)
	if cfg.UsesRedis() {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		l.Info().Msg("connected to redis")

		cache = redisRepo.NewChartCache(client)
		idempotency = redisRepo.NewIdempotencyStore(client)
		checks = append(checks, handler.HealthCheck{Name: "redis", Ping: redisPing(client)})
	} else {
		cache = memory.NewChartCache(cfg.ChartCacheTTL, memoryCleanupInterval)
		idempotency = memory.NewIdempotencyStore(memoryCleanupInterval)
	}

	idGen := postgresRepo.NewULIDGenerator("acc")
	accountUC := usecase.NewAccountUseCase(stores, idGen, m, l)
	ledgerUC := usecase.NewLedgerUseCase(stores, cache, retrier, l)
	entryUC := usecase.NewEntryUseCase(stores, cache, retrier, datePolicy, m, l)
	reportUC := usecase.NewReportUseCase(stores, cache, cfg.ChartCacheTTL, m, l)

	routerCfg := httpAdapter.RouterConfig{
		AccountHandler:   handler.NewAccountHandler(accountUC),
		LedgerHandler:    handler.NewLedgerHandler(ledgerUC),
		EntryHandler:     handler.NewEntryHandler(entryUC),
		ReportHandler:    handler.NewReportHandler(reportUC),
		HealthHandler:    handler.NewHealthHandler(checks...),
		Logger:           l,
		Metrics:          m,
		IdempotencyStore: idempotency,
		IdempotencyTTL:   cfg.IdempotencyTTL,
	}

	if cfg.RateLimitRPS > 0 {
		rl := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, func(ip string) {
			m.RateLimitHits.WithLabelValues(ip).Inc()
		})
		routerCfg.RateLimiter = rl
		a.closers = append(a.closers, startLimiterCleanup(rl))
	}

	if cfg.AuthEnabled {
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("AUTH_ENABLED requires JWT_SECRET")
		}
		routerCfg.TokenVerifier = auth.NewJWTManager(cfg.JWTSecret, 0)
		l.Info().Msg("bearer authentication enabled")
	}

	a.Handler = httpAdapter.NewRouter(routerCfg)
	return a, nil
}

// openStores selects the postgres repositories or the in-process store.
func (a *app) openStores(
	ctx context.Context,
	cfg *config.Config,
	l zerolog.Logger,
	m *metrics.Metrics,
	checks *[]handler.HealthCheck,
) (usecase.Stores, usecase.Retrier, error) {
	if !cfg.UsesPostgres() {
		store := memory.NewStore()
		l.Warn().Msg("using in-memory store; data is lost on restart")
		return usecase.Stores{
			TxManager: store,
			Accounts:  store,
			Ledgers:   store,
			Groups:    store,
			Entries:   store,
			Catalog:   store,
			Sequences: store,
		}, nil, nil
	}

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, l); err != nil {
		return usecase.Stores{}, nil, err
	}

	poolCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	defer cancel()
	pool, err := postgres.NewPool(poolCtx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return usecase.Stores{}, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.closers = append(a.closers, pool.Close)
	*checks = append(*checks, handler.HealthCheck{Name: "postgres", Ping: pool.Ping})
	l.Info().Msg("connected to postgres")

	return postgresStores(pool), postgresRepo.NewRetrier(l).OnRetry(m.Retried), nil
}

func postgresStores(pool *pgxpool.Pool) usecase.Stores {
	return usecase.Stores{
		TxManager: postgresRepo.NewTxManager(pool),
		Accounts:  postgresRepo.NewAccountRepository(pool),
		Ledgers:   postgresRepo.NewLedgerRepository(pool),
		Groups:    postgresRepo.NewGroupRepository(pool),
		Entries:   postgresRepo.NewEntryRepository(pool),
		Catalog:   postgresRepo.NewCatalogRepository(pool),
		Sequences: postgresRepo.NewSequenceRepository(pool),
	}
}

func redisPing(client *goredis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return redis.Ping(ctx, client)
	}
}

func startLimiterCleanup(rl *middleware.RateLimiter) func() {
	ticker := time.NewTicker(limiterCleanupInterval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				rl.CleanupLimiters(limiterCleanupInterval)
			case <-done:
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}
