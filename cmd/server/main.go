package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/walletledger/internal/adapter/http"
	"github.com/iho/walletledger/internal/adapter/http/handler"
	"github.com/iho/walletledger/internal/adapter/http/middleware"
	"github.com/iho/walletledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/walletledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/walletledger/internal/adapter/repository/redis"
	"github.com/iho/walletledger/internal/infrastructure/config"
	"github.com/iho/walletledger/internal/infrastructure/logger"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
	"github.com/iho/walletledger/internal/infrastructure/postgres"
	"github.com/iho/walletledger/internal/infrastructure/redis"
	"github.com/iho/walletledger/internal/infrastructure/walletlock"
	"github.com/iho/walletledger/internal/usecase"
)

const serviceName = "walletledger"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: serviceName,
		Version: version,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

// run serves HTTP until ctx is cancelled, then shuts down gracefully.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	app, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      app.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("storage", cfg.StorageDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return nil
}

// app is the fully wired service.
type app struct {
	handler http.Handler
	closers []func()
}

// Close releases connections in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// closeLogged returns a closer that reports a failed Close at warn level.
func closeLogged(log zerolog.Logger, component string, c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Str("component", component).Msg("failed to close connection")
		}
	}
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	a := &app{}
	checks := map[string]handler.Pinger{}

	// Storage
	var (
		txManager     usecase.TransactionManager
		walletRepo    usecase.WalletRepository
		operationRepo usecase.OperationRepository
	)

	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		txManager = memory.NewTxManager(store)
		walletRepo = memory.NewWalletRepository(store)
		operationRepo = memory.NewOperationRepository(store)
		log.Warn().Msg("using in-memory storage; data is lost on restart")

	default:
		if cfg.MigrationsAuto {
			if err := postgres.RunMigrations(cfg.DatabaseURL, log); err != nil {
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
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
		a.closers = append(a.closers, pool.Close)
		checks["postgres"] = pool
		log.Info().Msg("connected to postgres")

		txManager = postgresRepo.NewTxManager(pool, postgresRepo.WithLockTimeout(cfg.DatabaseLockTimeout))
		walletRepo = postgresRepo.NewWalletRepository(pool)
		operationRepo = postgresRepo.NewOperationRepository(pool)
	}

	// Operation record cache
	var cache usecase.OperationCache
	if cfg.RedisEnabled {
		client, err := redis.NewClient(ctx, cfg.RedisURL, redis.Options{
			PoolSize:    cfg.RedisPoolSize,
			DialTimeout: cfg.RedisDialTimeout,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, closeLogged(log, "redis", client))
		checks["redis"] = redis.HealthCheck{Client: client}
		cache = redisRepo.NewOperationCache(client, cfg.OperationCacheTTL)
		log.Info().Msg("connected to redis")
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	retrier := postgresRepo.NewRetrierWithConfig(postgresRepo.RetrierConfig{
		MaxRetries:      cfg.StorageMaxRetries,
		InitialInterval: cfg.StorageRetryInitialInterval,
		MaxInterval:     cfg.StorageRetryMaxInterval,
	}, log)
	idGen := postgresRepo.NewULIDGenerator()

	// Initialize use cases
	operationUC := usecase.NewOperationUseCase(
		txManager,
		walletRepo,
		operationRepo,
		walletlock.New(cfg.LockWaitTimeout),
		retrier,
		idGen,
		cache,
		m,
		log,
	)
	walletUC := usecase.NewWalletUseCase(walletRepo, operationRepo, cache)
	reconciliationUC := usecase.NewReconciliationUseCase(walletRepo)

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m.RateLimitHits)
		go rateLimiter.RunCleanup(ctx, 10*time.Minute, 30*time.Minute)
	}

	a.handler = httpAdapter.NewRouter(httpAdapter.RouterConfig{
		WalletHandler:    handler.NewWalletHandler(walletUC),
		OperationHandler: handler.NewOperationHandler(operationUC, walletUC, idGen),
		LedgerHandler:    handler.NewLedgerHandler(reconciliationUC),
		HealthHandler:    handler.NewHealthHandler(checks),
		Logger:           log,
		Metrics:          m,
		Gatherer:         reg,
		RateLimiter:      rateLimiter,
	})

	return a, nil
}
