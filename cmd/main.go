package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/okian/bulletin/internal/adapters/http/api"
	"github.com/okian/bulletin/internal/adapters/http/swagger"
	"github.com/okian/bulletin/internal/adapters/mq/kafka"
	"github.com/okian/bulletin/internal/adapters/repository"
	"github.com/okian/bulletin/internal/adapters/sessionstore"
	app "github.com/okian/bulletin/internal/app"
	"github.com/okian/bulletin/internal/config"
	"github.com/okian/bulletin/pkg/logger"
	"github.com/okian/bulletin/pkg/metrics"
)

const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "bulletin exited with error", logger.Error(err))
		os.Exit(1)
	}
}

// run wires every component from cfg and blocks until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	if err := logger.SetFormat(cfg.LogFormat); err != nil {
		log.Warn(ctx, "invalid log_format; keeping text", logger.String("log_format", cfg.LogFormat), logger.Error(err))
	}
	log = logger.Get()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	sessions, closeSessions, err := openSessions(ctx, cfg)
	if err != nil {
		_ = store.Close()
		return err
	}
	defer closeSessions()

	svc := app.New(
		app.WithLogger(log.Named("service")),
		app.WithStore(store),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, svc, cfg, sessions),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info(gctx, "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if len(cfg.KafkaBrokers) > 0 {
		reader := kafka.NewReader(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID)
		consumer := kafka.NewConsumer(reader, kafka.ViewHandler(svc), kafka.WithLogger(log.Named("kafka-consumer")))
		g.Go(func() error {
			return consumer.Start(gctx)
		})
		log.Info(ctx, "kafka view ingestion enabled",
			logger.Any("brokers", cfg.KafkaBrokers),
			logger.String("topic", cfg.KafkaTopic),
		)
	}

	g.Go(func() error {
		startServiceMetricsUpdater(gctx, svc)
		return nil
	})

	runErr := g.Wait()

	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := svc.Stop(stopCtx); err != nil {
		log.Error(stopCtx, "service stop failed", logger.Error(err))
	}

	log.Info(stopCtx, "server stopped")
	return runErr
}

// openStore returns the Postgres store when a DSN is configured, otherwise
// an empty in-memory store.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if cfg.PostgresDSN == "" {
		logger.Get().Warn(ctx, "postgres_dsn not set; using in-memory store")
		return repository.NewMemoryStore(), nil
	}

	store, err := repository.OpenPostgres(ctx, cfg.PostgresDSN,
		repository.WithMaxOpenConns(cfg.PostgresMaxOpenConns),
		repository.WithMaxIdleConns(cfg.PostgresMaxIdleConns),
		repository.WithConnMaxLifetime(cfg.PostgresConnMaxLifetime),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return store, nil
}

// openSessions returns the Redis session provider when an address is
// configured. Without one no request carries a session.
func openSessions(ctx context.Context, cfg *config.Config) (sessionstore.Provider, func(), error) {
	if cfg.RedisAddr == "" {
		logger.Get().Warn(ctx, "redis_addr not set; analytics endpoints will deny every request")
		return sessionstore.Anonymous, func() {}, nil
	}

	rdb, err := sessionstore.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, fmt.Errorf("dial redis: %w", err)
	}
	provider := sessionstore.NewRedisProvider(rdb,
		sessionstore.WithCookieName(cfg.SessionCookie),
		sessionstore.WithKeyPrefix(cfg.SessionKeyPrefix),
	)
	return provider, func() { _ = provider.Close() }, nil
}

// newHandler registers every route and wraps the mux in the front middleware.
func newHandler(ctx context.Context, svc *app.Service, cfg *config.Config, sessions sessionstore.Provider) http.Handler {
	opts := []api.ServerOption{
		api.WithSessions(sessions),
		api.WithTopLimit(cfg.TopLimit),
	}
	if p, ok := sessions.(api.Pinger); ok {
		opts = append(opts, api.WithReadinessCheck("sessions", p))
	}

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)

	server := api.NewServer(svc, opts...)
	server.Register(mux)
	return server.Handler(mux)
}

// startServiceMetricsUpdater refreshes queue gauges until ctx is cancelled.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

func updateServiceMetrics(svc *app.Service) {
	queueLen, workers := svc.QueueStats()
	metrics.UpdateQueueSize(queueLen)
	metrics.UpdateWorkerCount(workers)
}
