// Command keyrankd starts the long-running tally service.
//
// It consumes tally-job requests from Kafka, runs each count-and-rank job
// with the concurrent counting engine, publishes results back to Kafka,
// persists ranked snapshots to PostgreSQL, caches rendered reports in Redis,
// and exposes an HTTP API plus health and Prometheus endpoints.
//
// Usage:
//
//	keyrankd [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erodriguezln/keyrank/internal/corpus"
	"github.com/erodriguezln/keyrank/internal/reportcache"
	"github.com/erodriguezln/keyrank/internal/runner"
	"github.com/erodriguezln/keyrank/internal/service"
	"github.com/erodriguezln/keyrank/internal/store"
	"github.com/erodriguezln/keyrank/pkg/config"
	"github.com/erodriguezln/keyrank/pkg/health"
	"github.com/erodriguezln/keyrank/pkg/kafka"
	"github.com/erodriguezln/keyrank/pkg/logger"
	"github.com/erodriguezln/keyrank/pkg/metrics"
	"github.com/erodriguezln/keyrank/pkg/middleware"
	"github.com/erodriguezln/keyrank/pkg/postgres"
	"github.com/erodriguezln/keyrank/pkg/redis"
	"github.com/erodriguezln/keyrank/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting tally service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Postgres is required: snapshots are the service's durable output.
	var pg *postgres.Client
	err = resilience.Retry(ctx, "postgres-connect", resilience.RetryConfig{MaxAttempts: 5}, func() error {
		var connErr error
		pg, connErr = postgres.New(cfg.Postgres)
		return connErr
	})
	if err != nil {
		slog.Error("postgres unavailable", "error", err)
		os.Exit(1)
	}
	defer pg.Close()

	// Redis is optional: without it jobs still run, just uncached.
	var cache service.ReportCache
	rdb, err := redis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, report caching disabled", "error", err)
	} else {
		defer rdb.Close()
		cache = reportcache.New(rdb, cfg.Redis)
	}

	reader := corpus.NewReader(cfg.Corpus.Delimiter[0], corpus.WithMaxLineBytes(cfg.Corpus.MaxLineBytes))
	svc := service.New(service.Deps{
		Engine:         runner.New(reader),
		Store:          store.New(pg),
		Cache:          cache,
		Metrics:        m,
		DefaultWorkers: cfg.Tally.DefaultWorkers,
	})

	results := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.TallyResults)
	defer results.Close()
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.TallyJobs, service.HandleJob(svc, results))

	go func() {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("job consumer error", "error", err)
		}
	}()
	slog.Info("job consumer started", "topic", cfg.Kafka.Topics.TallyJobs)

	checker := health.NewChecker()
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if err := pg.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	if rdb != nil {
		checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
			if err := rdb.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}

	handler := service.NewHandler(svc)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/jobs", handler.RunJob)
	mux.HandleFunc("GET /api/v1/snapshots/latest", handler.LatestSnapshot)
	mux.HandleFunc("GET /api/v1/snapshots", handler.ListSnapshots)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownMetrics(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("tally service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("tally service stopped")
}
