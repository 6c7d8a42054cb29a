// Command ingestd runs the ingestion service: it accepts documents over
// HTTP, persists them to Postgres, and publishes ingest events to Kafka for
// the search service to index.
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

	"golang.org/x/sync/errgroup"

	"github.com/nishanth-tharma/vector-retrieval-platform/internal/docstore"
	"github.com/nishanth-tharma/vector-retrieval-platform/internal/ingestion/handler"
	"github.com/nishanth-tharma/vector-retrieval-platform/internal/ingestion/publisher"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/config"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/health"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/kafka"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/logger"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/metrics"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/middleware"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/postgres"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	port := flag.Int("port", 0, "override server port")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting ingestion service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	var pgClient *postgres.Client
	err = resilience.Retry(ctx, "postgres-connect", resilience.RetryConfig{MaxAttempts: 5}, func() error {
		var connErr error
		pgClient, connErr = postgres.New(cfg.Postgres)
		return connErr
	})
	if err != nil {
		slog.Error("postgres unavailable", "error", err)
		os.Exit(1)
	}
	defer pgClient.Close()

	store, err := docstore.New(pgClient, cfg.Docstore.CacheSize)
	if err != nil {
		slog.Error("failed to create document store", "error", err)
		os.Exit(1)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		slog.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest)
	defer producer.Close()
	pub := publisher.New(producer)

	checker := health.NewChecker()
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if err := store.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	ingestHandler := handler.New(store, pub)

	mux := http.NewServeMux()
	mux.HandleFunc("/documents", ingestHandler.Ingest)
	mux.HandleFunc("/documents/get", ingestHandler.GetDocument)
	mux.HandleFunc("/healthz", checker.LiveHandler())
	mux.HandleFunc("/readyz", checker.ReadyHandler())

	var root http.Handler = mux
	root = middleware.Timeout(cfg.Server.RequestTimeout)(root)
	if m != nil {
		root = middleware.Metrics(m)(root)
	}
	root = middleware.RequestID(root)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      root,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		slog.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	var metricsSrv *metrics.Server
	if cfg.Metrics.Enabled {
		metricsSrv = metrics.NewServer(cfg.Metrics.Port + 1)
		group.Go(metricsSrv.Start)
	}

	<-groupCtx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "error", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics shutdown failed", "error", err)
		}
	}
	if err := group.Wait(); err != nil && err != context.Canceled {
		slog.Error("service exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("ingestion service stopped")
}
