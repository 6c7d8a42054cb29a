// Command searchd runs the search service: it consumes ingest events from
// Kafka into an in-memory inverted index, periodically publishes immutable
// snapshots into the retrieval engine, and serves ranked search results over
// HTTP with Redis result caching and Postgres document hydration.
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

	"github.com/nishanth-tharma/vector-retrieval-platform/internal/analytics"
	"github.com/nishanth-tharma/vector-retrieval-platform/internal/docstore"
	"github.com/nishanth-tharma/vector-retrieval-platform/internal/indexer/consumer"
	"github.com/nishanth-tharma/vector-retrieval-platform/internal/indexer/index"
	"github.com/nishanth-tharma/vector-retrieval-platform/internal/searcher/cache"
	"github.com/nishanth-tharma/vector-retrieval-platform/internal/searcher/handler"
	"github.com/nishanth-tharma/vector-retrieval-platform/internal/searcher/refresher"
	"github.com/nishanth-tharma/vector-retrieval-platform/internal/searcher/retrieval"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/config"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/health"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/kafka"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/logger"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/metrics"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/middleware"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/postgres"
	pkgredis "github.com/nishanth-tharma/vector-retrieval-platform/pkg/redis"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/resilience"
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

	scheme, err := retrieval.ParseScheme(cfg.Retrieval.WeightingScheme)
	if err != nil {
		slog.Error("invalid weighting scheme", "scheme", cfg.Retrieval.WeightingScheme, "error", err)
		os.Exit(1)
	}
	slog.Info("starting search service",
		"port", cfg.Server.Port,
		"scheme", scheme.String(),
		"refresh_interval", cfg.Retrieval.RefreshInterval,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	memIndex := index.NewMemoryIndex()
	engine, err := retrieval.New(memIndex.Snapshot(), scheme)
	if err != nil {
		slog.Error("failed to create retrieval engine", "error", err)
		os.Exit(1)
	}

	// Document store; search degrades to bare IDs and scores without it.
	var store *docstore.Store
	var pgClient *postgres.Client
	err = resilience.Retry(ctx, "postgres-connect", resilience.RetryConfig{MaxAttempts: 5}, func() error {
		var connErr error
		pgClient, connErr = postgres.New(cfg.Postgres)
		return connErr
	})
	if err != nil {
		slog.Warn("postgres unavailable, document hydration disabled", "error", err)
	} else {
		defer pgClient.Close()
		store, err = docstore.New(pgClient, cfg.Docstore.CacheSize)
		if err != nil {
			slog.Error("failed to create document store", "error", err)
			os.Exit(1)
		}
		rebuildIndex(ctx, store, memIndex)
	}

	var queryCache *cache.QueryCache
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, query caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		queryCache = cache.New(redisClient, cfg.Redis)
		slog.Info("query cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	group, groupCtx := errgroup.WithContext(ctx)

	// Ingest pipeline: Kafka -> memory index -> periodic snapshot publication.
	ingestConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest,
		consumer.HandleIngest(memIndex, store, m))
	group.Go(func() error { return ingestConsumer.Start(groupCtx) })

	refr := refresher.New(memIndex, engine, queryCache, m, cfg.Retrieval.RefreshInterval)
	refr.Publish(ctx)
	group.Go(func() error { return refr.Run(groupCtx) })

	// Analytics: publish search events, aggregate them for /stats.
	analyticsProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
	collector := analytics.NewCollector(analyticsProducer, 10000)
	collector.Start(groupCtx)
	defer collector.Close()

	aggregator := analytics.NewAggregator()
	analyticsConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents,
		analytics.HandleEvent(aggregator))
	group.Go(func() error { return analyticsConsumer.Start(groupCtx) })

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d docs, %d terms", memIndex.DocCount(), memIndex.TermCount()),
		}
	})
	if redisClient != nil {
		checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
			if err := redisClient.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}
	if store != nil {
		checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
			if err := store.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}

	searchHandler := handler.New(engine, queryCache, store, collector, m,
		cfg.Retrieval.DefaultLimit, cfg.Retrieval.MaxResults)

	mux := http.NewServeMux()
	mux.HandleFunc("/search", searchHandler.Search)
	mux.HandleFunc("/cache/stats", searchHandler.CacheStats)
	mux.HandleFunc("/cache/invalidate", searchHandler.CacheInvalidate)
	mux.HandleFunc("/stats", analytics.StatsHandler(aggregator))
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
	group.Go(func() error {
		slog.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	var metricsSrv *metrics.Server
	if cfg.Metrics.Enabled {
		metricsSrv = metrics.NewServer(cfg.Metrics.Port)
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
	slog.Info("search service stopped")
}

// rebuildIndex replays all stored documents into the memory index so the
// engine serves the full corpus after a restart.
func rebuildIndex(ctx context.Context, store *docstore.Store, memIndex *index.MemoryIndex) {
	count := 0
	err := store.StreamAll(ctx, func(doc docstore.Document) error {
		memIndex.Add(doc.ID, doc.Title, doc.Body)
		count++
		return nil
	})
	if err != nil {
		slog.Warn("index rebuild incomplete", "indexed", count, "error", err)
		return
	}
	slog.Info("index rebuilt from document store", "docs", count)
}
