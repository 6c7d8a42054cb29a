// Package refresher publishes immutable index snapshots into the retrieval
// engine. Queries always run against the last published snapshot, so the
// engine never observes in-place mutation; swapping the snapshot also rolls
// the engine's collection-size cache over automatically.
package refresher

import (
	"context"
	"log/slog"
	"time"

	"github.com/nishanth-tharma/vector-retrieval-platform/internal/indexer/index"
	"github.com/nishanth-tharma/vector-retrieval-platform/internal/searcher/cache"
	"github.com/nishanth-tharma/vector-retrieval-platform/internal/searcher/retrieval"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/metrics"
)

// Refresher periodically snapshots the memory index into the engine.
type Refresher struct {
	mi       *index.MemoryIndex
	engine   *retrieval.Engine
	cache    *cache.QueryCache
	metrics  *metrics.Metrics
	interval time.Duration
	lastGen  uint64
	logger   *slog.Logger
}

// New creates a Refresher. cache and m may be nil when caching or metrics
// are disabled.
func New(mi *index.MemoryIndex, engine *retrieval.Engine, queryCache *cache.QueryCache, m *metrics.Metrics, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Refresher{
		mi:       mi,
		engine:   engine,
		cache:    queryCache,
		metrics:  m,
		interval: interval,
		logger:   slog.Default().With("component", "index-refresher"),
	}
}

// Run publishes snapshots until ctx is cancelled. A snapshot is only taken
// when the index generation advanced since the last publication.
func (r *Refresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.publishIfChanged(ctx)
		}
	}
}

// Publish forces an immediate snapshot publication, used at startup after
// the index is rebuilt from the document store.
func (r *Refresher) Publish(ctx context.Context) {
	r.lastGen = r.mi.Generation()
	r.publish(ctx)
}

func (r *Refresher) publishIfChanged(ctx context.Context) {
	gen := r.mi.Generation()
	if gen == r.lastGen {
		return
	}
	r.lastGen = gen
	r.publish(ctx)
}

func (r *Refresher) publish(ctx context.Context) {
	start := time.Now()
	snapshot := r.mi.Snapshot()
	r.engine.SetIndex(snapshot)

	if r.cache != nil {
		if err := r.cache.Invalidate(ctx); err != nil {
			r.logger.Error("query cache invalidation failed", "error", err)
		}
	}
	if r.metrics != nil {
		r.metrics.IndexSnapshotsTotal.Inc()
		r.metrics.CollectionSize.Set(float64(r.engine.CollectionSize()))
		r.metrics.IndexTermCount.Set(float64(r.mi.TermCount()))
	}
	r.logger.Info("index snapshot published",
		"docs", r.mi.DocCount(),
		"terms", r.mi.TermCount(),
		"took", time.Since(start).Round(time.Millisecond),
	)
}
