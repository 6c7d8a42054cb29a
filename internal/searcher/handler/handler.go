// Package handler serves the search HTTP API. A query string is tokenised
// into a term-frequency vector, ranked by the retrieval engine (via the
// query cache when enabled), and hydrated with document metadata from the
// store.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/nishanth-tharma/vector-retrieval-platform/internal/analytics"
	"github.com/nishanth-tharma/vector-retrieval-platform/internal/docstore"
	"github.com/nishanth-tharma/vector-retrieval-platform/internal/indexer/tokenizer"
	"github.com/nishanth-tharma/vector-retrieval-platform/internal/searcher/cache"
	"github.com/nishanth-tharma/vector-retrieval-platform/internal/searcher/retrieval"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/logger"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/metrics"
)

// Result is one ranked document in a search response.
type Result struct {
	DocID  int     `json:"doc_id"`
	Score  float64 `json:"score"`
	Title  string  `json:"title,omitempty"`
	Status string  `json:"status,omitempty"`
}

// SearchResult is the JSON body of a search response.
type SearchResult struct {
	Query     string   `json:"query"`
	Scheme    string   `json:"scheme"`
	TotalHits int      `json:"total_hits"`
	CacheHit  bool     `json:"cache_hit"`
	Results   []Result `json:"results"`
}

// Handler serves search requests.
type Handler struct {
	engine       *retrieval.Engine
	cache        *cache.QueryCache
	store        *docstore.Store
	collector    *analytics.Collector
	metrics      *metrics.Metrics
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

// New creates a Handler. cache, store, collector, and m may each be nil when
// the corresponding facility is disabled.
func New(
	engine *retrieval.Engine,
	queryCache *cache.QueryCache,
	store *docstore.Store,
	collector *analytics.Collector,
	m *metrics.Metrics,
	defaultLimit, maxResults int,
) *Handler {
	return &Handler{
		engine:       engine,
		cache:        queryCache,
		store:        store,
		collector:    collector,
		metrics:      m,
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

// Search handles GET /search?q=...&limit=N.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)
	scheme := h.engine.Scheme()

	queryText := r.URL.Query().Get("q")
	if queryText == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	limit := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > h.maxResults {
			parsed = h.maxResults
		}
		limit = parsed
	}

	query := retrieval.Query(tokenizer.Vector(queryText))
	if len(query) == 0 {
		h.writeJSON(w, http.StatusOK, SearchResult{
			Query:   queryText,
			Scheme:  scheme.String(),
			Results: []Result{},
		})
		return
	}

	var ranked []retrieval.ScoredDoc
	var err error
	cacheHit := false
	if h.cache != nil {
		ranked, cacheHit, err = h.cache.GetOrCompute(ctx, query, scheme, limit, func() ([]retrieval.ScoredDoc, error) {
			return h.engine.Rank(query), nil
		})
	} else {
		ranked = h.engine.Rank(query)
	}
	if err != nil {
		log.Error("search execution failed", "query", queryText, "error", err)
		h.observe(scheme, "error", start, 0)
		h.writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	totalHits := len(ranked)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	results := h.hydrate(ctx, ranked)
	latencyMs := time.Since(start).Milliseconds()

	h.observe(scheme, resultTypeFor(cacheHit, totalHits), start, len(results))

	log.Info("search completed",
		"query", queryText,
		"scheme", scheme.String(),
		"total_hits", totalHits,
		"returned", len(results),
		"cache_hit", cacheHit,
		"latency_ms", latencyMs,
	)

	if h.collector != nil {
		eventType := analytics.EventCacheMiss
		if cacheHit {
			eventType = analytics.EventCacheHit
		}
		if totalHits == 0 {
			eventType = analytics.EventZeroResult
		}
		h.collector.Track(analytics.SearchEvent{
			Type:      eventType,
			Query:     queryText,
			Scheme:    scheme.String(),
			TotalHits: totalHits,
			Returned:  len(results),
			LatencyMs: latencyMs,
			CacheHit:  cacheHit,
			Timestamp: time.Now().UTC(),
			RequestID: logger.RequestID(ctx),
		})
	}

	h.writeJSON(w, http.StatusOK, SearchResult{
		Query:     queryText,
		Scheme:    scheme.String(),
		TotalHits: totalHits,
		CacheHit:  cacheHit,
		Results:   results,
	})
}

// hydrate attaches document titles from the store. Ranking still works when
// the store is unavailable; results then carry IDs and scores only.
func (h *Handler) hydrate(ctx context.Context, ranked []retrieval.ScoredDoc) []Result {
	results := make([]Result, len(ranked))
	for i, doc := range ranked {
		results[i] = Result{DocID: doc.DocID, Score: doc.Score}
	}
	if h.store == nil || len(ranked) == 0 {
		return results
	}

	ids := make([]int, len(ranked))
	for i, doc := range ranked {
		ids[i] = doc.DocID
	}
	docs, err := h.store.GetMany(ctx, ids)
	if err != nil {
		h.logger.Error("document hydration failed", "error", err)
		return results
	}
	byID := make(map[int]docstore.Document, len(docs))
	for _, doc := range docs {
		byID[doc.ID] = doc
	}
	for i := range results {
		if doc, ok := byID[results[i].DocID]; ok {
			results[i].Title = doc.Title
			results[i].Status = doc.Status
		}
	}
	return results
}

// resultTypeFor classifies a completed search for the queries-total metric.
// A cached zero-result search is still a cache hit.
func resultTypeFor(cacheHit bool, totalHits int) string {
	switch {
	case cacheHit:
		return "hit"
	case totalHits == 0:
		return "zero_result"
	}
	return "miss"
}

func (h *Handler) observe(scheme retrieval.Scheme, resultType string, start time.Time, returned int) {
	if h.metrics == nil {
		return
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(scheme.String(), resultType).Inc()
	h.metrics.SearchLatency.WithLabelValues(scheme.String()).Observe(time.Since(start).Seconds())
	h.metrics.SearchResultsCount.Observe(float64(returned))
	if resultType == "hit" {
		h.metrics.CacheHitsTotal.Inc()
	} else if resultType == "miss" || resultType == "zero_result" {
		h.metrics.CacheMissesTotal.Inc()
	}
}

// CacheStats handles GET /cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

// CacheInvalidate handles POST /cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
