package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nishanth-tharma/vector-retrieval-platform/internal/indexer/index"
	"github.com/nishanth-tharma/vector-retrieval-platform/internal/searcher/retrieval"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/metrics"
)

func newTestHandler(t *testing.T, scheme retrieval.Scheme) *Handler {
	t.Helper()
	idx := index.Inverted{
		"cat": {1: 2, 2: 1},
		"dog": {2: 3},
	}
	engine, err := retrieval.New(idx, scheme)
	if err != nil {
		t.Fatal(err)
	}
	return New(engine, nil, nil, nil, nil, 10, 100)
}

func doSearch(t *testing.T, h *Handler, url string) (*httptest.ResponseRecorder, SearchResult) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)
	var result SearchResult
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
	return rec, result
}

func TestSearchRequiresQuery(t *testing.T) {
	h := newTestHandler(t, retrieval.Binary)
	rec, _ := doSearch(t, h, "/search")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSearchRanksDocuments(t *testing.T) {
	h := newTestHandler(t, retrieval.Binary)
	rec, result := doSearch(t, h, "/search?q=cat")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if result.TotalHits != 2 || len(result.Results) != 2 {
		t.Fatalf("hits = %d, results = %d, want 2/2", result.TotalHits, len(result.Results))
	}
	if result.Results[0].DocID != 1 {
		t.Errorf("top result = doc %d, want doc 1", result.Results[0].DocID)
	}
	if result.Scheme != "binary" {
		t.Errorf("scheme = %q, want binary", result.Scheme)
	}
}

func TestSearchAppliesStemmingToQuery(t *testing.T) {
	h := newTestHandler(t, retrieval.Binary)
	// "cats" stems to "cat" and must match the indexed term.
	rec, result := doSearch(t, h, "/search?q=cats")
	if rec.Code != http.StatusOK || result.TotalHits != 2 {
		t.Errorf("status=%d hits=%d, want 200 with 2 hits", rec.Code, result.TotalHits)
	}
}

func TestSearchNoMatches(t *testing.T) {
	h := newTestHandler(t, retrieval.TFIDF)
	rec, result := doSearch(t, h, "/search?q=unicorn")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if result.TotalHits != 0 || len(result.Results) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestSearchStopWordOnlyQuery(t *testing.T) {
	h := newTestHandler(t, retrieval.Binary)
	rec, result := doSearch(t, h, "/search?q=the+and+of")
	if rec.Code != http.StatusOK || len(result.Results) != 0 {
		t.Errorf("status=%d results=%v, want 200 with no results", rec.Code, result.Results)
	}
}

func TestSearchLimit(t *testing.T) {
	h := newTestHandler(t, retrieval.Binary)
	rec, result := doSearch(t, h, "/search?q=cat&limit=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if result.TotalHits != 2 || len(result.Results) != 1 {
		t.Errorf("hits=%d results=%d, want total 2 truncated to 1", result.TotalHits, len(result.Results))
	}

	rec, _ = doSearch(t, h, "/search?q=cat&limit=0")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("limit=0 status = %d, want 400", rec.Code)
	}
}

func TestResultTypeClassification(t *testing.T) {
	cases := []struct {
		cacheHit  bool
		totalHits int
		want      string
	}{
		{false, 3, "miss"},
		{false, 0, "zero_result"},
		{true, 3, "hit"},
		{true, 0, "hit"},
	}
	for _, tc := range cases {
		if got := resultTypeFor(tc.cacheHit, tc.totalHits); got != tc.want {
			t.Errorf("resultTypeFor(cacheHit=%v, totalHits=%d) = %q, want %q",
				tc.cacheHit, tc.totalHits, got, tc.want)
		}
	}
}

func TestObserveCacheCounters(t *testing.T) {
	m := &metrics.Metrics{
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "test_search_queries_total"},
			[]string{"scheme", "result_type"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "test_search_latency_seconds"},
			[]string{"scheme"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{Name: "test_search_results_count"},
		),
		CacheHitsTotal:   prometheus.NewCounter(prometheus.CounterOpts{Name: "test_cache_hits_total"}),
		CacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{Name: "test_cache_misses_total"}),
	}
	h := newTestHandler(t, retrieval.Binary)
	h.metrics = m

	// A cached zero-result search must count as a hit, not a miss.
	h.observe(retrieval.Binary, resultTypeFor(true, 0), time.Now(), 0)
	if hits := testutil.ToFloat64(m.CacheHitsTotal); hits != 1 {
		t.Errorf("cache hits = %v after cached zero-result search, want 1", hits)
	}
	if misses := testutil.ToFloat64(m.CacheMissesTotal); misses != 0 {
		t.Errorf("cache misses = %v after cached zero-result search, want 0", misses)
	}

	h.observe(retrieval.Binary, resultTypeFor(false, 0), time.Now(), 0)
	if misses := testutil.ToFloat64(m.CacheMissesTotal); misses != 1 {
		t.Errorf("cache misses = %v after uncached zero-result search, want 1", misses)
	}
}
