package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nishanth-tharma/vector-retrieval-platform/internal/searcher/retrieval"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/config"
)

// fakeStore is an in-memory stand-in for the Redis client.
type fakeStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	val, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return val, nil
}

func (f *fakeStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = fmt.Sprintf("%s", value)
	return nil
}

func (f *fakeStore) DeleteByPattern(ctx context.Context, pattern string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(len(f.data))
	f.data = make(map[string]string)
	return n, nil
}

func newTestCache() *QueryCache {
	c := New(nil, config.RedisConfig{CacheTTL: time.Minute})
	c.client = newFakeStore()
	return c
}

func TestBuildKeyIgnoresTermOrder(t *testing.T) {
	a := buildKey(retrieval.Query{"cat": 1, "dog": 2}, retrieval.TFIDF, 10)
	b := buildKey(retrieval.Query{"dog": 2, "cat": 1}, retrieval.TFIDF, 10)
	if a != b {
		t.Errorf("keys differ for identical queries: %s vs %s", a, b)
	}
}

func TestBuildKeyVariesByScheme(t *testing.T) {
	query := retrieval.Query{"cat": 1}
	a := buildKey(query, retrieval.Binary, 10)
	b := buildKey(query, retrieval.TFIDF, 10)
	if a == b {
		t.Error("keys collide across weighting schemes")
	}
}

func TestBuildKeyVariesByLimitAndFrequency(t *testing.T) {
	if buildKey(retrieval.Query{"cat": 1}, retrieval.Binary, 10) ==
		buildKey(retrieval.Query{"cat": 1}, retrieval.Binary, 20) {
		t.Error("keys collide across limits")
	}
	if buildKey(retrieval.Query{"cat": 1}, retrieval.TermFrequency, 10) ==
		buildKey(retrieval.Query{"cat": 2}, retrieval.TermFrequency, 10) {
		t.Error("keys collide across query frequencies")
	}
}

func TestGetOrComputeCountsOneMissPerQuery(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()
	query := retrieval.Query{"cat": 1}
	computed := 0
	compute := func() ([]retrieval.ScoredDoc, error) {
		computed++
		return []retrieval.ScoredDoc{{DocID: 1, Score: 0.5}}, nil
	}

	ranked, cached, err := c.GetOrCompute(ctx, query, retrieval.TFIDF, 10, compute)
	if err != nil {
		t.Fatal(err)
	}
	if cached || computed != 1 || len(ranked) != 1 {
		t.Fatalf("first call: cached=%v computed=%d results=%d, want fresh compute", cached, computed, len(ranked))
	}
	if hits, misses := c.Stats(); hits != 0 || misses != 1 {
		t.Errorf("after computed query: hits=%d misses=%d, want 0/1", hits, misses)
	}

	ranked, cached, err = c.GetOrCompute(ctx, query, retrieval.TFIDF, 10, compute)
	if err != nil {
		t.Fatal(err)
	}
	if !cached || computed != 1 || len(ranked) != 1 {
		t.Fatalf("second call: cached=%v computed=%d, want cache hit without recompute", cached, computed)
	}
	if hits, misses := c.Stats(); hits != 1 || misses != 1 {
		t.Errorf("after cached query: hits=%d misses=%d, want 1/1", hits, misses)
	}
}

func TestInvalidateClearsEntries(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()
	query := retrieval.Query{"dog": 2}
	c.Set(ctx, query, retrieval.Binary, 10, []retrieval.ScoredDoc{{DocID: 3, Score: 1}})
	if _, ok := c.Get(ctx, query, retrieval.Binary, 10); !ok {
		t.Fatal("entry missing before invalidation")
	}
	if err := c.Invalidate(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(ctx, query, retrieval.Binary, 10); ok {
		t.Error("entry survived invalidation")
	}
}
