// Package cache provides a Redis-backed cache of ranked retrieval results.
// Keys incorporate the normalised query vector, the weighting scheme, and the
// result limit, so engines with different schemes never share entries.
// Concurrent misses for the same key are collapsed with singleflight.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nishanth-tharma/vector-retrieval-platform/internal/searcher/retrieval"
	"github.com/nishanth-tharma/vector-retrieval-platform/pkg/config"
	pkgredis "github.com/nishanth-tharma/vector-retrieval-platform/pkg/redis"
)

const keyPrefix = "rank:"

// store is the subset of the Redis client the cache uses.
type store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) (int64, error)
}

// QueryCache caches ranked results in Redis.
type QueryCache struct {
	client store
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a QueryCache over the given Redis client.
func New(client *pkgredis.Client, cfg config.RedisConfig) *QueryCache {
	return &QueryCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "query-cache"),
	}
}

// Get returns the cached ranking for the query, if present.
func (c *QueryCache) Get(ctx context.Context, query retrieval.Query, scheme retrieval.Scheme, limit int) ([]retrieval.ScoredDoc, bool) {
	ranked, ok := c.lookup(ctx, buildKey(query, scheme, limit))
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return ranked, ok
}

// lookup fetches and decodes a cached ranking without touching the hit and
// miss counters.
func (c *QueryCache) lookup(ctx context.Context, key string) ([]retrieval.ScoredDoc, bool) {
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	var ranked []retrieval.ScoredDoc
	if err := json.Unmarshal([]byte(data), &ranked); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	return ranked, true
}

// Set stores a ranking under the query's key with the configured TTL.
func (c *QueryCache) Set(ctx context.Context, query retrieval.Query, scheme retrieval.Scheme, limit int, ranked []retrieval.ScoredDoc) {
	key := buildKey(query, scheme, limit)
	data, err := json.Marshal(ranked)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached ranking or computes and stores it,
// collapsing concurrent misses for the same key into one computation. The
// second return value reports whether the result came from the cache.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	query retrieval.Query,
	scheme retrieval.Scheme,
	limit int,
	computeFn func() ([]retrieval.ScoredDoc, error),
) ([]retrieval.ScoredDoc, bool, error) {
	if ranked, ok := c.Get(ctx, query, scheme, limit); ok {
		return ranked, true, nil
	}
	key := buildKey(query, scheme, limit)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Re-check without the counters: the outer Get already recorded
		// this caller's miss.
		if ranked, ok := c.lookup(ctx, key); ok {
			return ranked, nil
		}
		ranked, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, query, scheme, limit, ranked)
		return ranked, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]retrieval.ScoredDoc), false, nil
}

// Invalidate removes every cached ranking. Called whenever a new index
// snapshot is published, since all scores may have changed.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.DeleteByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating query cache: %w", err)
	}
	c.logger.Info("query cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns the hit and miss counters.
func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// buildKey hashes the normalised query into a fixed-size Redis key. Term
// order in the map is irrelevant: terms are sorted before hashing.
func buildKey(query retrieval.Query, scheme retrieval.Scheme, limit int) string {
	parts := make([]string, 0, len(query))
	for term, freq := range query {
		parts = append(parts, fmt.Sprintf("%s=%d", term, freq))
	}
	sort.Strings(parts)
	raw := fmt.Sprintf("%s|%s|limit=%d", strings.Join(parts, ","), scheme, limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
