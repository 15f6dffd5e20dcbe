package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/vnadhan/Inverted-Index/internal/indexer/tokenizer"
	"github.com/vnadhan/Inverted-Index/internal/searcher/executor"
	"github.com/vnadhan/Inverted-Index/pkg/config"
	"github.com/vnadhan/Inverted-Index/pkg/metrics"
	pkgredis "github.com/vnadhan/Inverted-Index/pkg/redis"
	"github.com/vnadhan/Inverted-Index/pkg/resilience"
)

const keyPrefix = "search:"

// QueryCache stores search results in Redis. Keys are scoped by the corpus
// fingerprint, which already covers the term-frequency strategy, so a
// reloaded or differently weighted index never reads another index's
// results. Redis failures degrade to a miss; after repeated failures the
// circuit breaker skips Redis entirely for a while.
type QueryCache struct {
	client      *pkgredis.Client
	cfg         config.RedisConfig
	fingerprint func() string
	group       singleflight.Group
	breaker     *resilience.CircuitBreaker
	metrics     *metrics.Metrics
	logger      *slog.Logger
	hits        atomic.Int64
	misses      atomic.Int64
}

// New creates a cache for the index whose identity fingerprint reports,
// typically (*indexer.Engine).Fingerprint. m may be nil.
func New(client *pkgredis.Client, cfg config.RedisConfig, fingerprint func() string, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		client:      client,
		cfg:         cfg,
		fingerprint: fingerprint,
		breaker:     resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{}),
		metrics:     m,
		logger:      slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(ctx context.Context, query string, limit int) (*executor.SearchResult, bool) {
	key := c.buildKey(query, limit)
	var data string
	found := false
	err := c.breaker.Execute(func() error {
		v, err := c.client.Get(ctx, key)
		if pkgredis.IsNilError(err) {
			return nil
		}
		if err != nil {
			return err
		}
		data, found = v, true
		return nil
	})
	if err != nil {
		c.logger.Warn("cache get failed", "key", key, "error", err)
	}
	if !found {
		c.recordMiss()
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.recordMiss()
		return nil, false
	}
	c.recordHit()
	c.logger.Debug("cache hit", "query", query, "key", key)
	return &result, true
}

func (c *QueryCache) Set(ctx context.Context, query string, limit int, result *executor.SearchResult) {
	key := c.buildKey(query, limit)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.client.Set(ctx, key, data, c.cfg.CacheTTL)
	})
	if err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns a cached result or runs computeFn once for all
// concurrent callers asking the same question. The bool reports a cache hit.
// The returned result always carries the caller's own query text, even when
// another spelling of it filled the entry.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	query string,
	limit int,
	computeFn func() (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	if result, ok := c.Get(ctx, query, limit); ok {
		result.Query = query
		return result, true, nil
	}
	key := c.buildKey(query, limit)
	val, err, _ := c.group.Do(key, func() (any, error) {
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, query, limit, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	result := *val.(*executor.SearchResult)
	result.Query = query
	return &result, false, nil
}

// Invalidate deletes every cached search result, for all fingerprints.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) BreakerState() resilience.State {
	return c.breaker.State()
}

func (c *QueryCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx)
}

func (c *QueryCache) recordHit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

func (c *QueryCache) buildKey(query string, limit int) string {
	raw := fmt.Sprintf("%s:limit=%d", normalizeQuery(query), limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%s:%x", keyPrefix, c.fingerprint(), hash[:16])
}

// normalizeQuery reduces a query to the tokens the engine ranks on, in
// order, so "Cat, dog!" and "cat dog" share an entry.
func normalizeQuery(query string) string {
	return strings.Join(tokenizer.Tokenize(query), " ")
}
