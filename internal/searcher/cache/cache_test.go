package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnadhan/Inverted-Index/internal/searcher/executor"
	"github.com/vnadhan/Inverted-Index/pkg/config"
	"github.com/vnadhan/Inverted-Index/pkg/metrics"
	pkgredis "github.com/vnadhan/Inverted-Index/pkg/redis"
	"github.com/vnadhan/Inverted-Index/pkg/resilience"
)

func newCache(t *testing.T, fingerprint string, m *metrics.Metrics) (*QueryCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg := config.RedisConfig{Addr: mr.Addr(), CacheTTL: time.Minute}
	client, err := pkgredis.NewClient(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return New(client, cfg, func() string { return fingerprint }, m), mr
}

func result(query string, docs ...string) *executor.SearchResult {
	return &executor.SearchResult{
		Query:     query,
		Mode:      "multi",
		TotalHits: len(docs),
		Documents: docs,
	}
}

func TestGetOrComputeCachesResult(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	c, mr := newCache(t, "abc", m)
	ctx := context.Background()

	calls := 0
	compute := func() (*executor.SearchResult, error) {
		calls++
		return result("cat dog", "document0", "document2"), nil
	}

	got, hit, err := c.GetOrCompute(ctx, "cat dog", 10, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []string{"document0", "document2"}, got.Documents)

	got, hit, err = c.GetOrCompute(ctx, "Cat,  DOG!", 10, compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"document0", "document2"}, got.Documents)
	assert.Equal(t, 1, calls)

	ttl := mr.TTL(c.buildKey("cat dog", 10))
	assert.Equal(t, time.Minute, ttl)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal))
}

func TestResultEchoesCallersQuery(t *testing.T) {
	c, _ := newCache(t, "abc", nil)
	ctx := context.Background()
	compute := func() (*executor.SearchResult, error) {
		return result("Secret, Cat DOG!", "document0"), nil
	}

	got, hit, err := c.GetOrCompute(ctx, "Secret, Cat DOG!", 0, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "Secret, Cat DOG!", got.Query)

	got, hit, err = c.GetOrCompute(ctx, "secret cat dog", 0, compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "secret cat dog", got.Query)
	assert.Equal(t, []string{"document0"}, got.Documents)
}

func TestKeysAreScoped(t *testing.T) {
	c, _ := newCache(t, "fp1", nil)
	other := &QueryCache{fingerprint: func() string { return "fp2" }}

	assert.NotEqual(t, c.buildKey("cat", 10), c.buildKey("cat", 5))
	assert.NotEqual(t, c.buildKey("cat dog", 10), c.buildKey("dog cat", 10))
	assert.NotEqual(t, c.buildKey("cat", 10), other.buildKey("cat", 10))
	assert.Equal(t, c.buildKey("cat", 10), c.buildKey(" CAT ", 10))
	assert.Contains(t, c.buildKey("cat", 10), "search:fp1:")
}

func TestComputeErrorIsNotCached(t *testing.T) {
	c, mr := newCache(t, "abc", nil)
	boom := errors.New("degenerate")

	_, _, err := c.GetOrCompute(context.Background(), "q", 0, func() (*executor.SearchResult, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, mr.Keys())
}

func TestSingleflightDeduplicates(t *testing.T) {
	c, _ := newCache(t, "abc", nil)
	var calls atomic.Int32
	release := make(chan struct{})
	compute := func() (*executor.SearchResult, error) {
		calls.Add(1)
		<-release
		return result("slow query"), nil
	}

	var wg sync.WaitGroup
	run := func() {
		defer wg.Done()
		_, _, err := c.GetOrCompute(context.Background(), "slow query", 0, compute)
		assert.NoError(t, err)
	}
	wg.Add(1)
	go run()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	for i := 0; i < 7; i++ {
		wg.Add(1)
		go run()
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestInvalidate(t *testing.T) {
	c, mr := newCache(t, "abc", nil)
	ctx := context.Background()
	c.Set(ctx, "cat", 0, result("cat", "document0"))
	require.NoError(t, mr.Set("unrelated", "x"))

	require.NoError(t, c.Invalidate(ctx))
	_, ok := c.Get(ctx, "cat", 0)
	assert.False(t, ok)
	assert.True(t, mr.Exists("unrelated"))
}

func TestRedisOutageDegradesToMiss(t *testing.T) {
	c, mr := newCache(t, "abc", nil)
	mr.Close()
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		got, hit, err := c.GetOrCompute(ctx, "cat", 0, func() (*executor.SearchResult, error) {
			return result("cat", "document0"), nil
		})
		require.NoError(t, err)
		assert.False(t, hit)
		assert.Equal(t, []string{"document0"}, got.Documents)
	}
	assert.Equal(t, resilience.StateOpen, c.BreakerState())
}
