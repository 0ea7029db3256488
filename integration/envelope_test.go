package integration

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	gwcache "github.com/fedquery/gateway/cache"
	"github.com/fedquery/gateway/circuitbreaker"
	"github.com/fedquery/gateway/ratelimit"
	"github.com/fedquery/gateway/types"
)

type fakeAdapter struct {
	source  types.Source
	calls   atomic.Int64
	results []types.Record
	err     error
}

func (f *fakeAdapter) Source() types.Source { return f.source }

func (f *fakeAdapter) SearchImpl(ctx context.Context, query types.SearchQuery) ([]types.Record, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fakeAdapter) Initialize(ctx context.Context) error { return nil }
func (f *fakeAdapter) Close() error                         { return nil }

func newTestCache(t *testing.T) *gwcache.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return gwcache.New(rdb, gwcache.DefaultConfig(), zap.NewNop())
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RateLimit = ratelimit.Config{RequestsPerSecond: 1000, Burst: 1000, WindowSize: time.Second, WindowMax: 1000}
	cfg.Breaker = &circuitbreaker.Config{Threshold: 2, Timeout: 2 * time.Second, ResetTimeout: time.Hour, HalfOpenMaxCalls: 1, SuccessThreshold: 1}
	cfg.MaxRetries = 1
	cfg.RetryDelay = time.Millisecond
	return cfg
}

func TestEnvelopeSearchReturnsAdapterResults(t *testing.T) {
	adapter := &fakeAdapter{source: types.SourceWiki, results: []types.Record{{Source: types.SourceWiki, ID: "1", Title: "doc"}}}
	env := New(adapter, testConfig(), newTestCache(t), zap.NewNop())

	records, err := env.Search(context.Background(), types.SearchQuery{Query: "hello", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, int64(1), adapter.calls.Load())
}

func TestEnvelopeCachesResults(t *testing.T) {
	adapter := &fakeAdapter{source: types.SourceWiki, results: []types.Record{{Source: types.SourceWiki, ID: "1", Title: "doc"}}}
	env := New(adapter, testConfig(), newTestCache(t), zap.NewNop())

	ctx := context.Background()
	_, err := env.Search(ctx, types.SearchQuery{Query: "hello", Limit: 10})
	require.NoError(t, err)

	_, err = env.Search(ctx, types.SearchQuery{Query: "hello", Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, int64(1), adapter.calls.Load(), "second identical search should be served from cache")
}

func TestEnvelopeMalformedErrorNeverRetries(t *testing.T) {
	adapter := &fakeAdapter{source: types.SourceWiki, err: types.NewError(types.ErrMalformed, "bad payload")}
	env := New(adapter, testConfig(), newTestCache(t), zap.NewNop())

	_, err := env.Search(context.Background(), types.SearchQuery{Query: "hello", Limit: 10})
	require.Error(t, err)
	assert.Equal(t, int64(1), adapter.calls.Load(), "malformed errors must not be retried")
}

func TestEnvelopeUpstream5xxRetriesThenTripsBreaker(t *testing.T) {
	adapter := &fakeAdapter{source: types.SourceWiki, err: types.NewError(types.ErrUpstream5xx, "server error")}
	cfg := testConfig()
	env := New(adapter, cfg, newTestCache(t), zap.NewNop())

	_, err := env.Search(context.Background(), types.SearchQuery{Query: "hello", Limit: 10})
	require.Error(t, err)
	assert.GreaterOrEqual(t, adapter.calls.Load(), int64(2), "5xx must be retried at least once before failing")

	// The breaker wraps the retry loop, so each Search counts as one
	// failure; a second one reaches the threshold of 2.
	_, err = env.Search(context.Background(), types.SearchQuery{Query: "hello", Limit: 10})
	require.Error(t, err)

	health := env.HealthCheck(context.Background())
	assert.Equal(t, types.CircuitOpen, health.CircuitState, "repeated 5xx failures must trip the breaker")
}

func TestEnvelopeRateLimitQueuesIntoNextWindowInsteadOfFailing(t *testing.T) {
	adapter := &fakeAdapter{source: types.SourceWiki, results: []types.Record{}}
	cfg := testConfig()
	cfg.RateLimit = ratelimit.Config{RequestsPerSecond: 1000, Burst: 1000, WindowSize: 50 * time.Millisecond, WindowMax: 1}
	cfg.CallTimeout = time.Second
	env := New(adapter, cfg, newTestCache(t), zap.NewNop())

	_, err := env.Search(context.Background(), types.SearchQuery{Query: "first", Limit: 10})
	require.NoError(t, err)

	// The window is exhausted, but Search blocks until the next window
	// opens instead of failing the caller immediately.
	_, err = env.Search(context.Background(), types.SearchQuery{Query: "second", Limit: 10})
	require.NoError(t, err)
}

func TestEnvelopeRateLimitFailsOnlyPastCallTimeout(t *testing.T) {
	adapter := &fakeAdapter{source: types.SourceWiki, results: []types.Record{}}
	cfg := testConfig()
	cfg.RateLimit = ratelimit.Config{RequestsPerSecond: 1000, Burst: 1000, WindowSize: time.Hour, WindowMax: 1}
	cfg.CallTimeout = 20 * time.Millisecond
	env := New(adapter, cfg, newTestCache(t), zap.NewNop())

	_, err := env.Search(context.Background(), types.SearchQuery{Query: "first", Limit: 10})
	require.NoError(t, err)

	// The window won't reopen for an hour, far past CallTimeout, so the
	// wait gives up and surfaces RateLimited instead of hanging.
	_, err = env.Search(context.Background(), types.SearchQuery{Query: "second", Limit: 10})
	require.Error(t, err)
	assert.Equal(t, types.ErrRateLimited, types.GetErrorCode(err))
}

func TestEnvelopeRateLimitNoErrorsAcrossConcurrentCallers(t *testing.T) {
	adapter := &fakeAdapter{source: types.SourceWiki, results: []types.Record{}}
	cfg := testConfig()
	cfg.RateLimit = ratelimit.Config{RequestsPerSecond: 1000, Burst: 1000, WindowSize: 30 * time.Millisecond, WindowMax: 10}
	cfg.CallTimeout = 2 * time.Second
	env := New(adapter, cfg, newTestCache(t), zap.NewNop())

	const callers = 20
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			_, err := env.Search(context.Background(), types.SearchQuery{Query: fmt.Sprintf("q-%d", i), Limit: 10})
			errs <- err
		}(i)
	}
	for i := 0; i < callers; i++ {
		assert.NoError(t, <-errs, "callers beyond the window must queue into the next window, not fail")
	}
}

func TestEnvelopeHealthCheckReflectsBreakerState(t *testing.T) {
	adapter := &fakeAdapter{source: types.SourceWiki, results: []types.Record{}}
	env := New(adapter, testConfig(), newTestCache(t), zap.NewNop())

	health := env.HealthCheck(context.Background())
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, types.CircuitClosed, health.CircuitState)
}
