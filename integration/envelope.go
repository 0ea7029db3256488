// Package integration composes the rate limiter, cache, circuit breaker
// and retry primitives into the single uniform contract every backend
// adapter is built on: Search(query) -> []Record, with consistent
// caching, admission control, fault isolation and metrics regardless of
// which backend is behind it.
//
// Grounded on agentflow's LLM call path, which layers the same four
// primitives (rate limit, cache, breaker, retry) around a single
// provider call; this package generalizes that composition from one
// LLM provider call to any Adapter.Search implementation.
package integration

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/fedquery/gateway/cache"
	"github.com/fedquery/gateway/circuitbreaker"
	"github.com/fedquery/gateway/ratelimit"
	"github.com/fedquery/gateway/retry"
	"github.com/fedquery/gateway/types"
)

// Adapter is the minimal per-vendor contract an Envelope wraps. Each
// backend adapter (ticket tracker, wiki, chat, code host, ...)
// implements only this; the envelope supplies everything else.
type Adapter interface {
	// Source identifies which backend this adapter serves.
	Source() types.Source
	// SearchImpl performs the actual vendor call. Errors must be
	// *types.Error so the envelope's retry/breaker/rate-limit logic can
	// classify them correctly.
	SearchImpl(ctx context.Context, query types.SearchQuery) ([]types.Record, error)
	// Initialize runs once before the adapter serves traffic (e.g.
	// validating credentials). A no-op implementation is fine.
	Initialize(ctx context.Context) error
	// Close releases adapter-held resources (connections, clients).
	Close() error
}

// Config tunes one Envelope.
type Config struct {
	CallTimeout time.Duration
	CacheTTLL1  time.Duration
	CacheTTLL2  time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	RateLimit   ratelimit.Config
	Breaker     *circuitbreaker.Config
}

// DefaultConfig returns envelope defaults matching the specification.
func DefaultConfig() Config {
	return Config{
		CallTimeout: 10 * time.Second,
		CacheTTLL1:  300 * time.Second,
		CacheTTLL2:  3600 * time.Second,
		MaxRetries:  2,
		RetryDelay:  200 * time.Millisecond,
		RateLimit:   ratelimit.DefaultConfig(),
		Breaker:     circuitbreaker.DefaultConfig(),
	}
}

// Metrics is the per-envelope counters surfaced by HealthCheck.
type Metrics struct {
	Successes   int64
	Failures    int64
	CacheHits   int64
	CacheMiss   int64
	LastError   string
	LastLatency time.Duration
}

// Health is the uniform secondary operation every envelope exposes.
type Health struct {
	Status       string // "healthy" | "degraded" | "unhealthy"
	CircuitState types.CircuitState
	Metrics      Metrics
	Checks       map[string]bool
}

// Envelope is the fault-tolerant wrapper every backend adapter runs
// behind: cache lookup, rate-limit admission, circuit breaker, and a
// bounded retry loop around the adapter's own search call.
type Envelope struct {
	adapter Adapter
	cfg     Config
	cache   *cache.Cache
	limiter *ratelimit.Limiter
	breaker circuitbreaker.Breaker
	retryer retry.Retryer
	logger  *zap.Logger

	metrics Metrics
}

// New builds an Envelope around adapter, wiring fresh cache, rate
// limiter, breaker and retry instances from cfg.
func New(adapter Adapter, cfg Config, c *cache.Cache, logger *zap.Logger) *Envelope {
	if logger == nil {
		logger = zap.NewNop()
	}
	policy := &retry.Policy{
		MaxRetries:   cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}

	limiter := ratelimit.New(cfg.RateLimit)

	// The breaker is the only place that observes a 429-like response
	// (the adapter call result). Copy the caller's breaker config before
	// attaching the forwarding hook so two envelopes sharing one
	// *circuitbreaker.Config don't end up forwarding to each other's
	// limiter.
	breakerCfg := cfg.Breaker
	if breakerCfg == nil {
		breakerCfg = circuitbreaker.DefaultConfig()
	}
	bc := *breakerCfg
	bc.OnOutcome = func(err error) {
		if err == nil {
			limiter.RecordOutcome(ratelimit.OutcomeSuccess, 0)
			return
		}
		if types.GetErrorCode(err) == types.ErrRateLimited {
			limiter.RecordOutcome(ratelimit.OutcomeRateLimited, ratelimit.RetryAfter(err))
		}
	}

	return &Envelope{
		adapter: adapter,
		cfg:     cfg,
		cache:   c,
		limiter: limiter,
		breaker: circuitbreaker.New(&bc, logger.With(zap.String("service", string(adapter.Source())))),
		retryer: retry.NewBackoffRetryer(policy, logger),
		logger:  logger.With(zap.String("service", string(adapter.Source()))),
	}
}

// Search implements the uniform Search(query) -> []Record contract:
// cache lookup, rate-limit admission, breaker-guarded retrying adapter
// call, cache write-back, metrics.
func (e *Envelope) Search(ctx context.Context, query types.SearchQuery) ([]types.Record, error) {
	start := time.Now()
	key := cache.SearchKey(e.adapter.Source(), query.Query, query.Limit, query.Filters)

	if records, ok := e.lookupCache(ctx, key); ok {
		e.metrics.CacheHits++
		return records, nil
	}
	e.metrics.CacheMiss++

	// Acquire a rate-limit slot, blocking cooperatively up to the call
	// timeout instead of failing the instant the limiter is exhausted:
	// a caller beyond the limit queues into the next window rather than
	// surfacing an error.
	waitCtx, cancelWait := context.WithTimeout(ctx, e.cfg.CallTimeout)
	waitErr := e.limiter.Wait(waitCtx)
	cancelWait()
	if waitErr != nil {
		err := types.NewError(types.ErrRateLimited, "rate limit wait exceeded timeout").
			WithSource(e.adapter.Source()).WithCause(waitErr)
		e.recordFailure(err, time.Since(start))
		return nil, err
	}

	result, err := e.breaker.CallWithResult(ctx, func() (any, error) {
		return e.retryer.DoWithResult(ctx, func() (any, error) {
			callCtx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
			defer cancel()
			return e.adapter.SearchImpl(callCtx, query)
		})
	})
	if err != nil {
		e.recordFailure(err, time.Since(start))
		return nil, err
	}

	records, _ := result.([]types.Record)
	if len(records) > 0 {
		e.writeCache(ctx, key, records)
	}
	e.recordSuccess(time.Since(start))
	return records, nil
}

func (e *Envelope) lookupCache(ctx context.Context, key string) ([]types.Record, bool) {
	if e.cache == nil {
		return nil, false
	}
	entry, err := e.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var records []types.Record
	if err := json.Unmarshal(entry.Value, &records); err != nil {
		return nil, false
	}
	return records, true
}

func (e *Envelope) writeCache(ctx context.Context, key string, records []types.Record) {
	if e.cache == nil {
		return
	}
	raw, err := json.Marshal(records)
	if err != nil {
		e.logger.Warn("failed to marshal records for cache write", zap.Error(err))
		return
	}
	if err := e.cache.Set(ctx, key, raw, e.cfg.CacheTTLL2); err != nil {
		e.logger.Warn("cache write failed", zap.Error(err))
	}
}

func (e *Envelope) recordSuccess(elapsed time.Duration) {
	e.metrics.Successes++
	e.metrics.LastLatency = elapsed
}

func (e *Envelope) recordFailure(err error, elapsed time.Duration) {
	e.metrics.Failures++
	e.metrics.LastLatency = elapsed
	e.metrics.LastError = err.Error()
}

// HealthCheck reports the envelope's current state for the orchestrator's
// admin surface and the gateway's /api/diagnostics endpoint.
func (e *Envelope) HealthCheck(ctx context.Context) Health {
	state := e.breaker.State()
	status := "healthy"
	switch state {
	case types.CircuitOpen:
		status = "unhealthy"
	case types.CircuitHalfOpen:
		status = "degraded"
	}
	return Health{
		Status:       status,
		CircuitState: state,
		Metrics:      e.metrics,
		Checks: map[string]bool{
			"circuit_closed": state == types.CircuitClosed,
		},
	}
}

// Source returns the backend service this envelope guards.
func (e *Envelope) Source() types.Source { return e.adapter.Source() }

// Initialize runs the adapter's own startup hook.
func (e *Envelope) Initialize(ctx context.Context) error { return e.adapter.Initialize(ctx) }

// Close runs the adapter's own shutdown hook.
func (e *Envelope) Close() error { return e.adapter.Close() }
