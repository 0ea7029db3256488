// Package circuitbreaker implements a three-state (closed/open/half-open)
// breaker that wraps a call to a backend service. Grounded directly on
// agentflow's llm/circuitbreaker.breaker: same state machine, same
// goroutine-plus-select timeout mechanism, generalized from wrapping an
// LLM provider call to wrapping an integration.Adapter search call, and
// extended with an exclusion hook so rate-limit signals never count
// toward tripping the breaker — they're the rate limiter's problem, not
// the backend's.
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fedquery/gateway/types"
)

// Config tunes one breaker instance.
type Config struct {
	// Threshold is the consecutive-failure count that trips the breaker.
	Threshold int
	// Timeout bounds a single call.
	Timeout time.Duration
	// ResetTimeout is how long the breaker stays open before probing
	// with a half-open call.
	ResetTimeout time.Duration
	// HalfOpenMaxCalls caps concurrent probe calls while half-open.
	HalfOpenMaxCalls int
	// SuccessThreshold is the number of consecutive half-open successes
	// required to close the breaker.
	SuccessThreshold int
	// OnStateChange, if set, is invoked (in a new goroutine) on every
	// state transition.
	OnStateChange func(from, to types.CircuitState)
	// OnOutcome, if set, is invoked after every call that actually
	// completes (a call timeout does not reach it) with the call's
	// error, nil on success. The breaker is the only place that
	// observes a 429-like response, so this is how that signal reaches
	// the caller's adaptive rate limiter instead of being counted as a
	// breaker failure.
	OnOutcome func(err error)
}

// DefaultConfig returns the breaker's baked-in tuning.
func DefaultConfig() *Config {
	return &Config{
		Threshold:        5,
		Timeout:          10 * time.Second,
		ResetTimeout:     30 * time.Second,
		HalfOpenMaxCalls: 3,
		SuccessThreshold: 3,
	}
}

var (
	ErrCircuitOpen            = errors.New("circuitbreaker: circuit open")
	ErrTooManyCallsInHalfOpen = errors.New("circuitbreaker: too many calls in half-open state")
)

// Breaker wraps a call with the three-state circuit breaker protocol.
type Breaker interface {
	Call(ctx context.Context, fn func() error) error
	CallWithResult(ctx context.Context, fn func() (any, error)) (any, error)
	State() types.CircuitState
	Reset()
}

type breaker struct {
	cfg    *Config
	logger *zap.Logger

	mu                   sync.RWMutex
	state                types.CircuitState
	failureCount         int
	lastFailureTime      time.Time
	halfOpenCallCount    int
	halfOpenSuccessCount int
}

// New creates a Breaker. A nil config uses DefaultConfig.
func New(cfg *Config, logger *zap.Logger) Breaker {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 3
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &breaker{cfg: cfg, logger: logger, state: types.CircuitClosed}
}

func (b *breaker) Call(ctx context.Context, fn func() error) error {
	_, err := b.CallWithResult(ctx, func() (any, error) { return nil, fn() })
	return err
}

func (b *breaker) CallWithResult(ctx context.Context, fn func() (any, error)) (any, error) {
	if err := b.beforeCall(); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	type result struct {
		val any
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		val, err := fn()
		resultCh <- result{val: val, err: err}
	}()

	select {
	case <-callCtx.Done():
		err := fmt.Errorf("circuitbreaker: call timed out: %w", callCtx.Err())
		b.afterCall(false)
		return nil, err

	case res := <-resultCh:
		excluded := isExcluded(res.err)
		success := res.err == nil || excluded
		b.afterCall(success)
		if b.cfg.OnOutcome != nil {
			b.cfg.OnOutcome(res.err)
		}
		if res.err != nil {
			return nil, res.err
		}
		return res.val, nil
	}
}

// isExcluded reports whether err should never count toward tripping the
// breaker: rate-limit and pure client-input errors reflect admission
// control or a bad request, not a degraded backend.
func isExcluded(err error) bool {
	if err == nil {
		return false
	}
	switch types.GetErrorCode(err) {
	case types.ErrRateLimited, types.ErrInvalidInput, types.ErrUpstream4xx:
		return true
	default:
		return false
	}
}

func (b *breaker) beforeCall() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case types.CircuitClosed:
		return nil

	case types.CircuitOpen:
		if time.Since(b.lastFailureTime) > b.cfg.ResetTimeout {
			b.setState(types.CircuitHalfOpen)
			b.halfOpenCallCount = 0
			b.halfOpenSuccessCount = 0
			b.logger.Info("circuit entering half-open")
			return nil
		}
		return ErrCircuitOpen

	case types.CircuitHalfOpen:
		if b.halfOpenCallCount >= b.cfg.HalfOpenMaxCalls {
			return ErrTooManyCallsInHalfOpen
		}
		b.halfOpenCallCount++
		return nil

	default:
		return fmt.Errorf("circuitbreaker: unknown state %v", b.state)
	}
}

func (b *breaker) afterCall(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if success {
		b.onSuccess()
	} else {
		b.onFailure()
	}
}

func (b *breaker) onSuccess() {
	switch b.state {
	case types.CircuitClosed:
		b.failureCount = 0
	case types.CircuitHalfOpen:
		b.halfOpenSuccessCount++
		if b.halfOpenSuccessCount >= b.cfg.SuccessThreshold {
			b.logger.Info("circuit recovered", zap.Int("half_open_successes", b.halfOpenSuccessCount))
			b.setState(types.CircuitClosed)
			b.failureCount = 0
			b.halfOpenCallCount = 0
			b.halfOpenSuccessCount = 0
		}
	case types.CircuitOpen:
		b.logger.Warn("circuit open received a success signal")
	}
}

func (b *breaker) onFailure() {
	b.failureCount++
	b.lastFailureTime = time.Now()

	switch b.state {
	case types.CircuitClosed:
		if b.failureCount >= b.cfg.Threshold {
			b.logger.Warn("circuit opening", zap.Int("failures", b.failureCount), zap.Int("threshold", b.cfg.Threshold))
			b.setState(types.CircuitOpen)
		}
	case types.CircuitHalfOpen:
		b.logger.Warn("circuit reopening after half-open failure")
		b.setState(types.CircuitOpen)
		b.halfOpenCallCount = 0
		b.halfOpenSuccessCount = 0
	case types.CircuitOpen:
		b.logger.Warn("circuit open received a failure signal")
	}
}

func (b *breaker) setState(newState types.CircuitState) {
	oldState := b.state
	b.state = newState
	if b.cfg.OnStateChange != nil {
		go b.cfg.OnStateChange(oldState, newState)
	}
}

func (b *breaker) State() types.CircuitState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

func (b *breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	old := b.state
	b.state = types.CircuitClosed
	b.failureCount = 0
	b.halfOpenCallCount = 0
	b.halfOpenSuccessCount = 0
	b.logger.Info("circuit manually reset", zap.String("from", old.String()))
	if b.cfg.OnStateChange != nil {
		go b.cfg.OnStateChange(old, types.CircuitClosed)
	}
}
