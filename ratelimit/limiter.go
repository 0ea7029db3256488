// Package ratelimit implements the gateway's per-service admission
// control: a token bucket (golang.org/x/time/rate) for steady-state
// throughput, a sliding window counter for burst caps the bucket alone
// can't express, and an adaptive extension that widens or narrows
// admission based on the service's own observed success/rate_limited
// outcomes instead of just the limiter's local state.
//
// Grounded on agentflow's llm/tools rate limiter (per-tool token-bucket
// admission before a tool call), generalized from per-tool to per-service
// scope, and on the pack's gateway-service rate limiter for the
// sliding-window + adaptive-backoff combination.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/fedquery/gateway/types"
)

// adjustmentInterval is the fixed window the adaptive extension uses to
// tally success/rate_limited outcomes before re-evaluating the sliding
// window cap.
const adjustmentInterval = 60 * time.Second

// maxBackoff caps the exponential backoff applied after a rate-limited
// outcome that carries no explicit retry_after hint.
const maxBackoff = 60 * time.Second

// Config tunes one service's admission control.
type Config struct {
	RequestsPerSecond float64
	Burst             int
	WindowSize        time.Duration
	WindowMax         int
}

// DefaultConfig returns defaults suited to a moderately-trafficked
// backend knowledge service.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 10,
		Burst:             20,
		WindowSize:        time.Second,
		WindowMax:         30,
	}
}

// Outcome classifies a completed upstream call for the adaptive
// extension. The circuit breaker is the only place that observes a
// 429-like response, so it is the one that reports OutcomeRateLimited
// back into the limiter it guards.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRateLimited
)

// Limiter is a single service's admission gate.
type Limiter struct {
	cfg    Config
	bucket *rate.Limiter

	mu                 sync.Mutex
	windowStart        time.Time
	windowCount        int
	effectiveWindowMax int

	penaltyUntil time.Time
	errorStreak  int

	adjustStart       time.Time
	adjustTotal       int
	adjustRateLimited int
}

// New creates a Limiter for one backend service.
func New(cfg Config) *Limiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RequestsPerSecond) * 2
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = time.Second
	}
	if cfg.WindowMax <= 0 {
		cfg.WindowMax = cfg.Burst
	}
	now := time.Now()
	return &Limiter{
		cfg:                cfg,
		bucket:             rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		windowStart:        now,
		effectiveWindowMax: cfg.WindowMax,
		adjustStart:        now,
	}
}

// Allow reports whether a call may proceed now, admitting it (consuming
// a token / incrementing the window count) if so. Returns a *types.Error
// with ErrRateLimited and a RetryAfter-equivalent hint when rejected. It
// never blocks; callers that want to wait out a temporary exhaustion
// instead of failing immediately should use Wait.
func (l *Limiter) Allow() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Before(l.penaltyUntil) {
		return l.rateLimitedError(l.penaltyUntil.Sub(now))
	}

	l.rollWindow(now)
	if l.windowCount >= l.effectiveWindowMax {
		return l.rateLimitedError(l.cfg.WindowSize - now.Sub(l.windowStart))
	}

	if !l.bucket.Allow() {
		return l.rateLimitedError(time.Duration(float64(time.Second) / float64(l.cfg.RequestsPerSecond)))
	}

	l.windowCount++
	return nil
}

// Wait blocks until a call may proceed or ctx is canceled, sleeping at
// most one second between admission checks so a long window or penalty
// is waited out in steps of one second or less.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := time.Now()

		if now.Before(l.penaltyUntil) {
			wait := l.penaltyUntil.Sub(now)
			l.mu.Unlock()
			if err := sleepOrDone(ctx, capAtOneSecond(wait)); err != nil {
				return err
			}
			continue
		}

		l.rollWindow(now)
		if l.windowCount >= l.effectiveWindowMax {
			wait := l.cfg.WindowSize - now.Sub(l.windowStart)
			l.mu.Unlock()
			if err := sleepOrDone(ctx, capAtOneSecond(wait)); err != nil {
				return err
			}
			continue
		}
		l.mu.Unlock()

		if err := l.bucket.Wait(ctx); err != nil {
			return err
		}

		l.mu.Lock()
		l.windowCount++
		l.mu.Unlock()
		return nil
	}
}

// RecordOutcome feeds a completed call's outcome into the adaptive
// extension: it tallies success/rate_limited counts over a 60s
// adjustment interval, tightens the sliding-window cap to 80% of
// configured when the interval's error rate exceeds 10%, and applies a
// penalty window after a rate-limited outcome, honoring an explicit
// retry_after hint when one is given and otherwise backing off
// min(60, 2^error_count) seconds. A clean interval restores the window
// cap and clears any lingering penalty.
func (l *Limiter) RecordOutcome(outcome Outcome, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.tickAdjustmentWindow(now)
	l.adjustTotal++

	switch outcome {
	case OutcomeRateLimited:
		l.adjustRateLimited++
		l.errorStreak++
		if retryAfter > 0 {
			l.penaltyUntil = now.Add(retryAfter)
			return
		}
		backoff := time.Duration(pow2(l.errorStreak-1)) * time.Second
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		l.penaltyUntil = now.Add(backoff)
	case OutcomeSuccess:
		l.errorStreak = 0
	}
}

func (l *Limiter) rollWindow(now time.Time) {
	if now.Sub(l.windowStart) > l.cfg.WindowSize {
		l.windowStart = now
		l.windowCount = 0
	}
}

// tickAdjustmentWindow closes out the current 60s interval once it has
// elapsed.
func (l *Limiter) tickAdjustmentWindow(now time.Time) {
	if l.adjustStart.IsZero() {
		l.adjustStart = now
		return
	}
	if now.Sub(l.adjustStart) < adjustmentInterval {
		return
	}

	if l.adjustTotal > 0 && float64(l.adjustRateLimited)/float64(l.adjustTotal) > 0.10 {
		reduced := int(float64(l.cfg.WindowMax) * 0.80)
		if reduced < 1 {
			reduced = 1
		}
		l.effectiveWindowMax = reduced
	} else {
		l.effectiveWindowMax = l.cfg.WindowMax
		l.penaltyUntil = time.Time{}
		l.errorStreak = 0
	}

	l.adjustStart = now
	l.adjustTotal = 0
	l.adjustRateLimited = 0
}

func (l *Limiter) rateLimitedError(d time.Duration) error {
	if d < 0 {
		d = 0
	}
	return types.NewError(types.ErrRateLimited, "rate limit exceeded").WithRetryAfter(d)
}

func capAtOneSecond(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	if d > time.Second {
		return time.Second
	}
	return d
}

func sleepOrDone(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func pow2(n int) float64 {
	if n <= 0 {
		return 1
	}
	v := 1.0
	for i := 0; i < n; i++ {
		v *= 2
	}
	return v
}

// RetryAfter extracts the suggested backoff from a rate-limit error
// (either the limiter's own computed penalty or a vendor-supplied hint
// an adapter attached), or zero if err doesn't carry one.
func RetryAfter(err error) time.Duration {
	var gwErr *types.Error
	if !types.AsError(err, &gwErr) {
		return 0
	}
	return gwErr.RetryAfter
}
