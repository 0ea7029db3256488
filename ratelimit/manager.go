package ratelimit

import (
	"sync"

	"github.com/fedquery/gateway/types"
)

// Manager owns one Limiter per backend service, created lazily from a
// per-source Config map supplied at construction (typically sourced from
// config.Config.Services).
type Manager struct {
	mu       sync.RWMutex
	limiters map[types.Source]*Limiter
	configs  map[types.Source]Config
	fallback Config
}

// NewManager builds a Manager. configs maps a source to its tuned Config;
// sources absent from the map use fallback.
func NewManager(configs map[types.Source]Config, fallback Config) *Manager {
	return &Manager{
		limiters: make(map[types.Source]*Limiter),
		configs:  configs,
		fallback: fallback,
	}
}

// For returns the Limiter for source, creating it on first use.
func (m *Manager) For(source types.Source) *Limiter {
	m.mu.RLock()
	l, ok := m.limiters[source]
	m.mu.RUnlock()
	if ok {
		return l
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.limiters[source]; ok {
		return l
	}
	cfg, ok := m.configs[source]
	if !ok {
		cfg = m.fallback
	}
	l = New(cfg)
	m.limiters[source] = l
	return l
}

// Allow is a convenience wrapper around For(source).Allow().
func (m *Manager) Allow(source types.Source) error {
	return m.For(source).Allow()
}
