package types

// CircuitState is the three-state lifecycle of a circuit breaker.
type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half_open"
)

func (s CircuitState) String() string { return string(s) }

// ServiceMetricsSnapshot is a point-in-time view of one integration
// service's health, returned by the diagnostics endpoint.
type ServiceMetricsSnapshot struct {
	Source        Source       `json:"source"`
	Requests      int64        `json:"requests"`
	Failures      int64        `json:"failures"`
	CacheHits     int64        `json:"cache_hits"`
	CacheMisses   int64        `json:"cache_misses"`
	AvgLatencyMs  float64      `json:"avg_latency_ms"`
	CircuitState  CircuitState `json:"circuit_state"`
	Enabled       bool         `json:"enabled"`
	LastError     string       `json:"last_error,omitempty"`
}

// HealthStatus is the aggregate health payload served at /api/diagnostics.
type HealthStatus struct {
	Status  string                   `json:"status"` // "healthy", "degraded", "unhealthy"
	Checks  map[string]string        `json:"checks"`
	Metrics []ServiceMetricsSnapshot `json:"metrics,omitempty"`
}
