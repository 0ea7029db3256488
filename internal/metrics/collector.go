// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// Collector
// =============================================================================

// Collector holds every Prometheus metric the gateway records, scoped to
// the HTTP surface, the per-backend integration envelopes, the LLM
// provider calls (router Tier B + RAG assembler), and the KV store.
type Collector struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	serviceRequestsTotal *prometheus.CounterVec
	serviceFailuresTotal *prometheus.CounterVec
	serviceCacheHits     *prometheus.CounterVec
	serviceCacheMisses   *prometheus.CounterVec
	serviceLatency       *prometheus.HistogramVec
	serviceCircuitState  *prometheus.GaugeVec

	llmRequestsTotal   *prometheus.CounterVec
	llmRequestDuration *prometheus.HistogramVec

	dbQueryDuration *prometheus.HistogramVec

	logger *zap.Logger
}

// circuitStateValue maps a types.CircuitState string to the gauge value
// the serviceCircuitState metric exports (0=closed, 1=half_open, 2=open),
// matching Prometheus's convention of an ordinal gauge for enum states.
func circuitStateValue(state string) float64 {
	switch state {
	case "open":
		return 2
	case "half_open":
		return 1
	default:
		return 0
	}
}

// NewCollector registers every gateway metric under namespace and returns
// the collector used to record them.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.serviceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_requests_total",
			Help:      "Total number of backend knowledge service search calls",
		},
		[]string{"source"},
	)

	c.serviceFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_failures_total",
			Help:      "Total number of failed backend knowledge service search calls",
		},
		[]string{"source"},
	)

	c.serviceCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_cache_hits_total",
			Help:      "Total number of integration envelope cache hits",
		},
		[]string{"source"},
	)

	c.serviceCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_cache_misses_total",
			Help:      "Total number of integration envelope cache misses",
		},
		[]string{"source"},
	)

	c.serviceLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "service_call_duration_seconds",
			Help:      "Backend knowledge service call duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"source"},
	)

	c.serviceCircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "service_circuit_state",
			Help:      "Circuit breaker state per backend service (0=closed, 1=half_open, 2=open)",
		},
		[]string{"source"},
	)

	c.llmRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM provider calls (router classification, answer generation)",
		},
		[]string{"provider", "model", "purpose", "status"},
	)

	c.llmRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "LLM provider call duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "model", "purpose"},
	)

	c.dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_query_duration_seconds",
			Help:      "KV store query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// RecordHTTPRequest records one completed HTTP request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordServiceCall records one backend knowledge service call's outcome.
func (c *Collector) RecordServiceCall(source string, ok bool, duration time.Duration) {
	c.serviceRequestsTotal.WithLabelValues(source).Inc()
	if !ok {
		c.serviceFailuresTotal.WithLabelValues(source).Inc()
	}
	c.serviceLatency.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordServiceCacheHit records one integration envelope cache hit.
func (c *Collector) RecordServiceCacheHit(source string) {
	c.serviceCacheHits.WithLabelValues(source).Inc()
}

// RecordServiceCacheMiss records one integration envelope cache miss.
func (c *Collector) RecordServiceCacheMiss(source string) {
	c.serviceCacheMisses.WithLabelValues(source).Inc()
}

// RecordServiceCircuitState sets the current circuit breaker state gauge
// for one backend service.
func (c *Collector) RecordServiceCircuitState(source, state string) {
	c.serviceCircuitState.WithLabelValues(source).Set(circuitStateValue(state))
}

// RecordLLMRequest records one LLM provider call. purpose is "router" or
// "assembler".
func (c *Collector) RecordLLMRequest(provider, model, purpose, status string, duration time.Duration) {
	c.llmRequestsTotal.WithLabelValues(provider, model, purpose, status).Inc()
	c.llmRequestDuration.WithLabelValues(provider, model, purpose).Observe(duration.Seconds())
}

// RecordStoreQuery records one KV store operation's duration.
func (c *Collector) RecordStoreQuery(operation string, duration time.Duration) {
	c.dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ApplyServiceSnapshot mirrors an orchestrator.ServiceStatus health
// snapshot into the circuit-state gauge; call periodically after
// Orchestrator.RefreshHealth.
func (c *Collector) ApplyServiceSnapshot(source string, circuitState string) {
	c.RecordServiceCircuitState(source, circuitState)
}

func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
