package gateway

import (
	"fmt"
	"net/http"

	"github.com/fedquery/gateway/orchestrator"
	"github.com/fedquery/gateway/types"
)

type serviceStatusResponse struct {
	Enabled  bool   `json:"enabled"`
	URL      string `json:"url"`
	Status   string `json:"status"`
	Priority int    `json:"priority"`
}

// HandleListServices reports every registered backend's configuration
// and last-known health, keyed by service name.
func (g *Gateway) HandleListServices(w http.ResponseWriter, r *http.Request) {
	statuses := g.deps.Orchestrator.ListServices()
	out := make(map[string]serviceStatusResponse, len(statuses))
	for _, s := range statuses {
		out[s.Config.Name] = serviceStatusResponse{
			Enabled:  s.Config.Enabled,
			URL:      s.Config.BaseURL,
			Status:   s.Health.Status,
			Priority: s.Config.Priority,
		}
	}
	WriteJSON(w, http.StatusOK, out)
}

// findService looks up a registered service's current status by its
// configured name (not its Source key, which is an internal enum).
func (g *Gateway) findService(name string) (orchestrator.ServiceStatus, bool) {
	for _, s := range g.deps.Orchestrator.ListServices() {
		if s.Config.Name == name {
			return s, true
		}
	}
	return orchestrator.ServiceStatus{}, false
}

type enableDisableResponse struct {
	Status string `json:"status"`
}

// HandleEnableService turns a registered service on.
func (g *Gateway) HandleEnableService(w http.ResponseWriter, r *http.Request) {
	g.setServiceEnabled(w, r, true)
}

// HandleDisableService turns a registered service off; the router and
// orchestrator stop selecting it for dispatch.
func (g *Gateway) HandleDisableService(w http.ResponseWriter, r *http.Request) {
	g.setServiceEnabled(w, r, false)
}

func (g *Gateway) setServiceEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	name := r.PathValue("name")
	svc, ok := g.findService(name)
	if !ok {
		WriteErrorMessage(w, types.ErrInvalidInput, "unknown service "+name, g.deps.Logger)
		return
	}
	if err := g.deps.Orchestrator.SetEnabled(svc.Config.Source, enabled); err != nil {
		WriteErrorMessage(w, types.ErrInvalidInput, err.Error(), g.deps.Logger)
		return
	}
	WriteJSON(w, http.StatusOK, enableDisableResponse{Status: "ok"})
}

type integrationProbeResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HandleTestConnection probes every registered service's health and
// reports per-service status, used to validate newly entered credentials
// before they're saved.
func (g *Gateway) HandleTestConnection(w http.ResponseWriter, r *http.Request) {
	statuses := g.deps.Orchestrator.RefreshHealth(r.Context())
	out := make(map[string]integrationProbeResult, len(statuses))
	for _, s := range statuses {
		out[s.Config.Name] = probeResultFromHealth(s)
	}
	WriteJSON(w, http.StatusOK, out)
}

// HandleTestIntegration probes a single named service.
func (g *Gateway) HandleTestIntegration(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	svc, ok := g.findService(name)
	if !ok {
		WriteErrorMessage(w, types.ErrInvalidInput, "unknown service "+name, g.deps.Logger)
		return
	}
	statuses := g.deps.Orchestrator.RefreshHealth(r.Context())
	for _, s := range statuses {
		if s.Config.Name == svc.Config.Name {
			WriteJSON(w, http.StatusOK, probeResultFromHealth(s))
			return
		}
	}
	WriteJSON(w, http.StatusOK, probeResultFromHealth(svc))
}

func probeResultFromHealth(s orchestrator.ServiceStatus) integrationProbeResult {
	if s.Health.Status == "healthy" {
		return integrationProbeResult{Status: "ok", Message: "reachable"}
	}
	msg := s.Health.Metrics.LastError
	if msg == "" {
		msg = "service is " + s.Health.Status
	}
	return integrationProbeResult{Status: s.Health.Status, Message: msg}
}

// HandleDiagnostics reports a types.HealthStatus built from a fresh round
// of health checks across every registered service, recording the
// circuit-breaker state into the metrics collector as it goes.
func (g *Gateway) HandleDiagnostics(w http.ResponseWriter, r *http.Request) {
	statuses := g.deps.Orchestrator.RefreshHealth(r.Context())

	overall := "healthy"
	checks := make(map[string]string, len(statuses))
	metricsOut := make([]types.ServiceMetricsSnapshot, 0, len(statuses))

	for _, s := range statuses {
		checks[s.Config.Name] = s.Health.Status
		if s.Health.Status != "healthy" {
			overall = "degraded"
		}

		avgLatencyMs := float64(s.Health.Metrics.LastLatency.Milliseconds())
		metricsOut = append(metricsOut, types.ServiceMetricsSnapshot{
			Source:       s.Config.Source,
			Requests:     s.Health.Metrics.Successes + s.Health.Metrics.Failures,
			Failures:     s.Health.Metrics.Failures,
			CacheHits:    s.Health.Metrics.CacheHits,
			CacheMisses:  s.Health.Metrics.CacheMiss,
			AvgLatencyMs: avgLatencyMs,
			CircuitState: s.Health.CircuitState,
			Enabled:      s.Config.Enabled,
			LastError:    s.Health.Metrics.LastError,
		})

		if g.deps.Metrics != nil {
			g.deps.Metrics.ApplyServiceSnapshot(string(s.Config.Source), s.Health.CircuitState.String())
		}
	}

	status := types.HealthStatus{
		Status:  overall,
		Checks:  checks,
		Metrics: metricsOut,
	}
	if g.deps.Router != nil {
		if cacheStats, err := g.deps.Router.ClassifyCacheStats(r.Context()); err == nil && cacheStats != nil {
			checks["classify_cache"] = fmt.Sprintf("hits=%d misses=%d keys=%d", cacheStats.Hits, cacheStats.Misses, cacheStats.Keys)
		}
	}
	if g.deps.BackgroundPool != nil {
		s := g.deps.BackgroundPool.Stats()
		checks["background_pool"] = fmt.Sprintf("workers=%d active=%d queued=%d rejected=%d", s.Workers, s.Active, s.Queued, s.Rejected)
	}

	WriteJSON(w, http.StatusOK, status)
}
