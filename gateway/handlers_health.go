package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/fedquery/gateway/internal/database"
)

type rootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

// HandleRoot answers bare liveness: the process is up and accepting
// connections. It makes no claim about backend or database health.
func (g *Gateway) HandleRoot(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, rootResponse{
		Message: "federated query gateway",
		Version: g.deps.Version,
	})
}

type versionResponse struct {
	Version string `json:"version"`
}

// HandleVersion reports the running build's version string.
func (g *Gateway) HandleVersion(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, versionResponse{Version: g.deps.Version})
}

type healthResponse struct {
	Status       string             `json:"status"`
	Orchestrator string             `json:"orchestrator"`
	Database     string             `json:"database"`
	Pool         database.PoolStats `json:"pool,omitempty"`
}

// HandleHealth is the readiness probe: it reports whether the
// orchestrator has any enabled, reachable backend and whether the store
// answers a query. Either degraded condition still returns 200 — a
// gateway with zero reachable backends can still serve chat from history
// alone per the assembler's no-evidence fallback.
func (g *Gateway) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orchStatus := "ok"
	if g.deps.Orchestrator != nil {
		statuses := g.deps.Orchestrator.RefreshHealth(ctx)
		if len(statuses) == 0 {
			orchStatus = "degraded"
		} else {
			healthy := 0
			for _, s := range statuses {
				if s.Health.Status == "healthy" {
					healthy++
				}
			}
			if healthy == 0 {
				orchStatus = "degraded"
			}
		}
	} else {
		orchStatus = "degraded"
	}

	dbStatus := "ok"
	var poolStats database.PoolStats
	if g.deps.Store == nil {
		dbStatus = "unavailable"
	} else if _, _, err := g.deps.Store.GetSettings(ctx, "__healthcheck__"); err != nil {
		dbStatus = "unavailable"
	} else {
		poolStats = g.deps.Store.PoolStats()
	}

	overall := "healthy"
	if orchStatus != "ok" || dbStatus != "ok" {
		overall = "degraded"
	}

	WriteJSON(w, http.StatusOK, healthResponse{
		Status:       overall,
		Orchestrator: orchStatus,
		Database:     dbStatus,
		Pool:         poolStats,
	})
}
