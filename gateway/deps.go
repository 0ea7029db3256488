package gateway

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/fedquery/gateway/config"
	"github.com/fedquery/gateway/internal/metrics"
	"github.com/fedquery/gateway/internal/pool"
	"github.com/fedquery/gateway/orchestrator"
	"github.com/fedquery/gateway/rag"
	"github.com/fedquery/gateway/router"
	"github.com/fedquery/gateway/store"
)

// Deps bundles every dependency the gateway's handlers need. cmd/gateway
// constructs one of these after wiring adapters, envelopes, the router,
// and the assembler.
type Deps struct {
	Config       *config.Config
	Orchestrator *orchestrator.Orchestrator
	Router       *router.Router
	Assembler    *rag.Assembler
	Store        store.Store
	Metrics      *metrics.Collector
	Logger       *zap.Logger

	// BackgroundPool runs chat-turn persistence off the request path. A
	// nil pool makes persistTurn fall back to a synchronous store write.
	BackgroundPool *pool.GoroutinePool

	// Version is reported by the root and /version endpoints.
	Version string
}

// Gateway holds Deps and exposes the HTTP surface as handler methods.
type Gateway struct {
	deps *Deps
}

// New builds a Gateway from deps.
func New(deps *Deps) *Gateway {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Gateway{deps: deps}
}

// skipAuthPaths lists routes that never require API key or JWT
// authentication: liveness/readiness probes a load balancer hits before
// any credential is available.
var skipAuthPaths = []string{"/", "/health", "/healthz", "/version"}

// NewRouter builds the full mux, wrapped in the gateway's middleware
// chain, ready to hand to an *internal/server.Manager.
func NewRouter(ctx context.Context, deps *Deps) http.Handler {
	gw := New(deps)
	cfg := deps.Config

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", gw.HandleRoot)
	mux.HandleFunc("GET /health", gw.HandleHealth)
	mux.HandleFunc("GET /healthz", gw.HandleHealth)
	mux.HandleFunc("GET /version", gw.HandleVersion)

	mux.HandleFunc("POST /api/settings", gw.HandlePostSettings)
	mux.HandleFunc("GET /api/settings/{user_id}", gw.HandleGetSettings)

	mux.HandleFunc("POST /api/chat", gw.HandleChat)
	mux.HandleFunc("POST /api/chat/stream", gw.HandleChatStream)
	mux.HandleFunc("GET /api/chat/history/{session_id}", gw.HandleChatHistory)
	mux.HandleFunc("DELETE /api/chat/history/{session_id}", gw.HandleClearHistory)

	mux.HandleFunc("GET /api/services", gw.HandleListServices)
	mux.HandleFunc("POST /api/services/{name}/enable", gw.HandleEnableService)
	mux.HandleFunc("POST /api/services/{name}/disable", gw.HandleDisableService)
	mux.HandleFunc("POST /api/test-connection", gw.HandleTestConnection)
	mux.HandleFunc("POST /api/test-integration/{name}", gw.HandleTestIntegration)
	mux.HandleFunc("GET /api/diagnostics", gw.HandleDiagnostics)

	chain := []Middleware{Recovery(deps.Logger), OTelTracing(), RequestID(), RequestLogger(deps.Logger)}
	if deps.Metrics != nil {
		chain = append(chain, MetricsMiddleware(deps.Metrics))
	}
	chain = append(chain,
		SecurityHeaders(),
		CORS(cfg.Server.CORSAllowedOrigins),
		RateLimiter(ctx, cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, deps.Logger),
		APIKeyAuth(cfg.Server.APIKeys, skipAuthPaths, deps.Logger),
		JWTAuth(cfg.JWT, append(append([]string{}, skipAuthPaths...), cfg.JWT.SkipPaths...), deps.Logger),
	)

	return Chain(mux, chain...)
}
