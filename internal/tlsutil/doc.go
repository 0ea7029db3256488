// Package tlsutil provides centralized TLS configuration shared by the
// gateway's HTTP clients, HTTP servers, and Redis connections: TLS 1.2+
// with AEAD-only cipher suites, plus client transport tuning for the
// orchestrator's concurrent per-backend fan-out.
package tlsutil
