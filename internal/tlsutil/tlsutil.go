// Package tlsutil provides the hardened TLS configuration shared by the
// gateway's own outbound HTTP clients: one per adapter (tickets, wiki,
// chat, code, docs, web) plus the OpenAI-compatible LLM provider client.
// The Anthropic provider uses the SDK's own HTTP client instead.
package tlsutil

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// maxIdleConnsPerHost is raised above the net/http default of 2: the
// orchestrator dispatches to every enabled backend concurrently
// (orchestrator.orchestrator's bounded-parallel fan-out), so a single
// adapter's client routinely holds several simultaneous connections to
// its one vendor host.
const maxIdleConnsPerHost = 10

// DefaultTLSConfig returns a hardened TLS configuration: TLS 1.2+,
// AEAD-only cipher suites.
func DefaultTLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion: tls.VersionTLS12,
		CipherSuites: []uint16{
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
		},
	}
}

// SecureTransport returns an http.Transport with TLS hardening and
// per-host idle connection reuse tuned for a single-vendor adapter
// client.
func SecureTransport() *http.Transport {
	return &http.Transport{
		TLSClientConfig: DefaultTLSConfig(),
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   maxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// SecureHTTPClient returns an http.Client with TLS hardening. Drop-in
// replacement for &http.Client{Timeout: timeout}, used by every adapter
// and the OpenAI-compatible LLM provider client so their vendor calls do
// not fall back to Go's unhardened transport defaults.
func SecureHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: SecureTransport(),
	}
}
