package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fedquery/gateway/config"
)

func newTestServerConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Store.DSN = dir + "/test.db"
	cfg.Store.HealthCheckInterval = 0
	cfg.Redis.Addr = ""
	cfg.Cache.EnableRedis = false
	cfg.LLM.Timeout = time.Second
	// Port 0 asks the kernel for an ephemeral port, so parallel test runs
	// never collide on a fixed listener address.
	cfg.Server.HTTPPort = 0
	cfg.Server.MetricsPort = 0
	return cfg
}

func TestNewServer_BuildsBothListeners(t *testing.T) {
	srv, err := NewServer(newTestServerConfig(t), "test-version", zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, srv)
	require.NotNil(t, srv.main)
	require.NotNil(t, srv.metrics)

	defer srv.Shutdown(context.Background())
	require.NoError(t, srv.Start())

	assert.NotEqual(t, ":0", srv.main.ListenerAddr(), "ephemeral port must resolve to the one the OS assigned")
	assert.NotEqual(t, ":0", srv.metrics.ListenerAddr())
}

func TestServer_StartAndShutdown(t *testing.T) {
	srv, err := NewServer(newTestServerConfig(t), "test-version", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, srv.Start())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, srv.Shutdown(ctx))
}

func TestServer_ShutdownIsIdempotent(t *testing.T) {
	srv, err := NewServer(newTestServerConfig(t), "test-version", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, srv.Start())

	ctx := context.Background()
	require.NoError(t, srv.Shutdown(ctx))
	// Shutting the metrics listener down again after Server.Shutdown must
	// not panic; Manager.Shutdown tolerates repeat calls.
	assert.NotPanics(t, func() { srv.metrics.Shutdown(ctx) })
}
