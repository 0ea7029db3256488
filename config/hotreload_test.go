package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHotReloadManagerReloadsOnFileChange(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  http_port: 8080\n"), 0o644))

	loader := NewLoader().WithConfigPath(configPath)
	initial, err := loader.Load()
	require.NoError(t, err)

	m, err := NewHotReloadManager(loader, configPath, initial, zap.NewNop())
	require.NoError(t, err)

	reloaded := make(chan *Config, 1)
	m.OnReload(func(old, next *Config) { reloaded <- next })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Start(ctx))
	defer m.Stop()

	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  http_port: 9000\n"), 0o644))

	select {
	case next := <-reloaded:
		assert.Equal(t, 9000, next.Server.HTTPPort)
		assert.Equal(t, 9000, m.Current().Server.HTTPPort)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestHotReloadManagerKeepsPriorConfigOnParseError(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  http_port: 8080\n"), 0o644))

	loader := NewLoader().WithConfigPath(configPath)
	initial, err := loader.Load()
	require.NoError(t, err)

	m, err := NewHotReloadManager(loader, configPath, initial, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Start(ctx))
	defer m.Stop()

	require.NoError(t, os.WriteFile(configPath, []byte("server: [not valid yaml struct"), 0o644))
	time.Sleep(300 * time.Millisecond)

	assert.Equal(t, 8080, m.Current().Server.HTTPPort)
}
