package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 9091, cfg.Server.MetricsPort)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, float64(20), cfg.Server.RateLimitRPS)

	assert.False(t, cfg.JWT.Enabled)
	assert.Contains(t, cfg.JWT.SkipPaths, "/health")

	assert.Equal(t, "sqlite", cfg.Store.Driver)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Cache.EnableLocal)
	assert.True(t, cfg.Cache.EnableRedis)

	assert.Equal(t, "anthropic", cfg.LLM.DefaultProvider)
	assert.Nil(t, cfg.Services)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoaderLoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
}

func TestLoaderLoadFromYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
server:
  http_port: 8888
  read_timeout: 60s
  cors_allowed_origins:
    - https://intranet.example.com

store:
  driver: postgres
  dsn: "postgres://gateway@localhost/gateway"

llm:
  default_provider: "openai"
  router_model: "gpt-4o-mini"

services:
  - name: jira
    source: tickets
    enabled: true
    base_url: "https://issues.example.com"
    keywords: ["ticket", "bug"]
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"https://intranet.example.com"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "openai", cfg.LLM.DefaultProvider)
	require.Len(t, cfg.Services, 1)
	assert.Equal(t, "jira", cfg.Services[0].Name)
	// Fields absent from the YAML keep their defaults rather than zeroing.
	assert.Equal(t, 9091, cfg.Server.MetricsPort)
}

func TestLoaderMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/nonexistent/path/config.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
}

func TestLoaderEnvOverride(t *testing.T) {
	t.Setenv("GATEWAY_SERVER_HTTP_PORT", "9999")
	t.Setenv("GATEWAY_LOG_LEVEL", "debug")
	t.Setenv("GATEWAY_JWT_ENABLED", "true")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.HTTPPort)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.JWT.Enabled)
}

func TestLoaderEnvOverridesAfterYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  http_port: 8888\n"), 0o644))

	t.Setenv("GATEWAY_SERVER_HTTP_PORT", "7777")

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Server.HTTPPort)
}

func TestLoaderWithValidatorRejectsBadConfig(t *testing.T) {
	_, err := NewLoader().WithValidator(func(c *Config) error {
		return c.Validate()
	}).WithValidator(func(c *Config) error {
		c.Server.HTTPPort = -1
		return c.Validate()
	}).Load()
	assert.Error(t, err)
}

func TestValidateRejectsUnsupportedStoreDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Driver = "mysql"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsJWTEnabledWithoutCredentials(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JWT.Enabled = true
	assert.Error(t, cfg.Validate())
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}
