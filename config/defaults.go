// =============================================================================
// Gateway default configuration
// =============================================================================
// Provides sensible defaults for every configuration section.
// =============================================================================
package config

import (
	"time"

	"github.com/fedquery/gateway/store"
)

// DefaultConfig returns the gateway's baked-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		JWT:       DefaultJWTConfig(),
		Store:     DefaultStoreConfig(),
		Redis:     DefaultRedisConfig(),
		Cache:     DefaultCacheConfig(),
		LLM:       DefaultLLMConfig(),
		Services:  nil,
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig returns the default HTTP listener configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:           8080,
		MetricsPort:        9091,
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       30 * time.Second,
		ShutdownTimeout:    15 * time.Second,
		RateLimitRPS:       20,
		RateLimitBurst:     40,
		CORSAllowedOrigins: nil,
		APIKeys:            nil,
	}
}

// DefaultJWTConfig returns JWT auth disabled.
func DefaultJWTConfig() JWTConfig {
	return JWTConfig{
		Enabled:   false,
		SkipPaths: []string{"/", "/health", "/metrics"},
	}
}

// DefaultStoreConfig returns an in-process SQLite file store, mirroring
// internal/database's own pool defaults.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Driver:              store.DriverSQLite,
		DSN:                 "gateway.db",
		MaxIdleConns:        10,
		MaxOpenConns:        100,
		ConnMaxLifetime:     time.Hour,
		ConnMaxIdleTime:     10 * time.Minute,
		HealthCheckInterval: 30 * time.Second,
	}
}

// DefaultRedisConfig returns a local Redis instance at its standard port.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// DefaultCacheConfig mirrors cache.DefaultConfig's tuning.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		LocalMaxSize: 2000,
		LocalTTL:     30 * time.Second,
		RedisTTL:     10 * time.Minute,
		EnableLocal:  true,
		EnableRedis:  true,
	}
}

// DefaultLLMConfig returns the default LLM provider configuration.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		DefaultProvider: "anthropic",
		APIKey:          "",
		BaseURL:         "",
		Timeout:         2 * time.Minute,
		MaxRetries:      3,
		RouterModel:     "claude-3-5-haiku-latest",
		AnswerModel:     "claude-3-5-sonnet-latest",
	}
}

// DefaultLogConfig returns the default zap logging configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig returns tracing disabled by default.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "fedquery-gateway",
		SampleRate:   0.1,
	}
}
