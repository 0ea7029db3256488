// =============================================================================
// Gateway configuration loader
// =============================================================================
// Unified config loading: YAML file + environment variable overrides.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("GATEWAY").
//	    Load()
//
// Precedence: defaults -> YAML file -> environment variables
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fedquery/gateway/store"
	"github.com/fedquery/gateway/types"
)

// =============================================================================
// Core configuration structure
// =============================================================================

// Config is the gateway's complete configuration tree.
type Config struct {
	// Server controls the HTTP listener, middleware, and admission
	// control.
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// JWT configures bearer-token authentication on the HTTP surface.
	JWT JWTConfig `yaml:"jwt" env:"JWT"`

	// Store configures the KV store backing settings and chat history.
	Store StoreConfig `yaml:"store" env:"STORE"`

	// Redis backs the cache package's L2 layer.
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Cache tunes the two cache layers independently of the Redis
	// connection itself.
	Cache CacheConfig `yaml:"cache" env:"CACHE"`

	// LLM configures the provider shared by the router's Tier B
	// classifier and the RAG answer assembler.
	LLM LLMConfig `yaml:"llm" env:"LLM"`

	// Services lists the backend knowledge services the orchestrator
	// fans queries out to. Env override does not reach into this slice;
	// it is YAML/API managed only.
	Services []types.ServiceConfig `yaml:"services"`

	// Log configures the zap logger.
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry configures OpenTelemetry tracing export.
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig configures the HTTP listener and its middleware chain.
type ServerConfig struct {
	// HTTPPort is the main API listener port.
	HTTPPort int `yaml:"http_port" env:"HTTP_PORT"`
	// MetricsPort serves /metrics on its own listener.
	MetricsPort int `yaml:"metrics_port" env:"METRICS_PORT"`
	// ReadTimeout bounds request reads.
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// WriteTimeout bounds response writes. It applies to SSE streams as
	// well: nothing lifts the write deadline while a stream is open.
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// RateLimitRPS is the steady-state per-IP request rate.
	RateLimitRPS float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	// RateLimitBurst is the per-IP burst allowance.
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	// CORSAllowedOrigins lists origins allowed cross-origin access. An
	// empty list disables CORS headers entirely rather than defaulting
	// to a wildcard.
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	// APIKeys, if non-empty, requires one of these values on the
	// X-API-Key header or api_key query parameter, in addition to any
	// JWT requirement.
	APIKeys []string `yaml:"api_keys" env:"API_KEYS"`
}

// JWTConfig configures bearer-token validation. Enabled alone switches JWT
// auth on or off; Validate rejects an enabled config that leaves both
// Secret and PublicKey empty.
type JWTConfig struct {
	// Enabled turns on the JWTAuth middleware.
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// Secret is the HS256 signing secret.
	Secret string `yaml:"secret" env:"SECRET"`
	// PublicKey is a PEM-encoded RSA public key for RS256 verification.
	PublicKey string `yaml:"public_key" env:"PUBLIC_KEY"`
	// Issuer, if set, is required to match the token's iss claim.
	Issuer string `yaml:"issuer" env:"ISSUER"`
	// Audience, if set, is required to match the token's aud claim.
	Audience string `yaml:"audience" env:"AUDIENCE"`
	// SkipPaths lists request paths exempt from JWT validation.
	SkipPaths []string `yaml:"skip_paths" env:"SKIP_PATHS"`
}

// StoreConfig selects and configures the KV store's backing database.
type StoreConfig struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string `yaml:"driver" env:"DRIVER"`
	// DSN is a file path for sqlite, a connection string for postgres.
	DSN string `yaml:"dsn" env:"DSN"`
	// MaxIdleConns bounds the underlying sql.DB's idle connection pool.
	MaxIdleConns int `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	// MaxOpenConns bounds the underlying sql.DB's total connection pool.
	MaxOpenConns int `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	// ConnMaxLifetime recycles a connection after it's been open this long.
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
	// ConnMaxIdleTime closes a connection idle longer than this.
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" env:"CONN_MAX_IDLE_TIME"`
	// HealthCheckInterval is how often the pool pings the database in the
	// background; zero disables the background health-check loop.
	HealthCheckInterval time.Duration `yaml:"health_check_interval" env:"HEALTH_CHECK_INTERVAL"`
}

// RedisConfig configures the client backing the cache's L2 layer.
type RedisConfig struct {
	Addr         string `yaml:"addr" env:"ADDR"`
	Password     string `yaml:"password" env:"PASSWORD"`
	DB           int    `yaml:"db" env:"DB"`
	PoolSize     int    `yaml:"pool_size" env:"POOL_SIZE"`
	MinIdleConns int    `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
}

// CacheConfig tunes the two cache layers independently of the Redis
// connection parameters.
type CacheConfig struct {
	LocalMaxSize int           `yaml:"local_max_size" env:"LOCAL_MAX_SIZE"`
	LocalTTL     time.Duration `yaml:"local_ttl" env:"LOCAL_TTL"`
	RedisTTL     time.Duration `yaml:"redis_ttl" env:"REDIS_TTL"`
	EnableLocal  bool          `yaml:"enable_local" env:"ENABLE_LOCAL"`
	EnableRedis  bool          `yaml:"enable_redis" env:"ENABLE_REDIS"`
}

// LLMConfig configures the provider shared by the query router's Tier B
// classifier and the RAG answer assembler.
type LLMConfig struct {
	// DefaultProvider selects which registered llm.Provider to use.
	DefaultProvider string `yaml:"default_provider" env:"DEFAULT_PROVIDER"`
	// APIKey authenticates against the provider.
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// BaseURL overrides the provider's default endpoint.
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// Timeout bounds a single completion call.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// MaxRetries bounds retries on a failed completion call.
	MaxRetries int `yaml:"max_retries" env:"MAX_RETRIES"`
	// RouterModel is the model used for Tier B intent classification.
	RouterModel string `yaml:"router_model" env:"ROUTER_MODEL"`
	// AnswerModel is the model used for RAG answer generation, absent an
	// override in a user's persisted Settings.AnswerModel.
	AnswerModel string `yaml:"answer_model" env:"ANSWER_MODEL"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format is json or console.
	Format string `yaml:"format" env:"FORMAT"`
	// OutputPaths lists zap sink targets.
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// EnableCaller adds caller file:line to each entry.
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// EnableStacktrace adds a stacktrace to Error-and-above entries.
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig configures OpenTelemetry trace export.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	ServiceName  string  `yaml:"service_name" env:"SERVICE_NAME"`
	SampleRate   float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// =============================================================================
// Loader
// =============================================================================

// Loader loads a Config using the builder pattern.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a loader with the default "GATEWAY" env prefix.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "GATEWAY",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath sets the YAML file path to read.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix overrides the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator registers an additional validation function.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load builds a Config: defaults, then YAML file, then environment
// overrides, then validators.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv recurses over struct fields, applying an environment
// override to any leaf field whose env tag resolves to a set variable.
// Slice-of-struct fields (Services) have no env tag and are skipped.
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// MustLoad loads a Config and panics on failure.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv loads a Config from environment variables only.
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate checks the subset of fields that must hold for the server to
// start at all; deeper per-service validation lives in the orchestrator's
// registration path.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		errs = append(errs, "invalid metrics port")
	}
	if c.JWT.Enabled && c.JWT.Secret == "" && c.JWT.PublicKey == "" {
		errs = append(errs, "jwt enabled but neither secret nor public_key is set")
	}
	switch c.Store.Driver {
	case store.DriverSQLite, store.DriverPostgres:
	default:
		errs = append(errs, fmt.Sprintf("unsupported store driver %q", c.Store.Driver))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
