package types

import "time"

// ServiceConfig describes one backend knowledge service's reachability,
// credentials, and per-service tuning knobs. It is the unit the admin
// enable/disable endpoints and the config loader both operate on.
type ServiceConfig struct {
	Name       string          `yaml:"name" json:"name"`
	Source     Source          `yaml:"source" json:"source"`
	Enabled    bool            `yaml:"enabled" json:"enabled"`
	BaseURL    string          `yaml:"base_url" json:"base_url"`
	APIKey     string          `yaml:"api_key" json:"-"`
	// Priority orders this service among its peers; lower is preferred,
	// both when ranking keyword matches and when falling back to the
	// top-N enabled services.
	Priority   int             `yaml:"priority" json:"priority"`
	// Keywords are the substrings that route a lowercased query to this
	// service during keyword-based source selection.
	Keywords   []string        `yaml:"keywords" json:"keywords"`
	Timeout    time.Duration   `yaml:"timeout" json:"timeout"`
	RateLimit  RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	CacheTTL   time.Duration   `yaml:"cache_ttl" json:"cache_ttl"`
	MaxRetries int             `yaml:"max_retries" json:"max_retries"`
}

// RateLimitConfig configures one service's admission control.
type RateLimitConfig struct {
	RequestsPerSecond float64       `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int           `yaml:"burst" json:"burst"`
	WindowSize        time.Duration `yaml:"window_size" json:"window_size"`
	WindowMax         int           `yaml:"window_max" json:"window_max"`
}

// Settings holds one user's runtime settings, stored in the KV store under
// that user's ID and read and written through /api/settings.
type Settings struct {
	DefaultSources   []Source `json:"default_sources"`
	MaxResultsPerSrc int      `json:"max_results_per_source"`
	RankingEnabled   bool     `json:"ranking_enabled"`
	AnswerModel      string   `json:"answer_model"`
}

// DefaultSettings returns the gateway's baked-in settings, used when the
// KV store has no override persisted yet.
func DefaultSettings() Settings {
	return Settings{
		DefaultSources:   AllSources(),
		MaxResultsPerSrc: 10,
		RankingEnabled:   true,
		AnswerModel:      "",
	}
}
