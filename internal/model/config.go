package model

import "time"

// Config holds the full application configuration. Values come from
// defaults, the config file, LEADSCOUT_* environment variables, and CLI
// flags, in increasing priority.
type Config struct {
	Provider ProviderConfig `yaml:"provider" json:"provider"`
	Planner  PlannerConfig  `yaml:"planner" json:"planner"`
	Cache    CacheConfig    `yaml:"cache" json:"cache"`
	Engine   EngineConfig   `yaml:"engine" json:"engine"`
	Output   OutputConfig   `yaml:"output" json:"output"`
}

// ProviderConfig configures the contact search provider client.
type ProviderConfig struct {
	BaseURL           string        `yaml:"base_url" json:"base_url"`
	APIKey            string        `yaml:"-" json:"-"` // From APOLLO_API_KEY, never persisted
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	RequestsPerMinute float64       `yaml:"requests_per_minute" json:"requests_per_minute"`
	Burst             int           `yaml:"burst" json:"burst"`
	HTTPProxy         string        `yaml:"http_proxy" json:"http_proxy,omitempty"`
	HTTPSProxy        string        `yaml:"https_proxy" json:"https_proxy,omitempty"`
}

// PlannerConfig configures the planning oracle.
type PlannerConfig struct {
	Provider   string        `yaml:"provider" json:"provider"`                 // "openai", "anthropic", "ollama"
	Model      string        `yaml:"model" json:"model"`
	APIKey     string        `yaml:"-" json:"-"`                               // From OPENAI_API_KEY / ANTHROPIC_API_KEY
	BaseURL    string        `yaml:"base_url" json:"base_url,omitempty"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
	MaxTokens  int           `yaml:"max_tokens" json:"max_tokens"`
	HTTPProxy  string        `yaml:"http_proxy" json:"http_proxy,omitempty"`
	HTTPSProxy string        `yaml:"https_proxy" json:"https_proxy,omitempty"`
}

// CacheConfig configures the in-memory provider response cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	TTL     time.Duration `yaml:"ttl" json:"ttl"`
}

// EngineConfig holds default run bounds, overridable per run via flags.
type EngineConfig struct {
	MaxRounds   int `yaml:"max_rounds" json:"max_rounds"`
	MinResults  int `yaml:"min_results" json:"min_results"`
	PerQueryCap int `yaml:"per_query_cap" json:"per_query_cap"`
}

// OutputConfig controls CLI output behavior.
type OutputConfig struct {
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			BaseURL:           "https://api.apollo.io",
			Timeout:           30 * time.Second,
			RequestsPerMinute: 60,
			Burst:             5,
		},
		Planner: PlannerConfig{
			Provider:  "openai",
			Timeout:   60 * time.Second,
			MaxTokens: 2000,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     15 * time.Minute,
		},
		Engine: EngineConfig{
			MaxRounds:   3,
			MinResults:  10,
			PerQueryCap: 25,
		},
	}
}
