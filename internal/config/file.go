package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file structure.
// Pointer fields distinguish "absent" from zero values so env and
// defaults can take over cleanly.
type FileConfig struct {
	ServerPort   string `toml:"server_port"`
	LogLevel     string `toml:"log_level"`
	DatabasePath string `toml:"database_path"`
	PricingFile  string `toml:"pricing_file"`

	DefaultModel   string `toml:"default_model"`
	FallbackModel  string `toml:"fallback_model"`
	EmbeddingModel string `toml:"embedding_model"`

	DailyBudgetUSD         *float64 `toml:"daily_budget_usd"`
	UserDailyCostLimitUSD  *float64 `toml:"user_daily_cost_limit_usd"`
	UserDailyTokenLimit    *int     `toml:"user_daily_token_limit"`
	CacheEnabled           *bool    `toml:"cache_enabled"`
	CacheDefaultTTLSeconds *int     `toml:"cache_default_ttl_seconds"`
	MaxRetries             *int     `toml:"max_retries"`
	RequestTimeoutMs       *int     `toml:"request_timeout_ms"`
	EnableCostAlerts       *bool    `toml:"enable_cost_alerts"`
	RateLimitPerMinute     *int     `toml:"rate_limit_per_minute"`
}

// ConfigPath returns the path to the config file (~/.careerforge/config.toml).
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.toml")
}

// LoadFile loads configuration from the TOML file.
// Returns an empty FileConfig if the file doesn't exist.
func LoadFile() (*FileConfig, error) {
	cfg := &FileConfig{}

	path := ConfigPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// EnsureConfigFile creates a default config file with commented examples
// if none exists.
func EnsureConfigFile() error {
	path := ConfigPath()

	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := EnsureDataDir(); err != nil {
		return err
	}

	defaultConfig := `# CareerForge AI governance configuration
# server_port = ":8080"
# log_level = "info"

# System-wide daily spend ceiling and per-user allowances
# daily_budget_usd = 50.0
# user_daily_cost_limit_usd = 1.0
# user_daily_token_limit = 500000

# Model routing defaults. An explicit model in a request always wins.
# default_model = "claude-3-5-sonnet-20241022"
# fallback_model = "gpt-4o-mini"
# embedding_model = "text-embedding-3-small"

# Response caching
# cache_enabled = true
# cache_default_ttl_seconds = 3600

# Vendor call behavior
# max_retries = 2
# request_timeout_ms = 60000

# Budget alerting
# enable_cost_alerts = true

# Optional pricing override file (YAML)
# pricing_file = "/etc/careerforge/pricing.yaml"
`

	return os.WriteFile(path, []byte(defaultConfig), 0644)
}
