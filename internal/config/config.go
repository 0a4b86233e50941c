// Package config loads application configuration.
// Priority: env vars → config.toml → defaults. Invalid values fail the
// load instead of silently degrading.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults applied when neither env nor file provide a value.
const (
	DefaultServerPort        = ":8080"
	DefaultDailyBudgetUSD    = 50.0
	DefaultUserCostLimitUSD  = 1.0
	DefaultUserTokenLimit    = 500_000
	DefaultModel             = "claude-3-5-sonnet-20241022"
	DefaultFallbackModel     = "gpt-4o-mini"
	DefaultEmbeddingModel    = "text-embedding-3-small"
	DefaultCacheTTLSeconds   = 3600
	DefaultMaxRetries        = 2
	DefaultRequestTimeoutMs  = 60_000
	DefaultRateLimitPerMin   = 60
)

// Config holds the full configuration surface.
type Config struct {
	ServerPort   string
	LogLevel     string
	DatabasePath string
	PricingFile  string

	// Vendor credentials, env-only. Missing keys fail client
	// construction at startup, never at request time.
	AnthropicAPIKey string
	OpenAIAPIKey    string

	// AdminPassword seeds the stored admin password hash on first run.
	AdminPassword string

	DailyBudgetUSD        float64
	UserDailyCostLimitUSD float64
	UserDailyTokenLimit   int
	DefaultModel          string
	FallbackModel         string
	EmbeddingModel        string
	CacheEnabled          bool
	CacheDefaultTTL       time.Duration
	MaxRetries            int
	RequestTimeout        time.Duration
	EnableCostAlerts      bool
	RateLimitPerMinute    int
}

// Load reads configuration from file and environment variables and
// validates it. Environment variables override file values.
func Load() (*Config, error) {
	fileCfg, err := LoadFile()
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	cfg := &Config{
		ServerPort:   getEnvOrFile("SERVER_PORT", fileCfg.ServerPort, DefaultServerPort),
		LogLevel:     getEnvOrFile("LOG_LEVEL", fileCfg.LogLevel, "info"),
		DatabasePath: getEnvOrFile("DATABASE_PATH", fileCfg.DatabasePath, DefaultDatabasePath()),
		PricingFile:  getEnvOrFile("PRICING_FILE", fileCfg.PricingFile, ""),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AdminPassword:   os.Getenv("ADMIN_PASSWORD"),

		DefaultModel:   getEnvOrFile("DEFAULT_MODEL", fileCfg.DefaultModel, DefaultModel),
		FallbackModel:  getEnvOrFile("FALLBACK_MODEL", fileCfg.FallbackModel, DefaultFallbackModel),
		EmbeddingModel: getEnvOrFile("EMBEDDING_MODEL", fileCfg.EmbeddingModel, DefaultEmbeddingModel),

		CacheEnabled:     getEnvBoolOrFile("CACHE_ENABLED", fileCfg.CacheEnabled, true),
		EnableCostAlerts: getEnvBoolOrFile("ENABLE_COST_ALERTS", fileCfg.EnableCostAlerts, true),
	}

	cfg.DailyBudgetUSD, err = getEnvFloatOrFile("DAILY_BUDGET_USD", fileCfg.DailyBudgetUSD, DefaultDailyBudgetUSD)
	if err != nil {
		return nil, err
	}
	cfg.UserDailyCostLimitUSD, err = getEnvFloatOrFile("USER_DAILY_COST_LIMIT_USD", fileCfg.UserDailyCostLimitUSD, DefaultUserCostLimitUSD)
	if err != nil {
		return nil, err
	}
	cfg.UserDailyTokenLimit, err = getEnvIntOrFile("USER_DAILY_TOKEN_LIMIT", fileCfg.UserDailyTokenLimit, DefaultUserTokenLimit)
	if err != nil {
		return nil, err
	}
	cfg.MaxRetries, err = getEnvIntOrFile("MAX_RETRIES", fileCfg.MaxRetries, DefaultMaxRetries)
	if err != nil {
		return nil, err
	}
	cfg.RateLimitPerMinute, err = getEnvIntOrFile("RATE_LIMIT_PER_MINUTE", fileCfg.RateLimitPerMinute, DefaultRateLimitPerMin)
	if err != nil {
		return nil, err
	}

	ttlSeconds, err := getEnvIntOrFile("CACHE_DEFAULT_TTL_SECONDS", fileCfg.CacheDefaultTTLSeconds, DefaultCacheTTLSeconds)
	if err != nil {
		return nil, err
	}
	cfg.CacheDefaultTTL = time.Duration(ttlSeconds) * time.Second

	timeoutMs, err := getEnvIntOrFile("REQUEST_TIMEOUT_MS", fileCfg.RequestTimeoutMs, DefaultRequestTimeoutMs)
	if err != nil {
		return nil, err
	}
	cfg.RequestTimeout = time.Duration(timeoutMs) * time.Millisecond

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects configurations that would silently disable governance.
func (c *Config) validate() error {
	if c.DailyBudgetUSD <= 0 {
		return fmt.Errorf("invalid config: daily budget must be positive, got %v", c.DailyBudgetUSD)
	}
	if c.UserDailyCostLimitUSD <= 0 {
		return fmt.Errorf("invalid config: user daily cost limit must be positive, got %v", c.UserDailyCostLimitUSD)
	}
	if c.UserDailyTokenLimit <= 0 {
		return fmt.Errorf("invalid config: user daily token limit must be positive, got %d", c.UserDailyTokenLimit)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("invalid config: request timeout must be positive, got %v", c.RequestTimeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("invalid config: max retries must be non-negative, got %d", c.MaxRetries)
	}
	if c.CacheDefaultTTL <= 0 {
		return fmt.Errorf("invalid config: cache TTL must be positive, got %v", c.CacheDefaultTTL)
	}
	if c.DefaultModel == "" {
		return fmt.Errorf("invalid config: default model must not be empty")
	}
	return nil
}

// getEnvOrFile returns env value, file value, or default (in priority order).
func getEnvOrFile(key, fileValue, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

func getEnvBoolOrFile(key string, fileValue *bool, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	if fileValue != nil {
		return *fileValue
	}
	return defaultValue
}

func getEnvFloatOrFile(key string, fileValue *float64, defaultValue float64) (float64, error) {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid config: %s=%q is not a number", key, value)
		}
		return f, nil
	}
	if fileValue != nil {
		return *fileValue, nil
	}
	return defaultValue, nil
}

func getEnvIntOrFile(key string, fileValue *int, defaultValue int) (int, error) {
	if value := os.Getenv(key); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid config: %s=%q is not an integer", key, value)
		}
		return n, nil
	}
	if fileValue != nil {
		return *fileValue, nil
	}
	return defaultValue, nil
}
