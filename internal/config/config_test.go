package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points HOME at a temp dir and clears every env var Load reads,
// so tests see only what they set themselves.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"SERVER_PORT", "LOG_LEVEL", "DATABASE_PATH", "PRICING_FILE",
		"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "ADMIN_PASSWORD",
		"DEFAULT_MODEL", "FALLBACK_MODEL", "EMBEDDING_MODEL",
		"DAILY_BUDGET_USD", "USER_DAILY_COST_LIMIT_USD", "USER_DAILY_TOKEN_LIMIT",
		"CACHE_ENABLED", "CACHE_DEFAULT_TTL_SECONDS",
		"MAX_RETRIES", "REQUEST_TIMEOUT_MS", "ENABLE_COST_ALERTS",
		"RATE_LIMIT_PER_MINUTE",
	} {
		t.Setenv(key, "")
	}
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.ServerPort != DefaultServerPort {
		t.Errorf("ServerPort = %q", cfg.ServerPort)
	}
	if cfg.DailyBudgetUSD != DefaultDailyBudgetUSD {
		t.Errorf("DailyBudgetUSD = %v", cfg.DailyBudgetUSD)
	}
	if cfg.UserDailyTokenLimit != DefaultUserTokenLimit {
		t.Errorf("UserDailyTokenLimit = %d", cfg.UserDailyTokenLimit)
	}
	if !cfg.CacheEnabled {
		t.Error("cache must default to enabled")
	}
	if cfg.CacheDefaultTTL != time.Hour {
		t.Errorf("CacheDefaultTTL = %v", cfg.CacheDefaultTTL)
	}
	if cfg.RequestTimeout != 60*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.DefaultModel != DefaultModel {
		t.Errorf("DefaultModel = %q", cfg.DefaultModel)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("SERVER_PORT", ":9090")
	t.Setenv("DAILY_BUDGET_USD", "25.5")
	t.Setenv("USER_DAILY_TOKEN_LIMIT", "1000")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("REQUEST_TIMEOUT_MS", "5000")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.ServerPort != ":9090" {
		t.Errorf("ServerPort = %q", cfg.ServerPort)
	}
	if cfg.DailyBudgetUSD != 25.5 {
		t.Errorf("DailyBudgetUSD = %v", cfg.DailyBudgetUSD)
	}
	if cfg.UserDailyTokenLimit != 1000 {
		t.Errorf("UserDailyTokenLimit = %d", cfg.UserDailyTokenLimit)
	}
	if cfg.CacheEnabled {
		t.Error("CACHE_ENABLED=false must disable cache")
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
}

func TestLoadFileValues(t *testing.T) {
	home := isolate(t)

	dir := filepath.Join(home, ".careerforge")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	content := `server_port = ":7070"
daily_budget_usd = 10.0
default_model = "gpt-4o"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.ServerPort != ":7070" {
		t.Errorf("ServerPort = %q, want file value", cfg.ServerPort)
	}
	if cfg.DailyBudgetUSD != 10.0 {
		t.Errorf("DailyBudgetUSD = %v, want file value", cfg.DailyBudgetUSD)
	}
	if cfg.DefaultModel != "gpt-4o" {
		t.Errorf("DefaultModel = %q, want file value", cfg.DefaultModel)
	}
	// Untouched keys fall through to defaults.
	if cfg.UserDailyTokenLimit != DefaultUserTokenLimit {
		t.Errorf("UserDailyTokenLimit = %d, want default", cfg.UserDailyTokenLimit)
	}

	// Env beats file.
	t.Setenv("DAILY_BUDGET_USD", "99")
	cfg, err = Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DailyBudgetUSD != 99 {
		t.Errorf("DailyBudgetUSD = %v, want env override", cfg.DailyBudgetUSD)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"budget not a number", "DAILY_BUDGET_USD", "abc", "not a number"},
		{"budget not positive", "DAILY_BUDGET_USD", "0", "must be positive"},
		{"cost limit negative", "USER_DAILY_COST_LIMIT_USD", "-1", "must be positive"},
		{"token limit zero", "USER_DAILY_TOKEN_LIMIT", "0", "must be positive"},
		{"retries negative", "MAX_RETRIES", "-1", "non-negative"},
		{"timeout not an integer", "REQUEST_TIMEOUT_MS", "fast", "not an integer"},
		{"timeout zero", "REQUEST_TIMEOUT_MS", "0", "must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("Load() accepted %s=%q", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestEnsureConfigFile(t *testing.T) {
	isolate(t)

	if err := EnsureConfigFile(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "daily_budget_usd") {
		t.Error("default config file missing budget example")
	}

	// A second call must not clobber an edited file.
	if err := os.WriteFile(ConfigPath(), []byte(`server_port = ":7070"`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := EnsureConfigFile(); err != nil {
		t.Fatal(err)
	}
	data, err = os.ReadFile(ConfigPath())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `server_port = ":7070"` {
		t.Error("EnsureConfigFile overwrote an existing file")
	}
}

func TestDefaultModelMustNotBeEmpty(t *testing.T) {
	isolate(t)
	cfg := &Config{
		DailyBudgetUSD:        1,
		UserDailyCostLimitUSD: 1,
		UserDailyTokenLimit:   1,
		RequestTimeout:        time.Second,
		CacheDefaultTTL:       time.Second,
	}
	if err := cfg.validate(); err == nil {
		t.Error("validate() accepted empty default model")
	}
}
