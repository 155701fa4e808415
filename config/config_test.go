package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Model = "openai/gpt-4o-mini"
	cfg.APIKey = "test-key"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "empty provider",
			mutate: func(cfg *Config) {
				cfg.Provider = ""
			},
			wantErr: "provider",
		},
		{
			name: "empty model",
			mutate: func(cfg *Config) {
				cfg.Model = ""
			},
			wantErr: "model",
		},
		{
			name: "empty base url",
			mutate: func(cfg *Config) {
				cfg.BaseURL = ""
			},
			wantErr: "base URL",
		},
		{
			name: "invalid url format",
			mutate: func(cfg *Config) {
				cfg.BaseURL = "http://"
			},
			wantErr: "base URL",
		},
		{
			name: "temperature out of range",
			mutate: func(cfg *Config) {
				cfg.Temperature = 2.5
			},
			wantErr: "temperature",
		},
		{
			name: "compression target too large",
			mutate: func(cfg *Config) {
				cfg.CompressionTarget = 1.0
			},
			wantErr: "compression target",
		},
		{
			name: "negative word limit",
			mutate: func(cfg *Config) {
				cfg.WordLimit = -1
			},
			wantErr: "word limit",
		},
		{
			name: "zero concurrency",
			mutate: func(cfg *Config) {
				cfg.Concurrency = 0
			},
			wantErr: "concurrency",
		},
		{
			name: "negative retries",
			mutate: func(cfg *Config) {
				cfg.MaxRetries = -1
			},
			wantErr: "max retries",
		},
		{
			name: "backoff exceeds max",
			mutate: func(cfg *Config) {
				cfg.RetryBackoff = 10 * time.Second
				cfg.RetryBackoffMax = time.Second
			},
			wantErr: "retry backoff",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "unsupported output format",
			mutate: func(cfg *Config) {
				cfg.OutputFormat = "xml"
			},
			wantErr: "output format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValidWithModel(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config with model should validate, got %v", err)
	}
}

func TestZeroWordLimitAllowed(t *testing.T) {
	cfg := validConfig()
	cfg.WordLimit = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("word limit 0 disables skipping and should validate, got %v", err)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("ABRIDGE_TEST_STR", "hello")
	if v, ok := EnvString("ABRIDGE_TEST_STR"); !ok || v != "hello" {
		t.Fatalf("EnvString = %q, %v", v, ok)
	}
	if _, ok := EnvString("ABRIDGE_TEST_MISSING"); ok {
		t.Fatalf("expected unset env to report ok=false")
	}

	t.Setenv("ABRIDGE_TEST_INT", "42")
	v, ok, err := EnvInt("ABRIDGE_TEST_INT")
	if err != nil || !ok || v != 42 {
		t.Fatalf("EnvInt = %d, %v, %v", v, ok, err)
	}

	t.Setenv("ABRIDGE_TEST_INT", "not-a-number")
	if _, _, err := EnvInt("ABRIDGE_TEST_INT"); err == nil {
		t.Fatalf("expected parse error")
	}

	t.Setenv("ABRIDGE_TEST_FLOAT", "0.25")
	f, ok, err := EnvFloat("ABRIDGE_TEST_FLOAT")
	if err != nil || !ok || f != 0.25 {
		t.Fatalf("EnvFloat = %v, %v, %v", f, ok, err)
	}
}
