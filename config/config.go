// Package config holds run configuration and the model pricing catalog.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds abridger configuration. Model parameters are passed into the
// estimator and engine explicitly at call time; nothing here mutates after
// validation.
type Config struct {
	Provider          string
	Model             string
	BaseURL           string
	APIKey            string
	Temperature       float64
	LengthPreset      string  // named compression preset (very_short/short/medium/long)
	CompressionTarget float64 // fraction of original length; 0 means derive from preset
	WordLimit         int     // chapters below this word count pass through; 0 summarizes everything
	Concurrency       int
	MaxRetries        int
	RetryBackoff      time.Duration
	RetryBackoffMax   time.Duration
	Timeout           time.Duration
	MaxOutputTokens   int // per-request cap; 0 lets the engine derive one from the target length
	GenreSampleBytes  int
	OutputFile        string
	OutputFormat      string // text, jsonl, or dual
	MetricsAddr       string
	Verbose           bool
}

// DefaultConfig returns conservative defaults for an OpenAI-compatible
// endpoint.
func DefaultConfig() *Config {
	return &Config{
		Provider:         "openrouter",
		Model:            "",
		BaseURL:          "https://openrouter.ai/api/v1",
		Temperature:      0.3,
		LengthPreset:     "short",
		WordLimit:        150,
		Concurrency:      4,
		MaxRetries:       2,
		RetryBackoff:     500 * time.Millisecond,
		RetryBackoffMax:  8 * time.Second,
		Timeout:          120 * time.Second,
		GenreSampleBytes: 4000,
		OutputFile:       "output/abridged.txt",
		OutputFormat:     "text",
		Verbose:          false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider cannot be empty")
	}
	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.CompressionTarget < 0 || c.CompressionTarget >= 1 {
		return fmt.Errorf("compression target must be in [0, 1)")
	}
	if c.WordLimit < 0 {
		return fmt.Errorf("word limit cannot be negative")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxOutputTokens < 0 {
		return fmt.Errorf("max output tokens cannot be negative")
	}
	if c.GenreSampleBytes <= 0 {
		return fmt.Errorf("genre sample size must be positive")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "text" && c.OutputFormat != "jsonl" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be text, jsonl, or dual")
	}
	return nil
}

// EnvString reads a string environment variable, reporting whether it was set.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// EnvInt reads an integer environment variable, reporting whether it was set.
func EnvInt(key string) (int, bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, true, nil
}

// EnvFloat reads a float environment variable, reporting whether it was set.
func EnvFloat(key string) (float64, bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return 0, false, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, true, nil
}
