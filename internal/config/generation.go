package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// GenerationConfig holds configuration for the resilient text generation
// layer: backend identity, rate and quota ceilings, retry policy, and the
// durable snapshot paths.
type GenerationConfig struct {
	// Project is the Google Cloud project hosting Vertex AI.
	Project string

	// DefaultVariant is the model tried first for every call.
	// Default: "gemini-2.5-flash"
	DefaultVariant string

	// DefaultRegion is the Vertex region tried first.
	// Default: "us-central1"
	DefaultRegion string

	// FallbackRegions are tried in order after the default region.
	FallbackRegions []string

	// RequestsPerMinute bounds the call rate. Default: 10
	RequestsPerMinute int

	// RequestsPerDay is the daily quota ceiling. Default: 1500
	RequestsPerDay int

	// SafetyFraction trips the daily breaker before the ceiling is
	// actually reached. Default: 0.95
	SafetyFraction float64

	// MaxRetries per fallback candidate for transient failures. Default: 3
	MaxRetries int

	// BackoffBase is the first retry delay; doubles per attempt. Default: 2s
	BackoffBase time.Duration

	// BackoffCap bounds the doubling. Default: 30s
	BackoffCap time.Duration

	// CallTimeout bounds one backend call. Default: 120s
	CallTimeout time.Duration

	// CachePath is the response cache snapshot file.
	CachePath string

	// QuotaLogPath is the daily usage snapshot file.
	QuotaLogPath string

	// CatalogPath optionally points to a YAML file overriding the
	// built-in fallback variant catalog.
	CatalogPath string
}

// VariantCatalog is the on-disk shape of a fallback catalog override.
type VariantCatalog struct {
	Flash   []string `yaml:"flash"`
	Generic []string `yaml:"generic"`
}

// LoadGenerationConfig loads generation configuration from environment
// variables. Returns a config with defaults if environment variables are
// not set.
func LoadGenerationConfig() (*GenerationConfig, error) {
	config := &GenerationConfig{
		Project:           getEnvOrDefault("GENERATION_GCP_PROJECT", ""),
		DefaultVariant:    getEnvOrDefault("GENERATION_MODEL", "gemini-2.5-flash"),
		DefaultRegion:     getEnvOrDefault("GENERATION_REGION", "us-central1"),
		FallbackRegions:   getEnvStringSlice("GENERATION_FALLBACK_REGIONS", []string{"us-east4", "europe-west1", "asia-northeast1"}),
		RequestsPerMinute: getEnvInt("GENERATION_RPM", 10),
		RequestsPerDay:    getEnvInt("GENERATION_RPD", 1500),
		SafetyFraction:    getEnvFloat("GENERATION_QUOTA_SAFETY", 0.95),
		MaxRetries:        getEnvInt("GENERATION_MAX_RETRIES", 3),
		BackoffBase:       getEnvDuration("GENERATION_BACKOFF_BASE", 2*time.Second),
		BackoffCap:        getEnvDuration("GENERATION_BACKOFF_CAP", 30*time.Second),
		CallTimeout:       getEnvDuration("GENERATION_CALL_TIMEOUT", 120*time.Second),
		CachePath:         getEnvOrDefault("GENERATION_CACHE_PATH", "data/response_cache.json"),
		QuotaLogPath:      getEnvOrDefault("GENERATION_QUOTA_LOG_PATH", "data/quota_usage.json"),
		CatalogPath:       getEnvOrDefault("GENERATION_CATALOG_PATH", ""),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generation configuration: %w", err)
	}

	return config, nil
}

// Validate checks configuration correctness.
func (c *GenerationConfig) Validate() error {
	if c.Project == "" {
		return fmt.Errorf("GENERATION_GCP_PROJECT cannot be empty")
	}

	if c.DefaultVariant == "" {
		return fmt.Errorf("GENERATION_MODEL cannot be empty")
	}

	if c.DefaultRegion == "" {
		return fmt.Errorf("GENERATION_REGION cannot be empty")
	}

	if c.RequestsPerMinute <= 0 {
		return fmt.Errorf("GENERATION_RPM must be positive")
	}

	if c.RequestsPerDay <= 0 {
		return fmt.Errorf("GENERATION_RPD must be positive")
	}

	if c.SafetyFraction <= 0 || c.SafetyFraction > 1 {
		return fmt.Errorf("GENERATION_QUOTA_SAFETY must be between 0.0 and 1.0")
	}

	if c.MaxRetries <= 0 {
		return fmt.Errorf("GENERATION_MAX_RETRIES must be positive")
	}

	if c.BackoffBase <= 0 || c.BackoffCap < c.BackoffBase {
		return fmt.Errorf("GENERATION_BACKOFF_BASE must be positive and not exceed GENERATION_BACKOFF_CAP")
	}

	if c.CallTimeout <= 0 {
		return fmt.Errorf("GENERATION_CALL_TIMEOUT must be positive")
	}

	if c.CachePath == "" || c.QuotaLogPath == "" {
		return fmt.Errorf("cache and quota snapshot paths cannot be empty")
	}

	return nil
}

// LoadCatalog reads the fallback catalog override when CatalogPath is
// set. Without an override it returns an empty catalog and the caller
// keeps the built-in one.
func (c *GenerationConfig) LoadCatalog() (VariantCatalog, error) {
	var catalog VariantCatalog
	if c.CatalogPath == "" {
		return catalog, nil
	}

	data, err := os.ReadFile(c.CatalogPath)
	if err != nil {
		return catalog, fmt.Errorf("read variant catalog: %w", err)
	}
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return catalog, fmt.Errorf("parse variant catalog: %w", err)
	}
	return catalog, nil
}
