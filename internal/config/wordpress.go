package config

import (
	"fmt"
	"net/url"
	"time"
)

// WordPressConfig holds configuration for the WordPress REST publishing
// client. Authentication uses an application password, not the account
// password.
type WordPressConfig struct {
	// BaseURL is the site root, e.g. "https://blog.example.com".
	BaseURL string

	// Username is the publishing account.
	Username string

	// AppPassword is the WordPress application password.
	AppPassword string

	// RequestsPerSecond bounds the REST call rate. Default: 2
	RequestsPerSecond float64

	// Burst is the rate limiter burst size. Default: 4
	Burst int

	// Timeout bounds one REST call. Default: 30s
	Timeout time.Duration

	// DefaultStatus is the post status used when the caller does not
	// specify one. Default: "draft"
	DefaultStatus string
}

// LoadWordPressConfig loads WordPress configuration from environment
// variables.
func LoadWordPressConfig() (*WordPressConfig, error) {
	config := &WordPressConfig{
		BaseURL:           getEnvOrDefault("WP_BASE_URL", ""),
		Username:          getEnvOrDefault("WP_USERNAME", ""),
		AppPassword:       getEnvOrDefault("WP_APP_PASSWORD", ""),
		RequestsPerSecond: getEnvFloat("WP_RPS", 2),
		Burst:             getEnvInt("WP_BURST", 4),
		Timeout:           getEnvDuration("WP_TIMEOUT", 30*time.Second),
		DefaultStatus:     getEnvOrDefault("WP_DEFAULT_STATUS", "draft"),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid wordpress configuration: %w", err)
	}

	return config, nil
}

// Validate checks configuration correctness.
func (c *WordPressConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("WP_BASE_URL cannot be empty")
	}

	parsed, err := url.Parse(c.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("WP_BASE_URL must be an absolute URL")
	}

	if c.Username == "" {
		return fmt.Errorf("WP_USERNAME cannot be empty")
	}

	if c.AppPassword == "" {
		return fmt.Errorf("WP_APP_PASSWORD cannot be empty")
	}

	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("WP_RPS must be positive")
	}

	if c.Burst <= 0 {
		return fmt.Errorf("WP_BURST must be positive")
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("WP_TIMEOUT must be positive")
	}

	switch c.DefaultStatus {
	case "draft", "publish", "pending", "private", "future":
	default:
		return fmt.Errorf("WP_DEFAULT_STATUS must be a valid post status")
	}

	return nil
}
