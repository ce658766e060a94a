package config

import (
	"fmt"
)

// PipelineConfig holds the content pipeline inputs: where the product
// catalog, post history and compliance word lists live, which
// competitor feeds to watch, and the maintenance sweep limits.
type PipelineConfig struct {
	// CatalogPath is the product catalog file (CSV or YAML), or a
	// directory of catalog files.
	CatalogPath string

	// HistoryPath is the post history snapshot file.
	HistoryPath string

	// CompliancePath is the YAML file with allowed and forbidden claim
	// word lists. A missing file disables the deterministic scan.
	CompliancePath string

	// CTA is the exact call-to-action line every article must end with.
	CTA string

	// FeedURLs are competitor RSS feeds mined for trending topics.
	FeedURLs []string

	// AuditLimit caps how many published posts one maintenance sweep
	// audits. Default: 5
	AuditLimit int

	// SEOLimit caps how many posts one sweep rewrites for SEO. Default: 2
	SEOLimit int
}

// LoadPipelineConfig loads pipeline configuration from environment
// variables.
func LoadPipelineConfig() (*PipelineConfig, error) {
	config := &PipelineConfig{
		CatalogPath:    getEnvOrDefault("PIPELINE_CATALOG_PATH", "data/products.csv"),
		HistoryPath:    getEnvOrDefault("PIPELINE_HISTORY_PATH", "data/post_history.json"),
		CompliancePath: getEnvOrDefault("PIPELINE_COMPLIANCE_PATH", "config/compliance.yaml"),
		CTA:            getEnvOrDefault("PIPELINE_CTA", "สนใจสั่งซื้อสินค้าได้ที่ Shopee: https://s.shopee.co.th/BNONxdisb"),
		FeedURLs:       getEnvStringSlice("PIPELINE_FEED_URLS", nil),
		AuditLimit:     getEnvInt("PIPELINE_AUDIT_LIMIT", 5),
		SEOLimit:       getEnvInt("PIPELINE_SEO_LIMIT", 2),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline configuration: %w", err)
	}

	return config, nil
}

// Validate checks configuration correctness.
func (c *PipelineConfig) Validate() error {
	if c.CatalogPath == "" {
		return fmt.Errorf("PIPELINE_CATALOG_PATH cannot be empty")
	}

	if c.HistoryPath == "" {
		return fmt.Errorf("PIPELINE_HISTORY_PATH cannot be empty")
	}

	if c.CTA == "" {
		return fmt.Errorf("PIPELINE_CTA cannot be empty")
	}

	if c.AuditLimit <= 0 {
		return fmt.Errorf("PIPELINE_AUDIT_LIMIT must be positive")
	}

	if c.SEOLimit <= 0 {
		return fmt.Errorf("PIPELINE_SEO_LIMIT must be positive")
	}

	return nil
}
