// Package app wires the content pipeline from environment
// configuration. It is shared by the scheduled worker and the one-shot
// CLI commands.
package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"autobloom/internal/config"
	"autobloom/internal/infra/catalog"
	"autobloom/internal/infra/research"
	"autobloom/internal/infra/textgen"
	"autobloom/internal/infra/wordpress"
	"autobloom/internal/resilience/quota"
	"autobloom/internal/resilience/ratelimit"
	"autobloom/internal/usecase/compose"
)

// BuildPipeline assembles the full pipeline: generation stack,
// publishing client, product catalog, post history, compliance rules
// and the four agents.
func BuildPipeline(logger *slog.Logger) (*compose.Pipeline, error) {
	genConfig, err := config.LoadGenerationConfig()
	if err != nil {
		return nil, fmt.Errorf("generation config: %w", err)
	}

	wpConfig, err := config.LoadWordPressConfig()
	if err != nil {
		return nil, fmt.Errorf("wordpress config: %w", err)
	}

	pipeConfig, err := config.LoadPipelineConfig()
	if err != nil {
		return nil, fmt.Errorf("pipeline config: %w", err)
	}

	orchestrator, err := BuildOrchestrator(genConfig)
	if err != nil {
		return nil, err
	}

	publisher := wordpress.NewClient(wordpress.Config{
		BaseURL:           wpConfig.BaseURL,
		Username:          wpConfig.Username,
		AppPassword:       wpConfig.AppPassword,
		RequestsPerSecond: wpConfig.RequestsPerSecond,
		Burst:             wpConfig.Burst,
		Timeout:           wpConfig.Timeout,
		DefaultStatus:     wpConfig.DefaultStatus,
	})

	products, err := catalog.Load(pipeConfig.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("product catalog: %w", err)
	}
	logger.Info("product catalog loaded",
		slog.String("path", pipeConfig.CatalogPath),
		slog.Int("products", len(products)))

	rules, err := compose.LoadComplianceRules(pipeConfig.CompliancePath)
	if err != nil {
		return nil, fmt.Errorf("compliance rules: %w", err)
	}

	history := compose.NewHistory(pipeConfig.HistoryPath)

	feeds := research.NewFeedFetcher(&http.Client{Timeout: 30 * time.Second})
	pages := research.NewContentFetcher(research.DefaultContentFetchConfig())

	variant := genConfig.DefaultVariant
	pipeline := compose.NewPipeline(
		compose.NewResearcher(orchestrator, variant, feeds, pages, pipeConfig.FeedURLs),
		compose.NewGenerator(orchestrator, variant, rules, pipeConfig.CTA),
		compose.NewReviewer(orchestrator, variant, rules),
		compose.NewMaintainer(orchestrator, variant, publisher),
		publisher,
		history,
		products,
	)
	pipeline.AuditLimit = pipeConfig.AuditLimit
	pipeline.SEOLimit = pipeConfig.SEOLimit

	return pipeline, nil
}

// BuildOrchestrator assembles the resilient generation stack: Vertex AI
// transport, response cache, daily quota tracker, rate limiter and the
// fallback planner.
func BuildOrchestrator(cfg *config.GenerationConfig) (*textgen.Orchestrator, error) {
	gemini := textgen.NewGemini(textgen.GeminiConfig{
		Project:     cfg.Project,
		CallTimeout: cfg.CallTimeout,
	})

	cache := textgen.NewCache(cfg.CachePath)

	tracker := quota.NewTracker(quota.Config{
		DailyLimit:     cfg.RequestsPerDay,
		SafetyFraction: cfg.SafetyFraction,
		LogPath:        cfg.QuotaLogPath,
	})

	limiter := ratelimit.New(ratelimit.Config{
		Requests: cfg.RequestsPerMinute,
		Per:      time.Minute,
	}, tracker)

	plannerConfig := textgen.DefaultPlannerConfig()
	plannerConfig.DefaultRegion = cfg.DefaultRegion
	plannerConfig.FallbackRegions = cfg.FallbackRegions

	variantCatalog, err := cfg.LoadCatalog()
	if err != nil {
		return nil, fmt.Errorf("variant catalog: %w", err)
	}
	if len(variantCatalog.Flash) > 0 {
		plannerConfig.FlashVariants = variantCatalog.Flash
	}
	if len(variantCatalog.Generic) > 0 {
		plannerConfig.GenericVariants = variantCatalog.Generic
	}

	orchestratorConfig := textgen.DefaultOrchestratorConfig()
	orchestratorConfig.MaxRetries = cfg.MaxRetries
	orchestratorConfig.BackoffBase = cfg.BackoffBase
	orchestratorConfig.BackoffCap = cfg.BackoffCap

	return textgen.NewOrchestrator(
		orchestratorConfig,
		gemini,
		cache,
		limiter,
		tracker,
		textgen.NewPlanner(plannerConfig),
		textgen.NewPrometheusInvocationMetrics(),
	), nil
}
