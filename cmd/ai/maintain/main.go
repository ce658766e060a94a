// Package main provides a CLI command for a one-shot maintenance sweep
// over published posts: compliance audit plus SEO optimization.
// Usage: autobloom-maintain [--audit N] [--seo N] [--dry-run]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"autobloom/internal/app"
	"autobloom/internal/config"
	"autobloom/internal/infra/wordpress"
	"autobloom/internal/observability/logging"
	"autobloom/internal/usecase/compose"
)

func main() {
	var (
		auditLimit int
		seoLimit   int
		dryRun     bool
	)

	flag.IntVar(&auditLimit, "audit", 5, "Maximum number of posts to audit for compliance")
	flag.IntVar(&seoLimit, "seo", 2, "Maximum number of posts to rewrite for SEO")
	flag.BoolVar(&dryRun, "dry-run", false, "Report findings without updating posts")
	flag.Parse()

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	maintainer, err := setupMaintainer()
	if err != nil {
		logger.Error("failed to set up maintainer", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	if auditLimit > 0 {
		if err := maintainer.AuditAndFix(ctx, auditLimit, dryRun); err != nil {
			logger.Error("compliance audit failed", slog.Any("error", err))
			fmt.Fprintf(os.Stderr, "Error: compliance audit failed: %v\n", err)
			os.Exit(1)
		}
	}

	if seoLimit > 0 {
		if err := maintainer.OptimizeSEO(ctx, seoLimit, dryRun); err != nil {
			logger.Error("seo optimization failed", slog.Any("error", err))
			fmt.Fprintf(os.Stderr, "Error: seo optimization failed: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Println("Maintenance sweep completed.")
}

// setupMaintainer wires only what the sweep needs: the generation stack
// and the publishing client.
func setupMaintainer() (*compose.Maintainer, error) {
	genConfig, err := config.LoadGenerationConfig()
	if err != nil {
		return nil, fmt.Errorf("generation config: %w", err)
	}

	wpConfig, err := config.LoadWordPressConfig()
	if err != nil {
		return nil, fmt.Errorf("wordpress config: %w", err)
	}

	orchestrator, err := app.BuildOrchestrator(genConfig)
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

	return compose.NewMaintainer(orchestrator, genConfig.DefaultVariant, publisher), nil
}
