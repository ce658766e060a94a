// Package main provides a CLI command for one-shot article generation.
// Usage: autobloom-generate [--mode manual] [--product NAME] [--dry-run] [--output json]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"autobloom/internal/app"
	"autobloom/internal/observability/logging"
	"autobloom/internal/usecase/compose"
)

// GenerateOutput is the JSON output format for a run.
type GenerateOutput struct {
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	Excerpt   string `json:"excerpt"`
	Published bool   `json:"published"`
	PostID    int64  `json:"post_id,omitempty"`
	Link      string `json:"link,omitempty"`
	Status    string `json:"status,omitempty"`
	Approved  bool   `json:"approved"`
}

func main() {
	var (
		mode            string
		productName     string
		dryRun          bool
		skipMaintenance bool
		outputFormat    string
	)

	flag.StringVar(&mode, "mode", "manual", "Run mode: manual, daily or weekly")
	flag.StringVar(&productName, "product", "", "Force a specific catalog product")
	flag.BoolVar(&dryRun, "dry-run", false, "Generate and review without publishing")
	flag.BoolVar(&skipMaintenance, "skip-maintenance", true, "Skip the maintenance sweep after the run")
	flag.StringVar(&outputFormat, "output", "text", "Output format: text or json")
	flag.Parse()

	runMode := compose.Mode(mode)
	switch runMode {
	case compose.ModeManual, compose.ModeDaily, compose.ModeWeekly:
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid mode %q, expected manual, daily or weekly\n", mode)
		os.Exit(1)
	}

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	pipeline, err := app.BuildPipeline(logger)
	if err != nil {
		logger.Error("failed to set up pipeline", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	result, err := pipeline.Run(context.Background(), compose.RunOptions{
		Mode:            runMode,
		DryRun:          dryRun,
		SkipMaintenance: skipMaintenance,
		ProductName:     productName,
	})
	if errors.Is(err, compose.ErrAlreadyPostedToday) {
		fmt.Println("Already posted today, nothing to do.")
		return
	}
	if err != nil {
		logger.Error("run failed", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	printResult(result, outputFormat)
}

func printResult(result *compose.RunResult, format string) {
	output := GenerateOutput{
		Title:   result.Article.Title,
		Slug:    result.Article.Slug,
		Excerpt: result.Article.Excerpt,
	}
	if result.Review != nil {
		output.Approved = result.Review.Approved
	}
	if result.Published != nil {
		output.Published = true
		output.PostID = result.Published.ID
		output.Link = result.Published.Link
		output.Status = result.Published.Status
	}

	if format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(output); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to encode output: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("Title:    %s\n", output.Title)
	fmt.Printf("Slug:     %s\n", output.Slug)
	fmt.Printf("Approved: %t\n", output.Approved)
	if output.Published {
		fmt.Printf("Post ID:  %d\n", output.PostID)
		fmt.Printf("Status:   %s\n", output.Status)
		fmt.Printf("Link:     %s\n", output.Link)
	} else {
		fmt.Println("Not published (dry run)")
	}
}
