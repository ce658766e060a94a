// Package main runs the scheduled blogging worker: a cron-driven loop
// that researches trends, generates and reviews one article per day,
// publishes it, and keeps older posts healthy.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"autobloom/internal/app"
	workerPkg "autobloom/internal/infra/worker"
	"autobloom/internal/observability/logging"
	"autobloom/internal/usecase/compose"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workerMetrics := workerPkg.NewWorkerMetrics()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("daily_schedule", workerConfig.DailySchedule),
		slog.String("weekly_schedule", workerConfig.WeeklySchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("run_timeout", workerConfig.RunTimeout),
		slog.Int("health_port", workerConfig.HealthPort))

	pipeline, err := app.BuildPipeline(logger)
	if err != nil {
		logger.Error("failed to set up pipeline", slog.Any("error", err))
		os.Exit(1)
	}

	startMetricsServer(ctx, logger)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", healthAddr))

	startCronWorker(logger, pipeline, workerConfig, workerMetrics, healthServer)
}

// startCronWorker registers the daily and weekly runs and blocks
// forever.
func startCronWorker(
	logger *slog.Logger,
	pipeline *compose.Pipeline,
	cfg *workerPkg.WorkerConfig,
	metrics *workerPkg.WorkerMetrics,
	healthServer *workerPkg.HealthServer,
) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("failed to load timezone, using UTC",
			slog.String("timezone", cfg.Timezone),
			slog.Any("error", err))
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))

	if _, err := c.AddFunc(cfg.DailySchedule, func() {
		runPipelineJob(logger, pipeline, metrics, cfg.RunTimeout, compose.ModeDaily)
	}); err != nil {
		logger.Error("failed to register daily schedule", slog.Any("error", err))
		os.Exit(1)
	}

	if _, err := c.AddFunc(cfg.WeeklySchedule, func() {
		runPipelineJob(logger, pipeline, metrics, cfg.RunTimeout, compose.ModeWeekly)
	}); err != nil {
		logger.Error("failed to register weekly schedule", slog.Any("error", err))
		os.Exit(1)
	}

	c.Start()
	healthServer.SetReady(true)
	logger.Info("cron worker started",
		slog.String("daily_schedule", cfg.DailySchedule),
		slog.String("weekly_schedule", cfg.WeeklySchedule),
		slog.String("timezone", loc.String()))

	select {}
}

// runPipelineJob executes one scheduled run with a timeout and records
// the outcome.
func runPipelineJob(
	logger *slog.Logger,
	pipeline *compose.Pipeline,
	metrics *workerPkg.WorkerMetrics,
	timeout time.Duration,
	mode compose.Mode,
) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	logger.Info("scheduled run starting", slog.String("mode", string(mode)))

	result, err := pipeline.Run(ctx, compose.RunOptions{Mode: mode})
	duration := time.Since(start)

	switch {
	case errors.Is(err, compose.ErrAlreadyPostedToday):
		metrics.RecordRun(string(mode), "skipped", duration)
		logger.Info("scheduled run skipped, already posted today",
			slog.String("mode", string(mode)))
	case err != nil:
		metrics.RecordRun(string(mode), "failure", duration)
		logger.Error("scheduled run failed",
			slog.String("mode", string(mode)),
			slog.Duration("duration", duration),
			slog.Any("error", err))
	default:
		metrics.RecordRun(string(mode), "success", duration)
		if result.Published != nil {
			metrics.RecordPublished(string(mode))
		}
		logger.Info("scheduled run completed",
			slog.String("mode", string(mode)),
			slog.Duration("duration", duration))
	}
}
