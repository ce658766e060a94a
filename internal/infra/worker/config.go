package worker

import (
	"fmt"
	"log/slog"
	"time"

	"autobloom/internal/pkg/config"
)

// WorkerConfig controls the scheduled pipeline worker: when the daily
// and weekly runs fire, in which timezone, and how long one run may
// take before it is cancelled.
//
// Loading is fail-open: LoadConfigFromEnv never returns an error, it
// replaces invalid values with defaults and records the fallback.
type WorkerConfig struct {
	// DailySchedule is the cron expression for the daily publishing run.
	DailySchedule string

	// WeeklySchedule is the cron expression for the weekly deep-research
	// run.
	WeeklySchedule string

	// Timezone is the IANA timezone the schedules are evaluated in. The
	// blog targets a Thai audience, so posts should land in local
	// morning hours.
	Timezone string

	// RunTimeout bounds one full pipeline run including maintenance.
	RunTimeout time.Duration

	// HealthPort serves the liveness and readiness probes.
	HealthPort int
}

// DefaultConfig returns the production defaults: daily run at 05:30
// and weekly run Monday 06:00, Bangkok time.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		DailySchedule:  "30 5 * * *",
		WeeklySchedule: "0 6 * * 1",
		Timezone:       "Asia/Bangkok",
		RunTimeout:     30 * time.Minute,
		HealthPort:     9091,
	}
}

// Validate checks every field and aggregates the failures.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.DailySchedule); err != nil {
		errs = append(errs, fmt.Errorf("daily schedule: %w", err))
	}
	if err := config.ValidateCronSchedule(c.WeeklySchedule); err != nil {
		errs = append(errs, fmt.Errorf("weekly schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.RunTimeout); err != nil {
		errs = append(errs, fmt.Errorf("run timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv loads the worker configuration from the
// environment with validation and fallback to defaults.
//
// Environment variables:
//   - PIPELINE_DAILY_SCHEDULE: cron expression (default "30 5 * * *")
//   - PIPELINE_WEEKLY_SCHEDULE: cron expression (default "0 6 * * 1")
//   - WORKER_TIMEZONE: IANA timezone (default "Asia/Bangkok")
//   - RUN_TIMEOUT: duration 1m-4h (default 30m)
//   - WORKER_HEALTH_PORT: port 1024-65535 (default 9091)
//
// Every fallback is logged and counted in metrics. The returned config
// is always valid; the error is always nil.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	applyFallback := func(field string, result config.ConfigLoadResult) {
		if !result.FallbackApplied {
			return
		}
		fallbackApplied = true
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field, "default")
		for _, warning := range result.Warnings {
			logger.Warn("configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	result := config.LoadEnvWithFallback("PIPELINE_DAILY_SCHEDULE", cfg.DailySchedule, config.ValidateCronSchedule)
	cfg.DailySchedule = result.Value.(string)
	applyFallback("daily_schedule", result)

	result = config.LoadEnvWithFallback("PIPELINE_WEEKLY_SCHEDULE", cfg.WeeklySchedule, config.ValidateCronSchedule)
	cfg.WeeklySchedule = result.Value.(string)
	applyFallback("weekly_schedule", result)

	result = config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)
	applyFallback("timezone", result)

	result = config.LoadEnvDuration("RUN_TIMEOUT", cfg.RunTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 1*time.Minute, 4*time.Hour)
	})
	cfg.RunTimeout = result.Value.(time.Duration)
	applyFallback("run_timeout", result)

	result = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = result.Value.(int)
	applyFallback("health_port", result)

	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
