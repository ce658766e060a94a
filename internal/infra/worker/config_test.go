package worker

import (
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Metrics register with the process-wide default registry, so tests
// share one instance.
var (
	testMetricsOnce sync.Once
	testMetrics     *WorkerMetrics
)

func workerTestMetrics() *WorkerMetrics {
	testMetricsOnce.Do(func() {
		testMetrics = NewWorkerMetrics()
	})
	return testMetrics
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "30 5 * * *", cfg.DailySchedule)
	assert.Equal(t, "0 6 * * 1", cfg.WeeklySchedule)
	assert.Equal(t, "Asia/Bangkok", cfg.Timezone)
	assert.Equal(t, 30*time.Minute, cfg.RunTimeout)
	assert.Equal(t, 9091, cfg.HealthPort)

	assert.NoError(t, cfg.Validate())
}

func TestWorkerConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*WorkerConfig)
	}{
		{name: "bad daily schedule", mutate: func(c *WorkerConfig) { c.DailySchedule = "not cron" }},
		{name: "bad weekly schedule", mutate: func(c *WorkerConfig) { c.WeeklySchedule = "" }},
		{name: "bad timezone", mutate: func(c *WorkerConfig) { c.Timezone = "Mars/Olympus" }},
		{name: "zero timeout", mutate: func(c *WorkerConfig) { c.RunTimeout = 0 }},
		{name: "privileged port", mutate: func(c *WorkerConfig) { c.HealthPort = 80 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := LoadConfigFromEnv(logger, workerTestMetrics())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("PIPELINE_DAILY_SCHEDULE", "0 7 * * *")
	t.Setenv("PIPELINE_WEEKLY_SCHEDULE", "30 8 * * 3")
	t.Setenv("WORKER_TIMEZONE", "UTC")
	t.Setenv("RUN_TIMEOUT", "45m")
	t.Setenv("WORKER_HEALTH_PORT", "19091")

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg, err := LoadConfigFromEnv(logger, workerTestMetrics())
	require.NoError(t, err)

	assert.Equal(t, "0 7 * * *", cfg.DailySchedule)
	assert.Equal(t, "30 8 * * 3", cfg.WeeklySchedule)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 45*time.Minute, cfg.RunTimeout)
	assert.Equal(t, 19091, cfg.HealthPort)
}

func TestLoadConfigFromEnv_FailOpen(t *testing.T) {
	t.Setenv("PIPELINE_DAILY_SCHEDULE", "every morning")
	t.Setenv("WORKER_TIMEZONE", "Mars/Olympus")
	t.Setenv("RUN_TIMEOUT", "10h")
	t.Setenv("WORKER_HEALTH_PORT", "80")

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg, err := LoadConfigFromEnv(logger, workerTestMetrics())
	require.NoError(t, err, "loading never fails")

	// Every invalid value fell back to its default.
	assert.Equal(t, "30 5 * * *", cfg.DailySchedule)
	assert.Equal(t, "Asia/Bangkok", cfg.Timezone)
	assert.Equal(t, 30*time.Minute, cfg.RunTimeout)
	assert.Equal(t, 9091, cfg.HealthPort)
	assert.NoError(t, cfg.Validate())
}
