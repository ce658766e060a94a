package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"autobloom/internal/pkg/config"
)

// WorkerMetrics tracks scheduled pipeline runs and configuration state.
type WorkerMetrics struct {
	*config.ConfigMetrics

	// JobRunsTotal counts pipeline runs by mode (daily, weekly, manual)
	// and status (success, failure, skipped).
	JobRunsTotal *prometheus.CounterVec

	// JobDuration observes full pipeline run durations.
	JobDuration prometheus.Histogram

	// PostsPublishedTotal counts articles that reached the remote site.
	PostsPublishedTotal *prometheus.CounterVec

	// LastSuccessTimestamp is the Unix time of the last successful run.
	LastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics registers the worker metric set with the default
// Prometheus registry. Call once per process.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		JobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_job_runs_total",
			Help: "Total number of pipeline runs by mode and status",
		}, []string{"mode", "status"}),

		JobDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipeline_job_duration_seconds",
			Help:    "Duration of full pipeline runs in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}),

		PostsPublishedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_posts_published_total",
			Help: "Total number of articles published by mode",
		}, []string{"mode"}),

		LastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pipeline_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful pipeline run",
		}),
	}
}

// RecordRun records one finished pipeline run.
func (m *WorkerMetrics) RecordRun(mode, status string, duration time.Duration) {
	m.JobRunsTotal.WithLabelValues(mode, status).Inc()
	m.JobDuration.Observe(duration.Seconds())
	if status == "success" {
		m.LastSuccessTimestamp.SetToCurrentTime()
	}
}

// RecordPublished counts an article that reached the remote site.
func (m *WorkerMetrics) RecordPublished(mode string) {
	m.PostsPublishedTotal.WithLabelValues(mode).Inc()
}
