package worker

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestWorkerMetrics_RecordRun(t *testing.T) {
	m := workerTestMetrics()

	before := testutil.ToFloat64(m.JobRunsTotal.WithLabelValues("daily", "success"))
	m.RecordRun("daily", "success", 90*time.Second)
	m.RecordRun("daily", "failure", 5*time.Second)

	assert.Equal(t, before+1, testutil.ToFloat64(m.JobRunsTotal.WithLabelValues("daily", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.JobRunsTotal.WithLabelValues("daily", "failure")))
	assert.Greater(t, testutil.ToFloat64(m.LastSuccessTimestamp), float64(0),
		"success should stamp the last-success gauge")
}

func TestWorkerMetrics_RecordPublished(t *testing.T) {
	m := workerTestMetrics()

	before := testutil.ToFloat64(m.PostsPublishedTotal.WithLabelValues("manual"))
	m.RecordPublished("manual")
	assert.Equal(t, before+1, testutil.ToFloat64(m.PostsPublishedTotal.WithLabelValues("manual")))
}

func TestWorkerMetrics_ConfigMetricsEmbedded(t *testing.T) {
	m := workerTestMetrics()

	m.RecordValidationError("daily_schedule")
	assert.GreaterOrEqual(t,
		testutil.ToFloat64(m.ValidationErrorsTotal.WithLabelValues("daily_schedule")), float64(1))
}
