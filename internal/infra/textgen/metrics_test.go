package textgen

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func findMetricFamily(t *testing.T, name string) *dto.MetricFamily {
	t.Helper()

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func TestPrometheusInvocationMetrics_Singleton(t *testing.T) {
	a := NewPrometheusInvocationMetrics()
	b := NewPrometheusInvocationMetrics()

	if a != b {
		t.Error("expected singleton recorder instance")
	}
}

func TestPrometheusInvocationMetrics_RecordsDailyUsage(t *testing.T) {
	m := NewPrometheusInvocationMetrics()
	m.RecordDailyUsage(42)

	mf := findMetricFamily(t, "textgen_daily_quota_usage")
	if mf == nil {
		t.Fatal("daily usage gauge not registered")
	}
	if got := mf.GetMetric()[0].GetGauge().GetValue(); got != 42 {
		t.Errorf("expected gauge value 42, got %f", got)
	}
}

func TestPrometheusInvocationMetrics_RecordsCounters(t *testing.T) {
	m := NewPrometheusInvocationMetrics()
	m.RecordCacheHit()
	m.RecordCacheMiss()
	m.RecordSuccess()
	m.RecordExhausted()
	m.RecordDuration(250 * time.Millisecond)

	for _, name := range []string{
		"textgen_cache_hits_total",
		"textgen_cache_misses_total",
		"textgen_invocations_success_total",
		"textgen_invocations_exhausted_total",
		"textgen_invocation_duration_seconds",
	} {
		if findMetricFamily(t, name) == nil {
			t.Errorf("metric %s not registered", name)
		}
	}
}

func TestNoopInvocationMetrics(t *testing.T) {
	var m InvocationMetricsRecorder = NoopInvocationMetrics{}

	// Must not panic or register anything.
	m.RecordCacheHit()
	m.RecordCacheMiss()
	m.RecordSuccess()
	m.RecordExhausted()
	m.RecordDuration(time.Second)
	m.RecordDailyUsage(1)
}
