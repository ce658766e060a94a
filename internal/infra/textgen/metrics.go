package textgen

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// InvocationMetricsRecorder defines the interface for recording
// invocation-level metrics. Abstracting it lets tests inject a mock and
// keeps the orchestrator independent of the metrics backend.
type InvocationMetricsRecorder interface {
	// RecordCacheHit increments the cache hit counter.
	RecordCacheHit()

	// RecordCacheMiss increments the cache miss counter.
	RecordCacheMiss()

	// RecordSuccess increments the successful invocation counter.
	RecordSuccess()

	// RecordExhausted increments the counter of invocations that ran out
	// of fallback candidates.
	RecordExhausted()

	// RecordDuration records the wall-clock time of one logical invocation.
	RecordDuration(duration time.Duration)

	// RecordDailyUsage sets the daily quota usage gauge.
	RecordDailyUsage(count int)
}

// PrometheusInvocationMetrics implements InvocationMetricsRecorder using
// Prometheus metrics.
type PrometheusInvocationMetrics struct {
	cacheHitCounter   prometheus.Counter
	cacheMissCounter  prometheus.Counter
	successCounter    prometheus.Counter
	exhaustedCounter  prometheus.Counter
	durationHistogram prometheus.Histogram
	dailyUsageGauge   prometheus.Gauge
}

var (
	prometheusMetricsInstance *PrometheusInvocationMetrics
	prometheusMetricsOnce     sync.Once
)

// getOrCreateHistogram gets an existing histogram or creates a new one if it doesn't exist
func getOrCreateHistogram(opts prometheus.HistogramOpts) prometheus.Histogram {
	h := prometheus.NewHistogram(opts)
	if err := prometheus.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Histogram)
		}
		return promauto.NewHistogram(opts)
	}
	return h
}

// getOrCreateCounter gets an existing counter or creates a new one if it doesn't exist
func getOrCreateCounter(opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Counter)
		}
		return promauto.NewCounter(opts)
	}
	return c
}

// getOrCreateGauge gets an existing gauge or creates a new one if it doesn't exist
func getOrCreateGauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	g := prometheus.NewGauge(opts)
	if err := prometheus.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Gauge)
		}
		return promauto.NewGauge(opts)
	}
	return g
}

// NewPrometheusInvocationMetrics creates a Prometheus-based metrics
// recorder. Uses singleton pattern to avoid duplicate metric registration
// in tests.
func NewPrometheusInvocationMetrics() *PrometheusInvocationMetrics {
	prometheusMetricsOnce.Do(func() {
		prometheusMetricsInstance = &PrometheusInvocationMetrics{
			cacheHitCounter: getOrCreateCounter(prometheus.CounterOpts{
				Name: "textgen_cache_hits_total",
				Help: "Total number of invocations served from the response cache",
			}),
			cacheMissCounter: getOrCreateCounter(prometheus.CounterOpts{
				Name: "textgen_cache_misses_total",
				Help: "Total number of invocations that required a backend call",
			}),
			successCounter: getOrCreateCounter(prometheus.CounterOpts{
				Name: "textgen_invocations_success_total",
				Help: "Total number of invocations that produced a response",
			}),
			exhaustedCounter: getOrCreateCounter(prometheus.CounterOpts{
				Name: "textgen_invocations_exhausted_total",
				Help: "Total number of invocations that exhausted all fallback candidates",
			}),
			durationHistogram: getOrCreateHistogram(prometheus.HistogramOpts{
				Name:    "textgen_invocation_duration_seconds",
				Help:    "Wall-clock time of one logical invocation including retries and fallback",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			}),
			dailyUsageGauge: getOrCreateGauge(prometheus.GaugeOpts{
				Name: "textgen_daily_quota_usage",
				Help: "Backend calls recorded against the daily quota today",
			}),
		}
	})
	return prometheusMetricsInstance
}

// RecordCacheHit implements InvocationMetricsRecorder.RecordCacheHit
func (p *PrometheusInvocationMetrics) RecordCacheHit() {
	p.cacheHitCounter.Inc()
}

// RecordCacheMiss implements InvocationMetricsRecorder.RecordCacheMiss
func (p *PrometheusInvocationMetrics) RecordCacheMiss() {
	p.cacheMissCounter.Inc()
}

// RecordSuccess implements InvocationMetricsRecorder.RecordSuccess
func (p *PrometheusInvocationMetrics) RecordSuccess() {
	p.successCounter.Inc()
}

// RecordExhausted implements InvocationMetricsRecorder.RecordExhausted
func (p *PrometheusInvocationMetrics) RecordExhausted() {
	p.exhaustedCounter.Inc()
}

// RecordDuration implements InvocationMetricsRecorder.RecordDuration
func (p *PrometheusInvocationMetrics) RecordDuration(duration time.Duration) {
	p.durationHistogram.Observe(duration.Seconds())
}

// RecordDailyUsage implements InvocationMetricsRecorder.RecordDailyUsage
func (p *PrometheusInvocationMetrics) RecordDailyUsage(count int) {
	p.dailyUsageGauge.Set(float64(count))
}

// NoopInvocationMetrics is a metrics recorder that discards everything.
// Useful for CLI runs where no scrape endpoint exists.
type NoopInvocationMetrics struct{}

// RecordCacheHit implements InvocationMetricsRecorder.RecordCacheHit
func (NoopInvocationMetrics) RecordCacheHit() {}

// RecordCacheMiss implements InvocationMetricsRecorder.RecordCacheMiss
func (NoopInvocationMetrics) RecordCacheMiss() {}

// RecordSuccess implements InvocationMetricsRecorder.RecordSuccess
func (NoopInvocationMetrics) RecordSuccess() {}

// RecordExhausted implements InvocationMetricsRecorder.RecordExhausted
func (NoopInvocationMetrics) RecordExhausted() {}

// RecordDuration implements InvocationMetricsRecorder.RecordDuration
func (NoopInvocationMetrics) RecordDuration(time.Duration) {}

// RecordDailyUsage implements InvocationMetricsRecorder.RecordDailyUsage
func (NoopInvocationMetrics) RecordDailyUsage(int) {}
