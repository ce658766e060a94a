package textgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"autobloom/internal/resilience/circuitbreaker"
	"autobloom/internal/utils/jsonx"
)

// ErrExhausted signals that every fallback candidate failed. Callers must
// treat it as "no content produced this cycle" and skip the unit of work
// rather than crash.
var ErrExhausted = errors.New("all generation candidates exhausted")

// TokenAcquirer grants permission for one backend call. It blocks until a
// token is available or the context is done, and fails immediately when
// the daily breaker is tripped. *ratelimit.Limiter satisfies it.
type TokenAcquirer interface {
	Acquire(ctx context.Context) bool
}

// QuotaBreaker exposes the daily usage breaker to the orchestrator.
// *quota.Tracker satisfies it.
type QuotaBreaker interface {
	// ForceExhaust trips the breaker for the rest of the day.
	ForceExhaust()

	// DailyUsage reports calls recorded against today's quota.
	DailyUsage() int
}

// OrchestratorConfig holds the retry and backoff policy for one logical
// invocation.
type OrchestratorConfig struct {
	// MaxRetries is the number of attempts per candidate for transient
	// failures.
	MaxRetries int

	// BackoffBase is the first retry delay; it doubles per attempt.
	BackoffBase time.Duration

	// BackoffCap bounds the doubling.
	BackoffCap time.Duration

	// JitterMax bounds the random delay inserted before the first backend
	// call to desynchronize concurrent callers.
	JitterMax time.Duration
}

// DefaultOrchestratorConfig returns the default invocation policy.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		MaxRetries:  3,
		BackoffBase: 2 * time.Second,
		BackoffCap:  30 * time.Second,
		JitterMax:   500 * time.Millisecond,
	}
}

// Validate checks configuration correctness.
func (c OrchestratorConfig) Validate() error {
	if c.MaxRetries <= 0 {
		return fmt.Errorf("max retries must be positive")
	}
	if c.BackoffBase <= 0 || c.BackoffCap < c.BackoffBase {
		return fmt.Errorf("backoff base must be positive and not exceed the cap")
	}
	return nil
}

// Orchestrator drives one logical generation call: cache lookup, fallback
// planning, rate-limited backend calls with classified retries, and cache
// population on success. All candidate-level errors are absorbed and
// logged; only total exhaustion reaches the caller.
type Orchestrator struct {
	cfg     OrchestratorConfig
	client  Client
	cache   *Cache
	limiter TokenAcquirer
	quota   QuotaBreaker
	planner *Planner
	breaker *circuitbreaker.CircuitBreaker
	metrics InvocationMetricsRecorder

	// sleep and jitter are injectable for tests.
	sleep  func(time.Duration)
	jitter func() float64
}

// NewOrchestrator wires the invocation pipeline.
func NewOrchestrator(
	cfg OrchestratorConfig,
	client Client,
	cache *Cache,
	limiter TokenAcquirer,
	quota QuotaBreaker,
	planner *Planner,
	metrics InvocationMetricsRecorder,
) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		client:  client,
		cache:   cache,
		limiter: limiter,
		quota:   quota,
		planner: planner,
		breaker: circuitbreaker.New(circuitbreaker.GeminiAPIConfig()),
		metrics: metrics,
		sleep:   time.Sleep,
		jitter:  rand.Float64,
	}
}

// Invoke performs one logical generation call. The seed variant keys the
// cache, so a fallback-served response is replayed for future calls with
// the same seed and prompt.
func (o *Orchestrator) Invoke(ctx context.Context, seed, prompt string, opts Options) (string, error) {
	requestID := uuid.New().String()
	start := time.Now()

	if entry, ok := o.cache.Get(seed, prompt); ok {
		o.metrics.RecordCacheHit()
		slog.Info("generation served from cache",
			slog.String("request_id", requestID),
			slog.String("variant", seed))
		return entry.Response, nil
	}
	o.metrics.RecordCacheMiss()

	plan := o.planner.Plan(seed)
	slog.Info("generation started",
		slog.String("request_id", requestID),
		slog.String("seed", seed),
		slog.Int("candidates", len(plan)),
		slog.Int("prompt_length", len(prompt)))

	// Desynchronize concurrent callers before the first backend call.
	if o.cfg.JitterMax > 0 {
		o.sleep(time.Duration(o.jitter() * float64(o.cfg.JitterMax)))
	}

	for _, candidate := range plan {
		response, done, err := o.attemptCandidate(ctx, requestID, candidate, prompt, opts)
		if done {
			o.metrics.RecordDailyUsage(o.quota.DailyUsage())
			o.metrics.RecordDuration(time.Since(start))
			if err != nil {
				o.metrics.RecordExhausted()
				return "", err
			}
			o.cache.Set(seed, prompt, response)
			o.metrics.RecordSuccess()
			slog.Info("generation completed",
				slog.String("request_id", requestID),
				slog.String("candidate", candidate.String()),
				slog.Int("response_length", len(response)),
				slog.Duration("duration", time.Since(start)))
			return response, nil
		}
	}

	o.metrics.RecordDailyUsage(o.quota.DailyUsage())
	o.metrics.RecordDuration(time.Since(start))
	o.metrics.RecordExhausted()
	slog.Error("generation exhausted all candidates",
		slog.String("request_id", requestID),
		slog.String("seed", seed),
		slog.Int("candidates", len(plan)),
		slog.Duration("duration", time.Since(start)))
	return "", ErrExhausted
}

// attemptCandidate tries one candidate, retrying transient failures with
// doubling backoff. done=true means the plan is finished, either with a
// response or with a terminal error; done=false advances to the next
// candidate.
func (o *Orchestrator) attemptCandidate(ctx context.Context, requestID string, candidate Candidate, prompt string, opts Options) (response string, done bool, err error) {
	delay := o.cfg.BackoffBase

	for attempt := 1; attempt <= o.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return "", true, NewError(KindTimeout, ctx.Err())
		}

		if !o.limiter.Acquire(ctx) {
			slog.Warn("rate limit acquisition failed",
				slog.String("request_id", requestID),
				slog.String("candidate", candidate.String()))
			return "", false, nil
		}

		cbResult, callErr := o.breaker.Execute(func() (interface{}, error) {
			return o.client.Generate(ctx, candidate, prompt, opts)
		})

		if callErr == nil {
			text := cbResult.(string)
			// An empty body is a non-match, not a success.
			if strings.TrimSpace(text) == "" {
				slog.Warn("backend returned empty response, advancing",
					slog.String("request_id", requestID),
					slog.String("candidate", candidate.String()))
				return "", false, nil
			}
			return text, true, nil
		}

		if errors.Is(callErr, gobreaker.ErrOpenState) || errors.Is(callErr, gobreaker.ErrTooManyRequests) {
			slog.Warn("generation circuit breaker open, aborting plan",
				slog.String("request_id", requestID),
				slog.String("state", o.breaker.State().String()))
			return "", true, NewError(KindTransient, callErr)
		}

		kind := KindOf(callErr)
		switch kind {
		case KindTransient:
			if attempt == o.cfg.MaxRetries {
				slog.Warn("transient failures exhausted retries, advancing",
					slog.String("request_id", requestID),
					slog.String("candidate", candidate.String()),
					slog.Int("attempts", attempt))
				return "", false, nil
			}
			slog.Warn("transient failure, retrying candidate",
				slog.String("request_id", requestID),
				slog.String("candidate", candidate.String()),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				slog.Any("error", callErr))
			o.sleep(delay)
			delay *= 2
			if delay > o.cfg.BackoffCap {
				delay = o.cfg.BackoffCap
			}

		case KindQuotaExceeded:
			// The backend knows better than our local count. Trip the
			// breaker for the rest of the day.
			o.quota.ForceExhaust()
			slog.Error("backend reported quota exhausted, breaker tripped",
				slog.String("request_id", requestID),
				slog.String("candidate", candidate.String()),
				slog.Any("error", callErr))
			return "", false, nil

		case KindVariantUnavailable:
			slog.Warn("variant unavailable, advancing",
				slog.String("request_id", requestID),
				slog.String("candidate", candidate.String()),
				slog.Any("error", callErr))
			return "", false, nil

		case KindTimeout:
			return "", true, callErr

		default:
			slog.Warn("unclassified generation failure, advancing",
				slog.String("request_id", requestID),
				slog.String("candidate", candidate.String()),
				slog.Any("error", callErr))
			return "", false, nil
		}
	}

	return "", false, nil
}

// Invoker is the orchestrator surface agents depend on. *Orchestrator
// satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, seed, prompt string, opts Options) (string, error)
}

// InvokeJSON invokes the orchestrator and decodes the response into T,
// recovering truncated or fence-wrapped JSON where possible. Parse
// failures after recovery are reported as malformed output.
func InvokeJSON[T any](ctx context.Context, inv Invoker, seed, prompt string, opts Options) (T, error) {
	var zero T

	raw, err := inv.Invoke(ctx, seed, prompt, opts)
	if err != nil {
		return zero, err
	}

	decoded, err := jsonx.Decode[T](raw)
	if err != nil {
		return zero, NewError(KindMalformedOutput, err)
	}
	return decoded, nil
}
