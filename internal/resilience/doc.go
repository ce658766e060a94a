// Package resilience provides the fault tolerance patterns wrapped
// around every remote surface: circuit breakers, retry with backoff,
// rate limiting and daily quota tracking.
//
// The subpackages compose into the generation and publishing stacks:
//   - circuitbreaker: sony/gobreaker wrappers with per-backend presets
//     (Gemini generation calls, WordPress REST calls)
//   - retry: error classification and exponential backoff with jitter
//   - ratelimit: a token bucket that consults the daily quota before
//     granting a call
//   - quota: a persisted daily usage counter with a safety-fraction
//     breaker
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.GeminiAPIConfig())
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return callBackend()
//	})
//
//	err := retry.WithBackoff(ctx, retry.DefaultConfig(), func() error {
//	    return performOperation()
//	})
package resilience
