// Package ratelimit provides an in-process token bucket limiter for
// quota-limited remote service calls. Unlike a plain bucket, Acquire also
// consults a daily usage tracker: a tripped daily breaker fails the call
// immediately without waiting, and every granted token records one unit
// of daily usage.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// UsageTracker is the daily quota interface consulted on every acquire.
// *quota.Tracker satisfies it.
type UsageTracker interface {
	// Tripped reports whether the daily usage breaker is open.
	Tripped() bool

	// Record persists one unit of daily usage.
	Record()
}

// Config holds the configuration for a token bucket limiter.
type Config struct {
	// Requests is the bucket capacity: the number of calls allowed per
	// refill window.
	Requests int

	// Per is the refill window. Tokens refill linearly so that Requests
	// tokens accumulate over one full window.
	Per time.Duration
}

// DefaultConfig returns a conservative default for generative-AI APIs.
func DefaultConfig() Config {
	return Config{
		Requests: 10,
		Per:      time.Minute,
	}
}

// Validate checks configuration correctness.
func (c Config) Validate() error {
	if c.Requests <= 0 {
		return fmt.Errorf("requests must be positive")
	}
	if c.Per <= 0 {
		return fmt.Errorf("refill window must be positive")
	}
	return nil
}

// Limiter is a thread-safe token bucket. All bucket state is guarded by a
// single mutex; callers blocked in Acquire are served in token-availability
// order with no FIFO guarantee.
//
// Bucket state is in-memory only. Capacity is small and refill is fast,
// so losing the bucket on restart is acceptable; daily usage is the
// tracker's job.
type Limiter struct {
	cfg     Config
	tracker UsageTracker

	// now and sleep are injectable for tests.
	now   func() time.Time
	sleep func(time.Duration)

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// New creates a Limiter with a full bucket.
func New(cfg Config, tracker UsageTracker) *Limiter {
	return newLimiter(cfg, tracker, time.Now, time.Sleep)
}

func newLimiter(cfg Config, tracker UsageTracker, now func() time.Time, sleep func(time.Duration)) *Limiter {
	return &Limiter{
		cfg:        cfg,
		tracker:    tracker,
		now:        now,
		sleep:      sleep,
		tokens:     float64(cfg.Requests),
		lastRefill: now(),
	}
}

// refill adds tokens proportional to elapsed wall-clock time, capped at
// capacity. Caller must hold l.mu.
func (l *Limiter) refill() {
	now := l.now()
	elapsed := now.Sub(l.lastRefill)
	if elapsed <= 0 {
		return
	}

	l.tokens += elapsed.Seconds() * float64(l.cfg.Requests) / l.cfg.Per.Seconds()
	if l.tokens > float64(l.cfg.Requests) {
		l.tokens = float64(l.cfg.Requests)
	}
	l.lastRefill = now
}

// tryAcquire takes one token if available and records daily usage.
func (l *Limiter) tryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	if l.tokens < 1 {
		return false
	}

	l.tokens--
	// Recording under the bucket lock keeps the token grant and the
	// quota increment atomic with respect to other acquirers.
	l.tracker.Record()
	return true
}

// Acquire blocks until a token is available, the context is done, or the
// daily breaker trips. It returns true when permission is granted.
//
// A tripped daily breaker fails immediately without sleeping. Otherwise
// the limiter polls the bucket with an increasing bounded backoff until
// the context deadline expires.
func (l *Limiter) Acquire(ctx context.Context) bool {
	if l.tracker.Tripped() {
		return false
	}

	start := l.now()
	wait := l.pollInterval()

	for {
		if l.tryAcquire() {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		default:
		}

		// Grow the wait as contention persists, capped so a freed
		// token is never missed for long.
		elapsed := l.now().Sub(start)
		wait = wait + elapsed/4
		if max := l.maxPoll(); wait > max {
			wait = max
		}

		if deadline, ok := ctx.Deadline(); ok {
			remaining := deadline.Sub(l.now())
			if remaining <= 0 {
				return false
			}
			if wait > remaining {
				wait = remaining
			}
		}

		l.sleep(wait)
	}
}

// pollInterval is the initial bucket polling period: a quarter of the
// time one token takes to refill.
func (l *Limiter) pollInterval() time.Duration {
	return l.cfg.Per / time.Duration(l.cfg.Requests) / 4
}

// maxPoll bounds the backoff between polls.
func (l *Limiter) maxPoll() time.Duration {
	max := l.cfg.Per / 2
	if max > 10*time.Second {
		max = 10 * time.Second
	}
	return max
}

// Tokens reports the current token count after refill. Intended for
// metrics and tests.
func (l *Limiter) Tokens() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	return l.tokens
}
