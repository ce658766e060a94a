package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeTracker implements UsageTracker for tests.
type fakeTracker struct {
	mu      sync.Mutex
	tripped bool
	records int
}

func (f *fakeTracker) Tripped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tripped
}

func (f *fakeTracker) Record() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records++
}

func (f *fakeTracker) recorded() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records
}

// fakeClock drives the limiter with simulated time: sleeping advances the
// clock instead of blocking.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func (c *fakeClock) advance(d time.Duration) {
	c.sleep(d)
}

func TestLimiter_BurstThenExhausted(t *testing.T) {
	clock := newFakeClock()
	tracker := &fakeTracker{}
	l := newLimiter(Config{Requests: 3, Per: time.Minute}, tracker, clock.now, clock.sleep)

	for i := 0; i < 3; i++ {
		if !l.tryAcquire() {
			t.Fatalf("expected token %d to be available", i+1)
		}
	}
	if l.tryAcquire() {
		t.Error("expected empty bucket to reject a 4th token")
	}
	if got := tracker.recorded(); got != 3 {
		t.Errorf("expected 3 usage records, got %d", got)
	}
}

func TestLimiter_LinearRefillCappedAtCapacity(t *testing.T) {
	clock := newFakeClock()
	l := newLimiter(Config{Requests: 6, Per: time.Minute}, &fakeTracker{}, clock.now, clock.sleep)

	for i := 0; i < 6; i++ {
		l.tryAcquire()
	}

	// One token refills every 10 seconds at 6/min.
	clock.advance(10 * time.Second)
	if got := l.Tokens(); got < 0.99 || got > 1.01 {
		t.Errorf("expected ~1 token after 10s, got %f", got)
	}

	// Refill never exceeds capacity.
	clock.advance(time.Hour)
	if got := l.Tokens(); got != 6 {
		t.Errorf("expected refill capped at 6, got %f", got)
	}
}

// TestLimiter_RateNeverExceeded checks the §ceiling property on simulated
// time: the number of grants inside any single refill window never exceeds
// the configured capacity plus the tokens refilled during that window.
func TestLimiter_RateNeverExceeded(t *testing.T) {
	clock := newFakeClock()
	l := newLimiter(Config{Requests: 5, Per: time.Minute}, &fakeTracker{}, clock.now, clock.sleep)

	granted := 0
	for i := 0; i < 100; i++ {
		if l.tryAcquire() {
			granted++
		}
		clock.advance(time.Second)
	}

	// 100 simulated seconds at 5/min refills ~8.3 tokens on top of the
	// initial 5-token burst.
	if granted > 14 {
		t.Errorf("granted %d tokens in 100s, exceeds 5/min ceiling", granted)
	}
	if granted < 12 {
		t.Errorf("granted only %d tokens in 100s, limiter too strict", granted)
	}
}

func TestLimiter_TrippedBreakerFailsImmediately(t *testing.T) {
	clock := newFakeClock()
	slept := 0
	sleep := func(d time.Duration) {
		slept++
		clock.sleep(d)
	}
	tracker := &fakeTracker{tripped: true}
	l := newLimiter(Config{Requests: 5, Per: time.Minute}, tracker, clock.now, sleep)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if l.Acquire(ctx) {
		t.Error("expected acquire to fail while breaker tripped")
	}
	if slept != 0 {
		t.Errorf("expected no sleeping on tripped breaker, slept %d times", slept)
	}
	if tracker.recorded() != 0 {
		t.Errorf("expected no usage recorded, got %d", tracker.recorded())
	}
}

func TestLimiter_AcquireTimesOut(t *testing.T) {
	tracker := &fakeTracker{}
	l := New(Config{Requests: 1, Per: time.Hour}, tracker)

	ctx := context.Background()
	if !l.Acquire(ctx) {
		t.Fatal("expected first acquire to succeed")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if l.Acquire(timeoutCtx) {
		t.Error("expected acquire to time out on empty hour-long bucket")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("acquire overslept its deadline: %v", elapsed)
	}
}

// TestLimiter_ConcurrentAcquire reproduces the 3-caller scenario: with a
// capacity of 2, exactly two callers succeed immediately and the third
// only after at least one refill interval has elapsed.
func TestLimiter_ConcurrentAcquire(t *testing.T) {
	const per = 400 * time.Millisecond // one token refills every 200ms
	tracker := &fakeTracker{}
	l := New(Config{Requests: 2, Per: per}, tracker)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var immediate, delayed atomic.Int32
	refillInterval := per / 2
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !l.Acquire(ctx) {
				t.Error("acquire failed within generous timeout")
				return
			}
			if time.Since(start) < refillInterval {
				immediate.Add(1)
			} else {
				delayed.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := immediate.Load(); got != 2 {
		t.Errorf("expected exactly 2 immediate grants, got %d", got)
	}
	if got := delayed.Load(); got != 1 {
		t.Errorf("expected exactly 1 delayed grant, got %d", got)
	}
	if got := tracker.recorded(); got != 3 {
		t.Errorf("expected 3 usage records, got %d", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Requests: 10, Per: time.Minute}, false},
		{"zero requests", Config{Requests: 0, Per: time.Minute}, true},
		{"zero window", Config{Requests: 10}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
