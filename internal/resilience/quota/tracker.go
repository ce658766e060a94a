// Package quota tracks daily usage of a quota-limited remote service and
// persists the count across process restarts. It also acts as a usage
// circuit breaker: once accumulated usage approaches the configured daily
// ceiling, all further attempts are short-circuited for the rest of the
// calendar day.
package quota

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// dayFormat is the calendar-day layout stored in the usage log.
const dayFormat = "2006-01-02"

// Config holds the configuration for a daily quota tracker.
type Config struct {
	// DailyLimit is the maximum number of calls per calendar day.
	DailyLimit int

	// SafetyFraction trips the breaker before the hard limit is reached.
	// For example, 0.95 stops new calls at 95% of DailyLimit.
	SafetyFraction float64

	// LogPath is the JSON snapshot file for the usage count.
	LogPath string
}

// DefaultConfig returns a conservative default configuration.
func DefaultConfig(logPath string) Config {
	return Config{
		DailyLimit:     1500,
		SafetyFraction: 0.95,
		LogPath:        logPath,
	}
}

// usageLog is the on-disk snapshot format.
type usageLog struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Tracker is a thread-safe daily usage counter with snapshot persistence.
//
// The snapshot file is loaded once at construction and rewritten wholesale
// after every increment. Losing the very last write on an ungraceful crash
// is tolerated; the tracker only promises at-least-once persistence.
type Tracker struct {
	cfg Config

	// now is injectable for tests.
	now func() time.Time

	mu    sync.Mutex
	day   string
	count int
}

// NewTracker creates a Tracker and loads any same-day usage from the
// snapshot file. A missing or unparsable file yields a zero count, never
// an error.
func NewTracker(cfg Config) *Tracker {
	return newTracker(cfg, time.Now)
}

func newTracker(cfg Config, now func() time.Time) *Tracker {
	t := &Tracker{
		cfg: cfg,
		now: now,
		day: now().Format(dayFormat),
	}
	t.load()
	return t
}

// load restores the persisted count when the stored day matches today.
func (t *Tracker) load() {
	data, err := os.ReadFile(t.cfg.LogPath)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("quota: could not read usage log, starting at zero",
				slog.String("path", t.cfg.LogPath),
				slog.Any("error", err))
		}
		return
	}

	var log usageLog
	if err := json.Unmarshal(data, &log); err != nil {
		slog.Warn("quota: malformed usage log, starting at zero",
			slog.String("path", t.cfg.LogPath),
			slog.Any("error", err))
		return
	}

	if log.Date == t.day {
		t.count = log.Count
	}
}

// persist writes the current state to the snapshot file.
// Caller must hold t.mu.
func (t *Tracker) persist() {
	data, err := json.Marshal(usageLog{Date: t.day, Count: t.count})
	if err != nil {
		slog.Error("quota: could not encode usage log", slog.Any("error", err))
		return
	}
	if err := os.WriteFile(t.cfg.LogPath, data, 0o600); err != nil {
		slog.Warn("quota: could not save usage log",
			slog.String("path", t.cfg.LogPath),
			slog.Any("error", err))
	}
}

// rollover resets the counter when the calendar day has advanced.
// Caller must hold t.mu.
func (t *Tracker) rollover() {
	today := t.now().Format(dayFormat)
	if today != t.day {
		t.day = today
		t.count = 0
	}
}

// Record increments the daily counter and persists it synchronously.
// Every attempted call consumes quota, successful or not.
func (t *Tracker) Record() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover()
	t.count++
	t.persist()
}

// DailyUsage returns the number of calls recorded for the current day.
func (t *Tracker) DailyUsage() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover()
	return t.count
}

// Tripped reports whether usage has reached the safety threshold
// (DailyLimit × SafetyFraction). Once tripped, it stays tripped until the
// calendar day advances.
func (t *Tracker) Tripped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover()
	threshold := float64(t.cfg.DailyLimit) * t.cfg.SafetyFraction
	return float64(t.count) >= threshold
}

// ForceExhaust sets the counter past the daily limit and persists it.
// Used when the backend itself reports quota exhaustion: local counting
// may under-estimate true remote usage, so the breaker must trip for all
// subsequent calls today regardless of the local count.
func (t *Tracker) ForceExhaust() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover()
	t.count = t.cfg.DailyLimit + 1
	t.persist()

	slog.Warn("quota: breaker force-tripped by backend quota error",
		slog.Int("count", t.count),
		slog.Int("daily_limit", t.cfg.DailyLimit))
}

// Remaining returns how many calls are left before the safety threshold.
func (t *Tracker) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover()
	threshold := int(float64(t.cfg.DailyLimit) * t.cfg.SafetyFraction)
	if t.count >= threshold {
		return 0
	}
	return threshold - t.count
}

// Validate checks configuration correctness.
func (c Config) Validate() error {
	if c.DailyLimit <= 0 {
		return fmt.Errorf("daily limit must be positive")
	}
	if c.SafetyFraction <= 0 || c.SafetyFraction > 1 {
		return fmt.Errorf("safety fraction must be in (0, 1]")
	}
	if c.LogPath == "" {
		return fmt.Errorf("log path cannot be empty")
	}
	return nil
}
