package quota

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testConfig(t *testing.T, limit int) Config {
	t.Helper()
	return Config{
		DailyLimit:     limit,
		SafetyFraction: 0.95,
		LogPath:        filepath.Join(t.TempDir(), "usage.json"),
	}
}

func fixedClock(day time.Time) func() time.Time {
	return func() time.Time { return day }
}

func TestTracker_RecordIncrements(t *testing.T) {
	tr := NewTracker(testConfig(t, 100))

	if got := tr.DailyUsage(); got != 0 {
		t.Fatalf("expected 0 initial usage, got %d", got)
	}

	tr.Record()
	tr.Record()
	tr.Record()

	if got := tr.DailyUsage(); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
}

func TestTracker_PersistsAcrossRestart(t *testing.T) {
	cfg := testConfig(t, 100)

	tr := NewTracker(cfg)
	for i := 0; i < 7; i++ {
		tr.Record()
	}

	// A new tracker over the same file on the same day resumes the count.
	restarted := NewTracker(cfg)
	if got := restarted.DailyUsage(); got != 7 {
		t.Errorf("expected 7 after restart, got %d", got)
	}
}

func TestTracker_NewDayResets(t *testing.T) {
	cfg := testConfig(t, 100)
	day1 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	clock := day1
	tr := newTracker(cfg, func() time.Time { return clock })
	tr.Record()
	tr.Record()

	clock = day2
	if got := tr.DailyUsage(); got != 0 {
		t.Errorf("expected reset on new day, got %d", got)
	}

	// Reload on the new day ignores the stale snapshot.
	restarted := newTracker(cfg, fixedClock(day2))
	if got := restarted.DailyUsage(); got != 0 {
		t.Errorf("expected 0 on new-day reload, got %d", got)
	}
}

func TestTracker_MalformedLogIgnored(t *testing.T) {
	cfg := testConfig(t, 100)
	if err := os.WriteFile(cfg.LogPath, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	tr := NewTracker(cfg)
	if got := tr.DailyUsage(); got != 0 {
		t.Errorf("expected 0 for malformed log, got %d", got)
	}
}

func TestTracker_TrippedAtSafetyFraction(t *testing.T) {
	tr := NewTracker(testConfig(t, 20)) // threshold = 19

	for i := 0; i < 18; i++ {
		tr.Record()
	}
	if tr.Tripped() {
		t.Fatal("breaker tripped below threshold")
	}

	tr.Record() // 19 = 20 * 0.95
	if !tr.Tripped() {
		t.Error("breaker did not trip at safety threshold")
	}
}

func TestTracker_ForceExhaust(t *testing.T) {
	cfg := testConfig(t, 1000)
	tr := NewTracker(cfg)

	tr.ForceExhaust()
	if !tr.Tripped() {
		t.Error("expected breaker tripped after ForceExhaust")
	}
	if got := tr.DailyUsage(); got != 1001 {
		t.Errorf("expected count forced to limit+1, got %d", got)
	}

	// The forced state survives a restart on the same day.
	restarted := NewTracker(cfg)
	if !restarted.Tripped() {
		t.Error("expected forced exhaustion to persist")
	}
}

func TestTracker_Remaining(t *testing.T) {
	tr := NewTracker(testConfig(t, 100)) // threshold = 95

	if got := tr.Remaining(); got != 95 {
		t.Fatalf("expected 95 remaining, got %d", got)
	}

	for i := 0; i < 95; i++ {
		tr.Record()
	}
	if got := tr.Remaining(); got != 0 {
		t.Errorf("expected 0 remaining, got %d", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "valid",
			cfg:     Config{DailyLimit: 100, SafetyFraction: 0.95, LogPath: "usage.json"},
			wantErr: false,
		},
		{
			name:    "zero limit",
			cfg:     Config{DailyLimit: 0, SafetyFraction: 0.95, LogPath: "usage.json"},
			wantErr: true,
		},
		{
			name:    "fraction above one",
			cfg:     Config{DailyLimit: 100, SafetyFraction: 1.5, LogPath: "usage.json"},
			wantErr: true,
		},
		{
			name:    "empty path",
			cfg:     Config{DailyLimit: 100, SafetyFraction: 0.95},
			wantErr: true,
		},
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
