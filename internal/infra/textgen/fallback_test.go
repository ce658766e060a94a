package textgen

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testPlannerConfig() PlannerConfig {
	return PlannerConfig{
		DefaultRegion:   "us-central1",
		FallbackRegions: []string{"us-east4"},
		FlashVariants:   []string{"gemini-2.5-flash", "gemini-2.0-flash"},
		GenericVariants: []string{"gemini-2.5-pro"},
	}
}

func TestPlanner_SeedIsFirst(t *testing.T) {
	p := NewPlanner(testPlannerConfig())

	plan := p.Plan("gemini-1.5-flash")
	if len(plan) == 0 {
		t.Fatal("expected non-empty plan")
	}

	want := Candidate{Variant: "gemini-1.5-flash", Region: "us-central1"}
	if plan[0] != want {
		t.Errorf("expected first candidate %v, got %v", want, plan[0])
	}
}

func TestPlanner_FlashSeedUsesFlashCatalog(t *testing.T) {
	p := NewPlanner(testPlannerConfig())

	plan := p.Plan("gemini-1.5-flash")

	want := []Candidate{
		{Variant: "gemini-1.5-flash", Region: "us-central1"},
		{Variant: "gemini-2.5-flash", Region: "us-central1"},
		{Variant: "gemini-2.0-flash", Region: "us-central1"},
		{Variant: "gemini-1.5-flash", Region: "us-east4"},
		{Variant: "gemini-2.5-flash", Region: "us-east4"},
		{Variant: "gemini-2.0-flash", Region: "us-east4"},
	}
	if diff := cmp.Diff(want, plan); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanner_GenericSeedUsesGenericCatalog(t *testing.T) {
	p := NewPlanner(testPlannerConfig())

	plan := p.Plan("gemini-2.5-pro")

	// The seed duplicates the catalog entry; dedupe keeps first occurrence.
	want := []Candidate{
		{Variant: "gemini-2.5-pro", Region: "us-central1"},
		{Variant: "gemini-2.5-pro", Region: "us-east4"},
	}
	if diff := cmp.Diff(want, plan); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanner_DeduplicatesSeedInCatalog(t *testing.T) {
	p := NewPlanner(testPlannerConfig())

	plan := p.Plan("gemini-2.5-flash")

	seen := make(map[Candidate]int)
	for _, c := range plan {
		seen[c]++
		if seen[c] > 1 {
			t.Errorf("candidate %v appears more than once", c)
		}
	}
}

func TestPlannerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     PlannerConfig
		wantErr bool
	}{
		{"valid", testPlannerConfig(), false},
		{"missing region", PlannerConfig{FlashVariants: []string{"x"}}, true},
		{"empty catalogs", PlannerConfig{DefaultRegion: "us-central1"}, true},
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
