package textgen

import (
	"fmt"
	"strings"
)

// PlannerConfig holds the static fallback catalog: the regions and model
// variants tried when the seed variant fails.
type PlannerConfig struct {
	// DefaultRegion is tried first for every variant.
	DefaultRegion string

	// FallbackRegions are tried in order after the default region.
	FallbackRegions []string

	// FlashVariants is the same-family catalog appended when the seed
	// variant is a flash-class model.
	FlashVariants []string

	// GenericVariants is the smaller catalog appended for any other seed.
	GenericVariants []string
}

// DefaultPlannerConfig returns the built-in fallback catalog. Variants are
// ordered newest first so deprecations cost one wasted attempt, not a
// degraded model choice.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		DefaultRegion: "us-central1",
		FallbackRegions: []string{
			"us-east4",
			"europe-west1",
			"asia-northeast1",
		},
		FlashVariants: []string{
			"gemini-2.5-flash",
			"gemini-2.5-flash-lite",
			"gemini-2.0-flash",
			"gemini-2.0-flash-lite",
		},
		GenericVariants: []string{
			"gemini-2.5-flash",
			"gemini-2.5-pro",
		},
	}
}

// Validate checks configuration correctness.
func (c PlannerConfig) Validate() error {
	if c.DefaultRegion == "" {
		return fmt.Errorf("default region is required")
	}
	if len(c.FlashVariants) == 0 && len(c.GenericVariants) == 0 {
		return fmt.Errorf("at least one fallback variant catalog is required")
	}
	return nil
}

// Planner builds ordered, deduplicated candidate lists for a logical call.
// Regions form the outer loop because variant availability is
// region-dependent; within a region the seed variant is always tried
// before the catalog.
type Planner struct {
	cfg PlannerConfig
}

// NewPlanner creates a Planner over the given catalog.
func NewPlanner(cfg PlannerConfig) *Planner {
	return &Planner{cfg: cfg}
}

// Plan expands a seed variant into the full candidate sequence. The first
// candidate is always (seed, default region). Duplicate variant+region
// pairs keep their first occurrence.
func (p *Planner) Plan(seed string) []Candidate {
	variants := []string{seed}
	if strings.Contains(seed, "flash") {
		variants = append(variants, p.cfg.FlashVariants...)
	} else {
		variants = append(variants, p.cfg.GenericVariants...)
	}

	regions := append([]string{p.cfg.DefaultRegion}, p.cfg.FallbackRegions...)

	seen := make(map[Candidate]struct{}, len(regions)*len(variants))
	candidates := make([]Candidate, 0, len(regions)*len(variants))
	for _, region := range regions {
		for _, variant := range variants {
			c := Candidate{Variant: variant, Region: region}
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			candidates = append(candidates, c)
		}
	}
	return candidates
}
