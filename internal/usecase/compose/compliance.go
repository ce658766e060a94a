// Package compose implements the article pipeline: topic research,
// soft-sell article generation, compliance review, publishing and
// maintenance of already published posts.
package compose

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ComplianceRules holds the Thai FDA word lists applied to cosmetic
// marketing copy. Allowed phrases may be claimed; forbidden phrases are
// over-claims that must never appear.
type ComplianceRules struct {
	Allowed   []string `yaml:"allowed_words"`
	Forbidden []string `yaml:"forbidden_words"`
}

// LoadComplianceRules reads the word lists from a YAML file. A missing
// file yields empty rules with a warning so the pipeline can run without
// compliance data.
func LoadComplianceRules(path string) (*ComplianceRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("compliance rules file not found, checks will be advisory only",
				slog.String("path", path))
			return &ComplianceRules{}, nil
		}
		return nil, fmt.Errorf("read compliance rules: %w", err)
	}

	var rules ComplianceRules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse compliance rules %s: %w", path, err)
	}

	slog.Info("compliance rules loaded",
		slog.String("path", path),
		slog.Int("allowed", len(rules.Allowed)),
		slog.Int("forbidden", len(rules.Forbidden)))
	return &rules, nil
}

// promptList renders at most max phrases as a comma-separated hint for a
// prompt. Full word lists can be thousands of entries; prompts only need
// representative examples.
func promptList(words []string, max int) string {
	if len(words) > max {
		words = words[:max]
	}
	return strings.Join(words, ", ")
}

// ForbiddenHits returns the forbidden phrases found in the text,
// case-insensitively. Used as a deterministic backstop to the model
// review.
func (r *ComplianceRules) ForbiddenHits(text string) []string {
	lower := strings.ToLower(text)
	var hits []string
	for _, word := range r.Forbidden {
		if word == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(word)) {
			hits = append(hits, word)
		}
	}
	return hits
}
