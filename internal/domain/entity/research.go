package entity

import "time"

// HotTopic is one trending angle surfaced by topic research.
type HotTopic struct {
	// Topic is the proposed article angle.
	Topic string `json:"topic"`

	// Reason explains why the angle is timely.
	Reason string `json:"reason"`

	// Keywords are search terms the angle should target.
	Keywords []string `json:"keywords"`
}

// CompetitorArticle is a recently published post from a competing site.
type CompetitorArticle struct {
	Title       string
	URL         string
	Summary     string
	PublishedAt time.Time
}

// ResearchResults aggregates everything the research step feeds into
// article generation.
type ResearchResults struct {
	// HotTopics are trending angles, best first.
	HotTopics []HotTopic `json:"hot_topics"`

	// Competitors are recent competitor posts used to avoid duplication.
	Competitors []CompetitorArticle `json:"-"`
}

// ReviewResult is the verdict of the automated quality review.
type ReviewResult struct {
	// Score is a 1-10 quality rating.
	Score int `json:"score"`

	// Approved reports whether the article may be published as-is.
	Approved bool `json:"approved"`

	// Feedback lists concrete issues when not approved.
	Feedback string `json:"feedback"`
}
