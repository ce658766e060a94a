// Package textgen turns an unreliable, quota-limited remote text
// generation backend into a dependable call: a persisted response cache,
// a rate limiter with a daily quota breaker, circuit breaking, and a
// two-dimensional variant/region fallback search.
package textgen

import (
	"context"
	"fmt"
)

// Candidate is one (model variant, service region) pair attempted during
// fallback search.
type Candidate struct {
	Variant string
	Region  string
}

// String formats the candidate for logging.
func (c Candidate) String() string {
	return fmt.Sprintf("%s@%s", c.Variant, c.Region)
}

// Options are the per-call generation parameters.
type Options struct {
	// Temperature controls sampling randomness. Zero means backend default.
	Temperature float32

	// MaxOutputTokens bounds the response length. Zero means backend default.
	MaxOutputTokens int32

	// ResponseMIMEType requests a structured response format, e.g.
	// "application/json". Empty means plain text.
	ResponseMIMEType string
}

// Client is the transport boundary to the generative backend. Failures
// must be classifiable: implementations return *Error so the orchestrator
// can decide retry versus advance without inspecting transport details.
type Client interface {
	Generate(ctx context.Context, candidate Candidate, prompt string, opts Options) (string, error)
}
