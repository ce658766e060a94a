package textgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"
)

// GeminiConfig holds the Vertex AI transport configuration.
type GeminiConfig struct {
	// Project is the Google Cloud project ID.
	Project string

	// CallTimeout bounds a single generation call.
	CallTimeout time.Duration
}

// DefaultGeminiConfig returns the default transport configuration.
func DefaultGeminiConfig(project string) GeminiConfig {
	return GeminiConfig{
		Project:     project,
		CallTimeout: 120 * time.Second,
	}
}

// Validate checks configuration correctness.
func (c GeminiConfig) Validate() error {
	if c.Project == "" {
		return fmt.Errorf("project is required")
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("call timeout must be positive")
	}
	return nil
}

// Gemini implements Client against Vertex AI. Because variant availability
// is region-dependent, a separate genai client is kept per region; clients
// are created lazily and reused for the process lifetime.
type Gemini struct {
	cfg GeminiConfig

	mu      sync.Mutex
	clients map[string]*genai.Client
}

// NewGemini creates a Vertex AI backed generation client.
func NewGemini(cfg GeminiConfig) *Gemini {
	return &Gemini{
		cfg:     cfg,
		clients: make(map[string]*genai.Client),
	}
}

// clientFor returns the cached client for a region, creating it on first use.
func (g *Gemini) clientFor(ctx context.Context, region string) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if client, ok := g.clients[region]; ok {
		return client, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  g.cfg.Project,
		Location: region,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, NewError(KindTransient, fmt.Errorf("create vertex client for %s: %w", region, err))
	}

	g.clients[region] = client
	return client, nil
}

// Generate performs one generation call against the given candidate.
// All failures are returned as *Error with a classified kind.
func (g *Gemini) Generate(ctx context.Context, candidate Candidate, prompt string, opts Options) (string, error) {
	client, err := g.clientFor(ctx, candidate.Region)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.CallTimeout)
	defer cancel()

	config := &genai.GenerateContentConfig{}
	if opts.Temperature > 0 {
		temp := opts.Temperature
		config.Temperature = &temp
	}
	if opts.MaxOutputTokens > 0 {
		config.MaxOutputTokens = opts.MaxOutputTokens
	}
	if opts.ResponseMIMEType != "" {
		config.ResponseMIMEType = opts.ResponseMIMEType
	}

	start := time.Now()
	result, err := client.Models.GenerateContent(ctx, candidate.Variant, genai.Text(prompt), config)
	duration := time.Since(start)

	if err != nil {
		classified := classifyBackendError(err)
		slog.Warn("generation call failed",
			slog.String("candidate", candidate.String()),
			slog.String("kind", KindOf(classified).String()),
			slog.Duration("duration", duration),
			slog.Any("error", err))
		return "", classified
	}

	if result == nil {
		return "", NewError(KindTransient, fmt.Errorf("nil response from backend"))
	}

	return result.Text(), nil
}

// classifyBackendError maps a genai transport error onto the closed
// error-kind set. HTTP status codes are preferred; a string match over
// the error text is the fallback for errors the SDK does not type.
func classifyBackendError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(KindTimeout, err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429:
			return NewError(KindQuotaExceeded, err)
		case apiErr.Code == 404:
			return NewError(KindVariantUnavailable, err)
		case apiErr.Code == 408 || apiErr.Code >= 500:
			return NewError(KindTransient, err)
		default:
			return NewError(KindOther, err)
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"),
		strings.Contains(msg, "quota"),
		strings.Contains(msg, "resource_exhausted"),
		strings.Contains(msg, "resource exhausted"):
		return NewError(KindQuotaExceeded, err)
	case strings.Contains(msg, "404"),
		strings.Contains(msg, "not found"),
		strings.Contains(msg, "not_found"):
		return NewError(KindVariantUnavailable, err)
	case strings.Contains(msg, "500"),
		strings.Contains(msg, "503"),
		strings.Contains(msg, "unavailable"),
		strings.Contains(msg, "overloaded"),
		strings.Contains(msg, "deadline"),
		strings.Contains(msg, "connection"):
		return NewError(KindTransient, err)
	}

	return NewError(KindOther, err)
}
