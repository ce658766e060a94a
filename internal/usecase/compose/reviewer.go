package compose

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"autobloom/internal/domain/entity"
	"autobloom/internal/infra/textgen"
)

// Reviewer audits a draft for compliance and editorial quality before it
// may be published.
type Reviewer struct {
	invoker textgen.Invoker
	variant string
	rules   *ComplianceRules
}

// NewReviewer creates a Reviewer using the given generation variant.
func NewReviewer(invoker textgen.Invoker, variant string, rules *ComplianceRules) *Reviewer {
	if rules == nil {
		rules = &ComplianceRules{}
	}
	return &Reviewer{
		invoker: invoker,
		variant: variant,
		rules:   rules,
	}
}

// Review audits the article. A deterministic forbidden-word scan runs
// first; the model review adds tone and structure checks on top.
func (r *Reviewer) Review(ctx context.Context, article *entity.Article) (*entity.ReviewResult, error) {
	if hits := r.rules.ForbiddenHits(article.Title + " " + article.ContentHTML); len(hits) > 0 {
		slog.Warn("forbidden phrases found in draft",
			slog.String("title", article.Title),
			slog.Any("phrases", hits))
		return &entity.ReviewResult{
			Score:    1,
			Approved: false,
			Feedback: fmt.Sprintf("remove the forbidden phrases: %s", strings.Join(hits, ", ")),
		}, nil
	}

	prompt := r.buildPrompt(article)
	result, err := textgen.InvokeJSON[entity.ReviewResult](ctx, r.invoker, r.variant, prompt, jsonOptions())
	if err != nil {
		return nil, fmt.Errorf("review article: %w", err)
	}

	slog.Info("article reviewed",
		slog.String("title", article.Title),
		slog.Int("score", result.Score),
		slog.Bool("approved", result.Approved))
	return &result, nil
}

func (r *Reviewer) buildPrompt(article *entity.Article) string {
	var b strings.Builder

	b.WriteString("You are a professional editor and Thai FDA compliance officer.\n\n")
	fmt.Fprintf(&b, "Article title: %s\nArticle content:\n%s\n", article.Title, article.ContentHTML)

	if len(r.rules.Forbidden) > 0 {
		fmt.Fprintf(&b, "\nForbidden words: %s\n", promptList(r.rules.Forbidden, promptHintLimit))
	}
	if len(r.rules.Allowed) > 0 {
		fmt.Fprintf(&b, "Allowed words: %s\n", promptList(r.rules.Allowed, promptHintLimit))
	}

	b.WriteString(`
Task:
1. Check whether the article uses any forbidden word or over-claims.
2. Verify the tone is soft sell, not hard selling.
3. Check structural flow: introduction, scientific education, product tie-in, CTA.
4. Rate the article 1-10 and approve it or give concrete feedback.

Respond with JSON only:
{
  "score": 7,
  "approved": true,
  "feedback": "concrete issues when not approved, empty otherwise"
}`)
	return b.String()
}
