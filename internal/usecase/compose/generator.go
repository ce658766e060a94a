package compose

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"autobloom/internal/domain/entity"
	"autobloom/internal/infra/textgen"
)

// promptHintLimit caps how many compliance phrases a prompt carries.
const promptHintLimit = 50

// Generator writes soft-sell marketing articles. The strategy is fixed:
// educate first, introduce the product late, close with the configured
// call to action.
type Generator struct {
	invoker textgen.Invoker
	variant string
	rules   *ComplianceRules

	// CTA is appended verbatim at the end of every article.
	CTA string
}

// NewGenerator creates a Generator using the given generation variant.
func NewGenerator(invoker textgen.Invoker, variant string, rules *ComplianceRules, cta string) *Generator {
	if rules == nil {
		rules = &ComplianceRules{}
	}
	return &Generator{
		invoker: invoker,
		variant: variant,
		rules:   rules,
		CTA:     cta,
	}
}

// GenerateInput carries everything the generation prompt is built from.
type GenerateInput struct {
	// Product is the product the article should soft-sell.
	Product entity.Product

	// Research is the digest produced by Researcher.ResearchProduct.
	// May be empty.
	Research string

	// Topic is the trending angle to anchor the article to. Nil lets the
	// model choose one.
	Topic *entity.HotTopic

	// Feedback carries reviewer feedback when regenerating a rejected
	// draft.
	Feedback string
}

// Generate produces one publishable article.
func (g *Generator) Generate(ctx context.Context, input GenerateInput) (*entity.Article, error) {
	prompt := g.buildPrompt(input)

	article, err := textgen.InvokeJSON[entity.Article](ctx, g.invoker, g.variant, prompt, jsonOptions())
	if err != nil {
		return nil, fmt.Errorf("generate article for %s: %w", input.Product.Name, err)
	}

	if err := article.Validate(); err != nil {
		return nil, fmt.Errorf("generated article invalid: %w", err)
	}

	slog.Info("article generated",
		slog.String("product", input.Product.Name),
		slog.String("title", article.Title),
		slog.Int("content_length", len(article.ContentHTML)))
	return &article, nil
}

func (g *Generator) buildPrompt(input GenerateInput) string {
	var b strings.Builder

	b.WriteString("Act as a Thai cosmetic SEO expert and copywriter.\n\n")
	fmt.Fprintf(&b, `Task: write an engaging, education-first article in Thai about a
health or beauty topic that naturally leads to the product %q.

Product info:
%s
`, input.Product.Name, input.Product.Description)

	if input.Topic != nil {
		fmt.Fprintf(&b, "\nTopic focus: %s (%s)\n", input.Topic.Topic, input.Topic.Reason)
		if len(input.Topic.Keywords) > 0 {
			fmt.Fprintf(&b, "Target keywords: %s\n", strings.Join(input.Topic.Keywords, ", "))
		}
	} else {
		b.WriteString("\nTopic focus: choose a trending skincare or health topic relevant to the product benefits.\n")
	}

	if input.Research != "" {
		fmt.Fprintf(&b, "\nScientific research to draw on:\n%s\n", input.Research)
	}

	fmt.Fprintf(&b, `
Strategy (soft sell):
1. Start with a hook about a common problem or trend (80%% of the content).
2. Educate the reader on ingredients or solutions, citing the research.
3. Gently introduce %q as a solution containing these ingredients (20%%).
4. End with the call to action.
`, input.Product.Name)

	b.WriteString("\nCompliance rules (Thai FDA):\n")
	b.WriteString("- Use ONLY allowed claims. Never over-claim (no \"cure\", \"instant\", \"miracle\").\n")
	if len(g.rules.Forbidden) > 0 {
		fmt.Fprintf(&b, "- Forbidden examples: %s\n", promptList(g.rules.Forbidden, promptHintLimit))
	}
	if len(g.rules.Allowed) > 0 {
		fmt.Fprintf(&b, "- Allowed examples: %s\n", promptList(g.rules.Allowed, promptHintLimit))
	}

	if input.Feedback != "" {
		fmt.Fprintf(&b, "\nEditor feedback on the previous draft, fix all of it:\n%s\n", input.Feedback)
	}

	b.WriteString(`
Respond with JSON only:
{
  "title": "catchy SEO title in Thai",
  "content_html": "<p>...</p> full article body",
  "excerpt": "short summary",
  "slug": "lowercase-url-slug-in-english",
  "seo_keyphrase": "focus keyphrase",
  "seo_meta_description": "under 160 characters",
  "tags": ["tag1", "tag2"],
  "categories": ["Health/Beauty"],
  "faq_schema_html": "optional FAQ section with schema.org markup"
}
`)

	if g.CTA != "" {
		fmt.Fprintf(&b, "\nThe CTA at the end of content_html must be EXACTLY:\n%s\n", g.CTA)
	}
	return b.String()
}
