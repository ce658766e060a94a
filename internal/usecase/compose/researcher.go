package compose

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"autobloom/internal/domain/entity"
	"autobloom/internal/infra/textgen"
)

// FeedSource retrieves competitor articles from one feed URL.
// *research.FeedFetcher satisfies it.
type FeedSource interface {
	Fetch(ctx context.Context, feedURL string) ([]entity.CompetitorArticle, error)
}

// PageReader extracts article text from a web page.
// *research.ContentFetcher satisfies it.
type PageReader interface {
	FetchContent(ctx context.Context, pageURL string) (string, error)
}

// Researcher surfaces trending topics and product science before an
// article is written. Feed failures are tolerated; research degrades to
// whatever sources answered.
type Researcher struct {
	invoker  textgen.Invoker
	variant  string
	feeds    FeedSource
	pages    PageReader
	feedURLs []string

	// maxEnrich bounds how many competitor items get full-text extraction.
	maxEnrich int
}

// NewResearcher creates a Researcher using the given generation variant.
// pages may be nil to skip full-text enrichment.
func NewResearcher(invoker textgen.Invoker, variant string, feeds FeedSource, pages PageReader, feedURLs []string) *Researcher {
	return &Researcher{
		invoker:   invoker,
		variant:   variant,
		feeds:     feeds,
		pages:     pages,
		feedURLs:  feedURLs,
		maxEnrich: 3,
	}
}

// hotTopicsPayload is the JSON shape the research prompt asks for.
type hotTopicsPayload struct {
	HotTopics []entity.HotTopic `json:"hot_topics"`
}

// productResearch is the JSON shape of a product deep dive.
type productResearch struct {
	TrendingTopics []string `json:"trending_topics"`
	References     []struct {
		Fact   string `json:"fact"`
		Source string `json:"source"`
	} `json:"scientific_references"`
	KeyTakeaways string `json:"key_takeaways"`
}

// ResearchHotTopics gathers competitor feeds and asks the model for
// trending angles grounded in what competitors publish. Feed errors are
// logged and skipped.
func (r *Researcher) ResearchHotTopics(ctx context.Context) (*entity.ResearchResults, error) {
	competitors := r.fetchCompetitors(ctx)

	prompt := r.hotTopicsPrompt(competitors)
	payload, err := textgen.InvokeJSON[hotTopicsPayload](ctx, r.invoker, r.variant, prompt, jsonOptions())
	if err != nil {
		return nil, fmt.Errorf("hot topic research: %w", err)
	}

	slog.Info("hot topic research completed",
		slog.Int("topics", len(payload.HotTopics)),
		slog.Int("competitor_articles", len(competitors)))

	return &entity.ResearchResults{
		HotTopics:   payload.HotTopics,
		Competitors: competitors,
	}, nil
}

// ResearchProduct gathers scientific backing for a product and returns a
// research digest the generator folds into its prompt.
func (r *Researcher) ResearchProduct(ctx context.Context, product entity.Product) (string, error) {
	prompt := fmt.Sprintf(`You are a beauty science researcher.
Product: %s
Description: %s

Task:
1. Identify trending skincare topics related to this product's ingredients.
2. Find scientific facts and studies that back up the benefits.
3. Pick 3-5 core facts worth citing in a blog post.

Respond with JSON only:
{
  "trending_topics": ["topic"],
  "scientific_references": [{"fact": "finding", "source": "citation"}],
  "key_takeaways": "summary of the research"
}`, product.Name, product.Description)

	research, err := textgen.InvokeJSON[productResearch](ctx, r.invoker, r.variant, prompt, jsonOptions())
	if err != nil {
		return "", fmt.Errorf("product research for %s: %w", product.Name, err)
	}

	var b strings.Builder
	for _, ref := range research.References {
		fmt.Fprintf(&b, "- %s (%s)\n", ref.Fact, ref.Source)
	}
	if research.KeyTakeaways != "" {
		b.WriteString(research.KeyTakeaways)
	}

	slog.Info("product research completed",
		slog.String("product", product.Name),
		slog.Int("references", len(research.References)))
	return b.String(), nil
}

// contentGapPayload is the JSON shape of a gap analysis.
type contentGapPayload struct {
	ContentGaps []struct {
		ProposedTitle string   `json:"proposed_title"`
		Rationale     string   `json:"rationale"`
		Keywords      []string `json:"keywords"`
	} `json:"content_gaps"`
}

// ResearchContentGap compares our published titles against competitor
// coverage and proposes the best uncovered angle. Used by weekly runs;
// callers fall back to hot-topic research when it fails.
func (r *Researcher) ResearchContentGap(ctx context.Context, ownTitles []string) (*entity.HotTopic, error) {
	competitors := r.fetchCompetitors(ctx)

	var b strings.Builder
	b.WriteString(`You are a Thai beauty market researcher doing a content gap analysis.

Our blog has already covered:
`)
	for i, title := range ownTitles {
		if i >= 50 {
			break
		}
		fmt.Fprintf(&b, "- %s\n", title)
	}
	b.WriteString("\nCompetitors recently published:\n")
	for i, c := range competitors {
		if i >= 15 {
			break
		}
		fmt.Fprintf(&b, "- %s: %s\n", c.Title, truncate(c.Summary, 200))
	}
	b.WriteString(`
Task: find skincare topics competitors cover that our blog does not, and
propose article angles that fill those gaps for a Thai audience.

Respond with JSON only:
{
  "content_gaps": [
    {"proposed_title": "article title", "rationale": "why this gap matters", "keywords": ["kw1", "kw2"]}
  ]
}
Order gaps best first.`)

	payload, err := textgen.InvokeJSON[contentGapPayload](ctx, r.invoker, r.variant, b.String(), jsonOptions())
	if err != nil {
		return nil, fmt.Errorf("content gap analysis: %w", err)
	}
	if len(payload.ContentGaps) == 0 {
		return nil, fmt.Errorf("content gap analysis returned no gaps")
	}

	best := payload.ContentGaps[0]
	slog.Info("content gap identified",
		slog.String("proposed_title", best.ProposedTitle),
		slog.Int("gaps", len(payload.ContentGaps)))

	return &entity.HotTopic{
		Topic:    best.ProposedTitle,
		Reason:   best.Rationale,
		Keywords: best.Keywords,
	}, nil
}

func (r *Researcher) fetchCompetitors(ctx context.Context) []entity.CompetitorArticle {
	var all []entity.CompetitorArticle
	for _, feedURL := range r.feedURLs {
		articles, err := r.feeds.Fetch(ctx, feedURL)
		if err != nil {
			slog.Warn("competitor feed unavailable, skipping",
				slog.String("url", feedURL),
				slog.Any("error", err))
			continue
		}
		all = append(all, articles...)
	}

	if r.pages != nil {
		r.enrich(ctx, all)
	}
	return all
}

// enrich replaces thin feed summaries with extracted page text for the
// first few items.
func (r *Researcher) enrich(ctx context.Context, articles []entity.CompetitorArticle) {
	enriched := 0
	for i := range articles {
		if enriched >= r.maxEnrich {
			return
		}
		if len(articles[i].Summary) >= 200 {
			continue
		}
		text, err := r.pages.FetchContent(ctx, articles[i].URL)
		if err != nil {
			slog.Warn("competitor page fetch failed",
				slog.String("url", articles[i].URL),
				slog.Any("error", err))
			continue
		}
		articles[i].Summary = truncate(text, 500)
		enriched++
	}
}

func (r *Researcher) hotTopicsPrompt(competitors []entity.CompetitorArticle) string {
	var b strings.Builder
	b.WriteString(`You are a Thai beauty market researcher.

Task: identify 3-5 skincare and health topics currently trending in Thailand
that a cosmetics blog should cover this week.

`)
	if len(competitors) > 0 {
		b.WriteString("Recent competitor articles for context:\n")
		for i, c := range competitors {
			if i >= 15 {
				break
			}
			fmt.Fprintf(&b, "- %s: %s\n", c.Title, truncate(c.Summary, 200))
		}
		b.WriteString("\nPrefer angles competitors have not covered yet.\n")
	}
	b.WriteString(`
Respond with JSON only:
{
  "hot_topics": [
    {"topic": "proposed article angle", "reason": "why it is timely", "keywords": ["kw1", "kw2"]}
  ]
}
Order topics best first.`)
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// jsonOptions asks the backend for a machine-readable response.
func jsonOptions() textgen.Options {
	return textgen.Options{
		Temperature:      0.7,
		ResponseMIMEType: "application/json",
	}
}
