package compose

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"autobloom/internal/domain/entity"
	"autobloom/internal/infra/textgen"
	"autobloom/internal/infra/wordpress"
)

// Publisher is the remote site surface the pipeline needs.
// *wordpress.Client satisfies it.
type Publisher interface {
	CreatePost(ctx context.Context, article *entity.Article, status string, publishAt time.Time) (*entity.PublishedArticle, error)
	UpdatePost(ctx context.Context, id int64, article *entity.Article) (*entity.PublishedArticle, error)
	ListPosts(ctx context.Context, params wordpress.ListParams) ([]entity.PublishedArticle, error)
}

// seoFixThreshold marks posts worth rewriting. Posts scoring at or above
// it are left alone.
const seoFixThreshold = 60

// Maintainer keeps already published posts healthy: it audits recent
// posts for misleading claims and rewrites posts with weak SEO.
type Maintainer struct {
	invoker   textgen.Invoker
	variant   string
	publisher Publisher

	// Concurrency bounds parallel post audits.
	Concurrency int
}

// NewMaintainer creates a Maintainer using the given generation variant.
func NewMaintainer(invoker textgen.Invoker, variant string, publisher Publisher) *Maintainer {
	return &Maintainer{
		invoker:     invoker,
		variant:     variant,
		publisher:   publisher,
		Concurrency: 2,
	}
}

// auditResult is the JSON verdict of one post audit.
type auditResult struct {
	NeedsUpdate          bool   `json:"needs_update"`
	Reason               string `json:"reason"`
	CorrectedContentHTML string `json:"corrected_content_html"`
}

// AuditAndFix reviews the most recent posts for misleading information,
// broken CTAs and outdated claims, rewriting the ones that need it. Posts
// are audited concurrently; per-post failures are logged and skipped.
func (m *Maintainer) AuditAndFix(ctx context.Context, limit int, dryRun bool) error {
	posts, err := m.publisher.ListPosts(ctx, wordpress.ListParams{Status: "publish", PerPage: limit})
	if err != nil {
		return fmt.Errorf("list posts for audit: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.Concurrency)

	for _, post := range posts {
		g.Go(func() error {
			if err := m.auditPost(gctx, post, dryRun); err != nil {
				slog.Warn("post audit failed, skipping",
					slog.Int64("post_id", post.ID),
					slog.Any("error", err))
			}
			return nil
		})
	}
	return g.Wait()
}

func (m *Maintainer) auditPost(ctx context.Context, post entity.PublishedArticle, dryRun bool) error {
	prompt := fmt.Sprintf(`You are a maintenance auditor for a skincare blog.
Post title: %s
Post content:
%s

Task:
1. Identify misleading information or outdated scientific claims.
2. Check for broken CTAs or incorrect product info.
3. If fixes are needed, provide the FULL corrected HTML content.

Respond with JSON only:
{
  "needs_update": false,
  "reason": "why it needs an update",
  "corrected_content_html": "full HTML when needs_update is true, else empty"
}`, post.Title, post.ContentHTML)

	verdict, err := textgen.InvokeJSON[auditResult](ctx, m.invoker, m.variant, prompt, jsonOptions())
	if err != nil {
		return err
	}

	if !verdict.NeedsUpdate {
		slog.Info("post audit clean", slog.Int64("post_id", post.ID))
		return nil
	}
	if strings.TrimSpace(verdict.CorrectedContentHTML) == "" {
		return fmt.Errorf("audit flagged post %d but returned no corrected content", post.ID)
	}

	slog.Info("post needs update",
		slog.Int64("post_id", post.ID),
		slog.String("title", post.Title),
		slog.String("reason", verdict.Reason),
		slog.Bool("dry_run", dryRun))
	if dryRun {
		return nil
	}

	_, err = m.publisher.UpdatePost(ctx, post.ID, &entity.Article{
		Title:       post.Title,
		ContentHTML: verdict.CorrectedContentHTML,
	})
	return err
}

// OptimizeSEO rescores recent posts and rewrites the weakest ones. Only
// posts scoring below the threshold are touched.
func (m *Maintainer) OptimizeSEO(ctx context.Context, limit int, dryRun bool) error {
	posts, err := m.publisher.ListPosts(ctx, wordpress.ListParams{Status: "publish", PerPage: limit})
	if err != nil {
		return fmt.Errorf("list posts for seo pass: %w", err)
	}

	for _, post := range posts {
		report := AnalyzeSEO(post.ContentHTML, keyphraseFromTitle(post.Title), post.Title, "")
		if report.SEOScore >= seoFixThreshold {
			continue
		}

		slog.Info("post scored below seo threshold",
			slog.Int64("post_id", post.ID),
			slog.Int("seo_score", report.SEOScore),
			slog.Int("readability_score", report.ReadabilityScore),
			slog.Bool("dry_run", dryRun))
		if dryRun {
			continue
		}

		if err := m.rewriteForSEO(ctx, post, report); err != nil {
			slog.Warn("seo rewrite failed, skipping",
				slog.Int64("post_id", post.ID),
				slog.Any("error", err))
		}
	}
	return nil
}

func (m *Maintainer) rewriteForSEO(ctx context.Context, post entity.PublishedArticle, report SEOReport) error {
	prompt := fmt.Sprintf(`You are an SEO editor for a skincare blog.
Post title: %s
Current SEO score: %d/100. Current readability score: %d/100.
Post content:
%s

Task: rewrite the post to improve SEO without changing its substance.
Use the focus keyphrase in the first paragraph, add h2/h3 subheadings,
keep sentences short, keep all product claims exactly as they are.

Respond with JSON only:
{
  "title": "improved title",
  "content_html": "full rewritten HTML",
  "excerpt": "short summary",
  "seo_keyphrase": "focus keyphrase",
  "seo_meta_description": "under 160 characters"
}`, post.Title, report.SEOScore, report.ReadabilityScore, post.ContentHTML)

	article, err := textgen.InvokeJSON[entity.Article](ctx, m.invoker, m.variant, prompt, jsonOptions())
	if err != nil {
		return err
	}
	if err := article.Validate(); err != nil {
		return fmt.Errorf("rewritten post invalid: %w", err)
	}

	_, err = m.publisher.UpdatePost(ctx, post.ID, &article)
	return err
}

// keyphraseFromTitle derives a scoring keyphrase when none is stored. The
// leading words of the title are the best cheap guess.
func keyphraseFromTitle(title string) string {
	words := strings.Fields(title)
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.Join(words, " ")
}
