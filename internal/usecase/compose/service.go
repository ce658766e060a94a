package compose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"autobloom/internal/domain/entity"
	"autobloom/internal/infra/wordpress"
)

var (
	// ErrAlreadyPostedToday is returned when the daily guard blocks a run.
	ErrAlreadyPostedToday = errors.New("a post was already published today")
	// ErrNoProducts is returned when the catalog is empty.
	ErrNoProducts = errors.New("product catalog is empty")
)

// Mode selects the pipeline behavior for one run.
type Mode string

const (
	// ModeDaily publishes one trend-matched article per day.
	ModeDaily Mode = "daily"
	// ModeWeekly targets content gaps found by comparing our published
	// titles against competitor coverage, falling back to the daily
	// path when the analysis fails.
	ModeWeekly Mode = "weekly"
	// ModeManual skips the one-post-per-day guard and scheduling offset.
	ModeManual Mode = "manual"
)

// RunOptions configures one pipeline run.
type RunOptions struct {
	Mode Mode

	// DryRun generates and reviews but never publishes.
	DryRun bool

	// SkipMaintenance skips the post-publish maintenance sweep.
	SkipMaintenance bool

	// ProductName forces a specific catalog product instead of selection.
	ProductName string
}

// RunResult reports what one pipeline run produced.
type RunResult struct {
	// Article is the final reviewed draft.
	Article *entity.Article

	// Published is set when the article reached the remote site.
	Published *entity.PublishedArticle

	// Review is the final review verdict.
	Review *entity.ReviewResult
}

// Pipeline runs the full cycle: research, product selection, generation,
// review, publishing and maintenance. Research failures degrade the run
// rather than abort it; only generation and publishing failures are
// fatal.
type Pipeline struct {
	researcher *Researcher
	generator  *Generator
	reviewer   *Reviewer
	maintainer *Maintainer
	publisher  Publisher
	history    *History
	products   []entity.Product

	// Limits for the maintenance sweep after a run.
	AuditLimit int
	SEOLimit   int

	// now and scheduleOffset are injectable for tests.
	now            func() time.Time
	scheduleOffset func() time.Duration
}

// NewPipeline wires the pipeline. products must come from the catalog
// loader.
func NewPipeline(
	researcher *Researcher,
	generator *Generator,
	reviewer *Reviewer,
	maintainer *Maintainer,
	publisher Publisher,
	history *History,
	products []entity.Product,
) *Pipeline {
	return &Pipeline{
		researcher: researcher,
		generator:  generator,
		reviewer:   reviewer,
		maintainer: maintainer,
		publisher:  publisher,
		history:    history,
		products:   products,
		AuditLimit: 5,
		SEOLimit:   2,
		now:        time.Now,
		scheduleOffset: func() time.Duration {
			// Spread scheduled posts 10-120 minutes out so publish times
			// do not look mechanical.
			return time.Duration(10+rand.Intn(111)) * time.Minute
		},
	}
}

// Run executes one pipeline cycle.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	runID := uuid.New().String()
	start := time.Now()

	slog.Info("pipeline run started",
		slog.String("run_id", runID),
		slog.String("mode", string(opts.Mode)),
		slog.Bool("dry_run", opts.DryRun))

	if p.guardDaily(opts) {
		slog.Info("daily post already published, running maintenance only",
			slog.String("run_id", runID))
		if !opts.SkipMaintenance {
			p.runMaintenance(ctx, runID, opts.DryRun)
		}
		return nil, ErrAlreadyPostedToday
	}
	if len(p.products) == 0 {
		return nil, ErrNoProducts
	}

	// Research degrades gracefully: a dead feed or exhausted backend
	// still leaves a publishable run.
	var topic *entity.HotTopic
	if opts.Mode == ModeWeekly {
		topic = p.researchGap(ctx, runID)
	}
	if topic == nil {
		research := p.research(ctx, runID)
		if research != nil && len(research.HotTopics) > 0 {
			topic = &research.HotTopics[0]
			slog.Info("top trending topic selected",
				slog.String("run_id", runID),
				slog.String("topic", topic.Topic))
		}
	}

	product, err := p.selectProduct(topic, opts.ProductName)
	if err != nil {
		return nil, err
	}

	digest, err := p.researcher.ResearchProduct(ctx, product)
	if err != nil {
		slog.Warn("product research failed, generating without it",
			slog.String("run_id", runID),
			slog.Any("error", err))
	}

	article, review, err := p.generateAndReview(ctx, runID, GenerateInput{
		Product:  product,
		Research: digest,
		Topic:    topic,
	})
	if err != nil {
		return nil, err
	}

	result := &RunResult{Article: article, Review: review}

	if opts.DryRun {
		slog.Info("dry run, skipping publish",
			slog.String("run_id", runID),
			slog.String("title", article.Title))
	} else {
		published, err := p.publish(ctx, runID, article, opts.Mode)
		if err != nil {
			return nil, err
		}
		result.Published = published

		if err := p.history.MarkPosted(product.Name); err != nil {
			slog.Error("failed to persist post history",
				slog.String("run_id", runID),
				slog.Any("error", err))
		}
	}

	if !opts.SkipMaintenance {
		p.runMaintenance(ctx, runID, opts.DryRun)
	}

	slog.Info("pipeline run completed",
		slog.String("run_id", runID),
		slog.Duration("duration", time.Since(start)))
	return result, nil
}

// guardDaily reports whether the one-post-per-day guard blocks this run.
func (p *Pipeline) guardDaily(opts RunOptions) bool {
	if opts.Mode != ModeDaily && opts.Mode != ModeWeekly {
		return false
	}
	if opts.DryRun {
		return false
	}
	return p.history.PostedToday()
}

// researchGap runs the weekly content gap analysis: our published
// titles against competitor coverage. Any failure falls back to the
// daily hot-topic path.
func (p *Pipeline) researchGap(ctx context.Context, runID string) *entity.HotTopic {
	ownTitles := p.ownTitles(ctx, runID)

	topic, err := p.researcher.ResearchContentGap(ctx, ownTitles)
	if err != nil {
		slog.Warn("content gap analysis failed, falling back to hot topics",
			slog.String("run_id", runID),
			slog.Any("error", err))
		return nil
	}
	slog.Info("content gap topic selected",
		slog.String("run_id", runID),
		slog.String("topic", topic.Topic))
	return topic
}

func (p *Pipeline) ownTitles(ctx context.Context, runID string) []string {
	posts, err := p.publisher.ListPosts(ctx, wordpress.ListParams{Status: "publish", PerPage: 50})
	if err != nil {
		slog.Warn("could not list own posts for gap analysis",
			slog.String("run_id", runID),
			slog.Any("error", err))
		return nil
	}
	titles := make([]string, 0, len(posts))
	for _, post := range posts {
		titles = append(titles, post.Title)
	}
	return titles
}

func (p *Pipeline) research(ctx context.Context, runID string) *entity.ResearchResults {
	research, err := p.researcher.ResearchHotTopics(ctx)
	if err != nil {
		slog.Warn("hot topic research failed, continuing without a trend",
			slog.String("run_id", runID),
			slog.Any("error", err))
		return nil
	}
	return research
}

func (p *Pipeline) selectProduct(topic *entity.HotTopic, forced string) (entity.Product, error) {
	if forced != "" {
		for _, product := range p.products {
			if product.Name == forced {
				return product, nil
			}
		}
		return entity.Product{}, fmt.Errorf("product %q not found in catalog", forced)
	}
	return p.history.SelectProduct(p.products, topic)
}

// generateAndReview produces a draft and regenerates it once when the
// review rejects it. A second rejection ships the draft anyway with a
// warning; the deterministic forbidden-word scan already passed.
func (p *Pipeline) generateAndReview(ctx context.Context, runID string, input GenerateInput) (*entity.Article, *entity.ReviewResult, error) {
	article, err := p.generator.Generate(ctx, input)
	if err != nil {
		return nil, nil, fmt.Errorf("generation failed: %w", err)
	}

	review, err := p.reviewer.Review(ctx, article)
	if err != nil {
		slog.Warn("review failed, publishing unreviewed draft",
			slog.String("run_id", runID),
			slog.Any("error", err))
		return article, nil, nil
	}
	if review.Approved {
		return article, review, nil
	}

	slog.Info("draft rejected, regenerating with feedback",
		slog.String("run_id", runID),
		slog.String("feedback", review.Feedback))

	input.Feedback = review.Feedback
	revised, err := p.generator.Generate(ctx, input)
	if err != nil {
		return nil, nil, fmt.Errorf("regeneration failed: %w", err)
	}

	revisedReview, err := p.reviewer.Review(ctx, revised)
	if err == nil && !revisedReview.Approved {
		slog.Warn("revised draft still rejected, publishing anyway",
			slog.String("run_id", runID),
			slog.String("feedback", revisedReview.Feedback))
	}
	if revisedReview == nil {
		revisedReview = review
	}
	return revised, revisedReview, nil
}

func (p *Pipeline) publish(ctx context.Context, runID string, article *entity.Article, mode Mode) (*entity.PublishedArticle, error) {
	status := "publish"
	var publishAt time.Time
	if mode == ModeDaily || mode == ModeWeekly {
		publishAt = p.now().Add(p.scheduleOffset())
		status = "future"
	}

	published, err := p.publisher.CreatePost(ctx, article, status, publishAt)
	if err != nil {
		return nil, fmt.Errorf("publish failed: %w", err)
	}

	slog.Info("article published",
		slog.String("run_id", runID),
		slog.Int64("post_id", published.ID),
		slog.String("status", published.Status),
		slog.String("link", published.Link))
	return published, nil
}

func (p *Pipeline) runMaintenance(ctx context.Context, runID string, dryRun bool) {
	if p.maintainer == nil {
		return
	}
	if err := p.maintainer.AuditAndFix(ctx, p.AuditLimit, dryRun); err != nil {
		slog.Warn("maintenance audit failed",
			slog.String("run_id", runID),
			slog.Any("error", err))
	}
	if err := p.maintainer.OptimizeSEO(ctx, p.SEOLimit, dryRun); err != nil {
		slog.Warn("seo maintenance failed",
			slog.String("run_id", runID),
			slog.Any("error", err))
	}
}
