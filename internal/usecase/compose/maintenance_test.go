package compose

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autobloom/internal/domain/entity"
)

func TestAuditAndFix(t *testing.T) {
	publisher := newMockPublisher(
		entity.PublishedArticle{ID: 1, Title: "Fine Post", ContentHTML: "<p>Accurate.</p>"},
		entity.PublishedArticle{ID: 2, Title: "Bad Post", ContentHTML: "<p>This cures cancer.</p>"},
	)
	invoker := &mockInvoker{fn: func(prompt string) (string, error) {
		if strings.Contains(prompt, "cures cancer") {
			return `{"needs_update":true,"reason":"illegal claim","corrected_content_html":"<p>Supports wellbeing.</p>"}`, nil
		}
		return `{"needs_update":false,"reason":"","corrected_content_html":""}`, nil
	}}

	m := NewMaintainer(invoker, "gemini-2.5-flash", publisher)
	require.NoError(t, m.AuditAndFix(context.Background(), 10, false))

	require.Len(t, publisher.updated, 1)
	assert.Equal(t, "<p>Supports wellbeing.</p>", publisher.updated[2].ContentHTML)
}

func TestAuditAndFix_DryRun(t *testing.T) {
	publisher := newMockPublisher(
		entity.PublishedArticle{ID: 2, Title: "Bad Post", ContentHTML: "<p>This cures cancer.</p>"},
	)
	invoker := &mockInvoker{fn: func(string) (string, error) {
		return `{"needs_update":true,"reason":"illegal claim","corrected_content_html":"<p>Fixed.</p>"}`, nil
	}}

	m := NewMaintainer(invoker, "gemini-2.5-flash", publisher)
	require.NoError(t, m.AuditAndFix(context.Background(), 10, true))
	assert.Empty(t, publisher.updated)
}

func TestAuditAndFix_PerPostFailureTolerated(t *testing.T) {
	publisher := newMockPublisher(
		entity.PublishedArticle{ID: 1, Title: "Broken", ContentHTML: "<p>x</p>"},
		entity.PublishedArticle{ID: 2, Title: "Bad Post", ContentHTML: "<p>This cures cancer.</p>"},
	)
	invoker := &mockInvoker{fn: func(prompt string) (string, error) {
		if strings.Contains(prompt, "Broken") {
			return "not json at all", nil
		}
		return `{"needs_update":true,"reason":"claim","corrected_content_html":"<p>Fixed.</p>"}`, nil
	}}

	m := NewMaintainer(invoker, "gemini-2.5-flash", publisher)
	require.NoError(t, m.AuditAndFix(context.Background(), 10, false))

	// The malformed audit is skipped, the valid one still lands.
	require.Len(t, publisher.updated, 1)
	assert.Contains(t, publisher.updated[2].ContentHTML, "Fixed")
}

func TestOptimizeSEO_RewritesWeakPost(t *testing.T) {
	publisher := newMockPublisher(
		entity.PublishedArticle{ID: 7, Title: "x", ContentHTML: "<p>thin</p>"},
	)
	rewritten := validGeneratedArticle()
	invoker := &mockInvoker{fn: func(string) (string, error) {
		return mustJSON(t, rewritten), nil
	}}

	m := NewMaintainer(invoker, "gemini-2.5-flash", publisher)
	require.NoError(t, m.OptimizeSEO(context.Background(), 10, false))

	require.Len(t, publisher.updated, 1)
	assert.Equal(t, rewritten.Title, publisher.updated[7].Title)
}

func TestOptimizeSEO_SkipsHealthyPost(t *testing.T) {
	healthy := validGeneratedArticle()
	publisher := newMockPublisher(
		entity.PublishedArticle{ID: 8, Title: healthy.Title, ContentHTML: optimizedHTML()},
	)
	invoker := &mockInvoker{}

	m := NewMaintainer(invoker, "gemini-2.5-flash", publisher)
	require.NoError(t, m.OptimizeSEO(context.Background(), 10, false))

	assert.Empty(t, publisher.updated)
	assert.Equal(t, 0, invoker.promptCount())
}
