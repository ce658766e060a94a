package compose

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReview_Approves(t *testing.T) {
	invoker := &mockInvoker{fn: func(prompt string) (string, error) {
		return `{"score":8,"approved":true,"feedback":""}`, nil
	}}
	r := NewReviewer(invoker, "gemini-2.5-flash", &ComplianceRules{Forbidden: []string{"miracle"}})

	article := validGeneratedArticle()
	result, err := r.Review(context.Background(), &article)
	require.NoError(t, err)
	assert.True(t, result.Approved)
	assert.Equal(t, 8, result.Score)
}

func TestReview_ForbiddenWordShortCircuits(t *testing.T) {
	invoker := &mockInvoker{}
	r := NewReviewer(invoker, "gemini-2.5-flash", &ComplianceRules{Forbidden: []string{"miracle"}})

	article := validGeneratedArticle()
	article.ContentHTML = "<p>This miracle drink fixes everything.</p>"

	result, err := r.Review(context.Background(), &article)
	require.NoError(t, err)
	assert.False(t, result.Approved)
	assert.Contains(t, result.Feedback, "miracle")

	// Deterministic scan rejected the draft without a backend call.
	assert.Equal(t, 0, invoker.promptCount())
}

func TestReview_FencedResponseRecovered(t *testing.T) {
	invoker := &mockInvoker{fn: func(string) (string, error) {
		return "```json\n{\"score\":4,\"approved\":false,\"feedback\":\"too salesy\"}\n```", nil
	}}
	r := NewReviewer(invoker, "gemini-2.5-flash", nil)

	article := validGeneratedArticle()
	result, err := r.Review(context.Background(), &article)
	require.NoError(t, err)
	assert.False(t, result.Approved)
	assert.Equal(t, "too salesy", result.Feedback)
}
