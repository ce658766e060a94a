package compose

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"autobloom/internal/domain/entity"
	"autobloom/internal/infra/textgen"
	"autobloom/internal/infra/wordpress"
)

// mockInvoker implements textgen.Invoker with a scripted response
// function.
type mockInvoker struct {
	mu      sync.Mutex
	prompts []string
	fn      func(prompt string) (string, error)
}

func (m *mockInvoker) Invoke(ctx context.Context, seed, prompt string, opts textgen.Options) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.fn != nil {
		return m.fn(prompt)
	}
	return "{}", nil
}

func (m *mockInvoker) promptCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func (m *mockInvoker) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// mockPublisher implements Publisher in memory.
type mockPublisher struct {
	mu      sync.Mutex
	posts   []entity.PublishedArticle
	created []entity.Article
	updated map[int64]entity.Article

	createStatus string
	createDate   time.Time
	createErr    error
	listErr      error
}

func newMockPublisher(posts ...entity.PublishedArticle) *mockPublisher {
	return &mockPublisher{
		posts:   posts,
		updated: map[int64]entity.Article{},
	}
}

func (m *mockPublisher) CreatePost(ctx context.Context, article *entity.Article, status string, publishAt time.Time) (*entity.PublishedArticle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = append(m.created, *article)
	m.createStatus = status
	m.createDate = publishAt
	return &entity.PublishedArticle{
		ID:     int64(100 + len(m.created)),
		Title:  article.Title,
		Slug:   article.Slug,
		Status: status,
		Link:   "https://blog.example.com/" + article.Slug,
	}, nil
}

func (m *mockPublisher) UpdatePost(ctx context.Context, id int64, article *entity.Article) (*entity.PublishedArticle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updated[id] = *article
	return &entity.PublishedArticle{ID: id, Title: article.Title}, nil
}

func (m *mockPublisher) ListPosts(ctx context.Context, params wordpress.ListParams) ([]entity.PublishedArticle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	posts := m.posts
	if params.PerPage > 0 && len(posts) > params.PerPage {
		posts = posts[:params.PerPage]
	}
	return posts, nil
}

// mustJSON marshals v for scripted model responses.
func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func validGeneratedArticle() entity.Article {
	return entity.Article{
		Title:              "Collagen Benefits Explained by Dermatologists",
		ContentHTML:        "<p>Collagen keeps skin firm.</p><h2>The science</h2><p>Studies agree.</p>",
		Excerpt:            "What collagen really does.",
		Slug:               "collagen-benefits-explained",
		SEOKeyphrase:       "collagen benefits",
		SEOMetaDescription: "What collagen really does for your skin, according to research.",
		Tags:               []string{"collagen", "skincare"},
		Categories:         []string{"Health/Beauty"},
	}
}
