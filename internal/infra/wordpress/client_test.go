package wordpress

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autobloom/internal/domain/entity"
	"autobloom/internal/resilience/retry"
)

func testArticle() *entity.Article {
	return &entity.Article{
		Title:              "Five Ways to Brew Better Coffee",
		ContentHTML:        "<p>Grind fresh.</p>",
		Excerpt:            "Small changes, better cup.",
		Slug:               "five-ways-to-brew-better-coffee",
		SEOKeyphrase:       "brew better coffee",
		SEOMetaDescription: "Practical brewing tips.",
	}
}

func testClient(serverURL string) *Client {
	c := NewClient(Config{
		BaseURL:           serverURL,
		Username:          "publisher",
		AppPassword:       "secret",
		RequestsPerSecond: 100,
		Burst:             10,
		Timeout:           5 * time.Second,
		DefaultStatus:     "draft",
	})
	// Fast retries for tests.
	c.retryConfig = retry.Config{
		MaxAttempts:    3,
		InitialDelay:   5 * time.Millisecond,
		MaxDelay:       20 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0,
	}
	return c
}

func TestClient_CreatePost(t *testing.T) {
	var captured postRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/wp-json/wp/v2/posts", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "publisher", user)
		assert.Equal(t, "secret", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{
			"id": 321,
			"link": "https://blog.example.com/five-ways",
			"slug": "five-ways-to-brew-better-coffee",
			"status": "draft",
			"date": "2026-08-24T09:00:00",
			"modified": "2026-08-24T09:00:00",
			"title": {"rendered": "Five Ways to Brew Better Coffee"}
		}`))
	}))
	defer server.Close()

	c := testClient(server.URL)
	post, err := c.CreatePost(context.Background(), testArticle(), "", time.Time{})
	require.NoError(t, err)

	assert.Equal(t, int64(321), post.ID)
	assert.Equal(t, "Five Ways to Brew Better Coffee", post.Title)
	assert.Equal(t, "draft", post.Status)
	assert.Equal(t, 2026, post.PublishedAt.Year())

	assert.Equal(t, "draft", captured.Status)
	assert.Equal(t, "brew better coffee", captured.Meta[yoastFocusKeyphraseKey])
	assert.Equal(t, "Practical brewing tips.", captured.Meta[yoastMetaDescriptionKey])
	assert.Empty(t, captured.Date)
}

func TestClient_CreatePost_Scheduled(t *testing.T) {
	var captured postRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 1, "status": "future", "title": {"rendered": "x"}}`))
	}))
	defer server.Close()

	c := testClient(server.URL)
	publishAt := time.Date(2026, 9, 1, 7, 30, 0, 0, time.UTC)
	_, err := c.CreatePost(context.Background(), testArticle(), "future", publishAt)
	require.NoError(t, err)

	assert.Equal(t, "future", captured.Status)
	assert.Equal(t, "2026-09-01T07:30:00", captured.Date)
}

func TestClient_CreatePost_InvalidArticle(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	c := testClient(server.URL)
	_, err := c.CreatePost(context.Background(), &entity.Article{}, "", time.Time{})
	assert.Error(t, err)
	assert.Equal(t, 0, calls)
}

func TestClient_UpdatePost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wp/v2/posts/42", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id": 42, "status": "publish", "title": {"rendered": "Updated"}}`))
	}))
	defer server.Close()

	c := testClient(server.URL)
	post, err := c.UpdatePost(context.Background(), 42, testArticle())
	require.NoError(t, err)
	assert.Equal(t, int64(42), post.ID)
	assert.Equal(t, "Updated", post.Title)
}

func TestClient_ListPosts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "publish", r.URL.Query().Get("status"))
		assert.Equal(t, "5", r.URL.Query().Get("per_page"))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[
			{"id": 1, "slug": "a", "status": "publish", "title": {"rendered": "A"}},
			{"id": 2, "slug": "b", "status": "publish", "title": {"rendered": "B"}}
		]`))
	}))
	defer server.Close()

	c := testClient(server.URL)
	posts, err := c.ListPosts(context.Background(), ListParams{Status: "publish", PerPage: 5})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "A", posts[0].Title)
	assert.Equal(t, int64(2), posts[1].ID)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := testClient(server.URL)
	_, err := c.ListPosts(context.Background(), ListParams{})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":"rest_cannot_create"}`))
	}))
	defer server.Close()

	c := testClient(server.URL)
	_, err := c.CreatePost(context.Background(), testArticle(), "", time.Time{})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var httpErr *retry.HTTPError
	assert.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.StatusCode)
}

func TestClient_UploadMedia(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wp/v2/media", r.URL.Path)
		assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
		assert.Contains(t, r.Header.Get("Content-Disposition"), `filename="hero.png"`)

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, []byte{1, 2, 3}, body)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 77, "source_url": "https://blog.example.com/hero.png"}`))
	}))
	defer server.Close()

	c := testClient(server.URL)
	id, sourceURL, err := c.UploadMedia(context.Background(), "hero.png", []byte{1, 2, 3}, "image/png")
	require.NoError(t, err)
	assert.Equal(t, int64(77), id)
	assert.Equal(t, "https://blog.example.com/hero.png", sourceURL)
}

func TestParseWPTime(t *testing.T) {
	assert.Equal(t, time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC), parseWPTime("2026-08-24T09:00:00"))
	assert.False(t, parseWPTime("2026-08-24T09:00:00Z").IsZero())
	assert.True(t, parseWPTime("").IsZero())
	assert.True(t, parseWPTime("not a time").IsZero())
}
