// Package wordpress publishes articles through the WordPress REST API.
// The client layers rate limiting, a circuit breaker and retry with
// backoff over plain REST calls, mirroring the resilience applied to the
// generation backend.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"autobloom/internal/domain/entity"
	"autobloom/internal/resilience/circuitbreaker"
	"autobloom/internal/resilience/retry"
)

// Config contains configuration for the WordPress REST client.
type Config struct {
	// BaseURL is the site root, e.g. "https://blog.example.com".
	BaseURL string

	// Username is the publishing account.
	Username string

	// AppPassword is the WordPress application password.
	AppPassword string

	// RequestsPerSecond bounds the sustained call rate.
	RequestsPerSecond float64

	// Burst is the rate limiter burst size.
	Burst int

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// DefaultStatus is used when a publish call does not specify one.
	DefaultStatus string
}

// Client is a resilient WordPress REST API client.
type Client struct {
	config         Config
	httpClient     *http.Client
	rateLimiter    *RateLimiter
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewClient creates a WordPress client with rate limiting, circuit
// breaking and retry configured.
func NewClient(config Config) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimiter:    NewRateLimiter(config.RequestsPerSecond, config.Burst),
		circuitBreaker: circuitbreaker.New(circuitbreaker.WordPressAPIConfig()),
		retryConfig:    retry.WordPressAPIConfig(),
	}
}

// Yoast SEO meta field keys accepted by the posts endpoint when the Yoast
// REST meta surface is enabled.
const (
	yoastFocusKeyphraseKey  = "_yoast_wpseo_focuskw"
	yoastMetaDescriptionKey = "_yoast_wpseo_metadesc"
)

// postRequest is the JSON body for post create and update calls.
type postRequest struct {
	Title   string            `json:"title,omitempty"`
	Content string            `json:"content,omitempty"`
	Excerpt string            `json:"excerpt,omitempty"`
	Slug    string            `json:"slug,omitempty"`
	Status  string            `json:"status,omitempty"`
	Date    string            `json:"date,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// rendered is the WordPress rendered-field wrapper.
type rendered struct {
	Rendered string `json:"rendered"`
}

// postResponse is the JSON shape returned by the posts endpoint.
type postResponse struct {
	ID       int64    `json:"id"`
	Link     string   `json:"link"`
	Slug     string   `json:"slug"`
	Status   string   `json:"status"`
	Date     string   `json:"date"`
	Modified string   `json:"modified"`
	Title    rendered `json:"title"`
	Content  rendered `json:"content"`
}

// mediaResponse is the JSON shape returned by the media endpoint.
type mediaResponse struct {
	ID        int64  `json:"id"`
	SourceURL string `json:"source_url"`
}

// ListParams filters ListPosts calls.
type ListParams struct {
	// Status filters by post status, e.g. "publish". Empty means default.
	Status string

	// Search is a free-text search term.
	Search string

	// PerPage bounds the page size. Zero means the WordPress default.
	PerPage int

	// Page selects the result page, 1-based. Zero means first.
	Page int
}

// CreatePost publishes an article as a new post. publishAt schedules the
// post when it lies in the future; the zero time publishes immediately.
func (c *Client) CreatePost(ctx context.Context, article *entity.Article, status string, publishAt time.Time) (*entity.PublishedArticle, error) {
	if err := article.Validate(); err != nil {
		return nil, fmt.Errorf("article not publishable: %w", err)
	}
	if status == "" {
		status = c.config.DefaultStatus
	}

	req := c.buildPostRequest(article)
	req.Status = status
	if !publishAt.IsZero() {
		req.Date = publishAt.Format("2006-01-02T15:04:05")
	}

	var resp postResponse
	if err := c.do(ctx, http.MethodPost, "/wp-json/wp/v2/posts", req, &resp); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return toPublishedArticle(&resp), nil
}

// UpdatePost overwrites an existing post with refreshed content.
func (c *Client) UpdatePost(ctx context.Context, id int64, article *entity.Article) (*entity.PublishedArticle, error) {
	if err := article.Validate(); err != nil {
		return nil, fmt.Errorf("article not publishable: %w", err)
	}

	req := c.buildPostRequest(article)

	var resp postResponse
	path := fmt.Sprintf("/wp-json/wp/v2/posts/%d", id)
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, fmt.Errorf("update post %d: %w", id, err)
	}
	return toPublishedArticle(&resp), nil
}

// ListPosts returns existing posts, newest first.
func (c *Client) ListPosts(ctx context.Context, params ListParams) ([]entity.PublishedArticle, error) {
	query := url.Values{}
	if params.Status != "" {
		query.Set("status", params.Status)
	}
	if params.Search != "" {
		query.Set("search", params.Search)
	}
	if params.PerPage > 0 {
		query.Set("per_page", strconv.Itoa(params.PerPage))
	}
	if params.Page > 0 {
		query.Set("page", strconv.Itoa(params.Page))
	}

	path := "/wp-json/wp/v2/posts"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var resp []postResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	posts := make([]entity.PublishedArticle, 0, len(resp))
	for i := range resp {
		posts = append(posts, *toPublishedArticle(&resp[i]))
	}
	return posts, nil
}

// UploadMedia uploads a file to the media library and returns its
// attachment ID and public URL.
func (c *Client) UploadMedia(ctx context.Context, filename string, data []byte, contentType string) (int64, string, error) {
	if err := c.rateLimiter.Allow(ctx); err != nil {
		return 0, "", fmt.Errorf("rate limit: %w", err)
	}

	var resp mediaResponse
	err := retry.WithBackoff(ctx, c.retryConfig, func() error {
		_, cbErr := c.circuitBreaker.Execute(func() (interface{}, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/wp-json/wp/v2/media", bytes.NewReader(data))
			if err != nil {
				return nil, err
			}
			req.SetBasicAuth(c.config.Username, c.config.AppPassword)
			req.Header.Set("Content-Type", contentType)
			req.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
			return nil, c.roundTrip(req, &resp)
		})
		return cbErr
	})
	if err != nil {
		return 0, "", fmt.Errorf("upload media %s: %w", filename, err)
	}
	return resp.ID, resp.SourceURL, nil
}

func (c *Client) buildPostRequest(article *entity.Article) postRequest {
	req := postRequest{
		Title:   article.Title,
		Content: article.ContentHTML,
		Excerpt: article.Excerpt,
		Slug:    article.Slug,
	}
	if article.FAQSchemaHTML != "" {
		req.Content += "\n" + article.FAQSchemaHTML
	}
	if article.SEOKeyphrase != "" || article.SEOMetaDescription != "" {
		req.Meta = map[string]string{}
		if article.SEOKeyphrase != "" {
			req.Meta[yoastFocusKeyphraseKey] = article.SEOKeyphrase
		}
		if article.SEOMetaDescription != "" {
			req.Meta[yoastMetaDescriptionKey] = article.SEOMetaDescription
		}
	}
	return req
}

// do performs one JSON REST call with rate limiting, circuit breaking and
// retry.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.rateLimiter.Allow(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	requestID := uuid.New().String()
	start := time.Now()

	err := retry.WithBackoff(ctx, c.retryConfig, func() error {
		var payload io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("marshal request: %w", err)
			}
			payload = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, payload)
		if err != nil {
			return err
		}
		req.SetBasicAuth(c.config.Username, c.config.AppPassword)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		_, cbErr := c.circuitBreaker.Execute(func() (interface{}, error) {
			return nil, c.roundTrip(req, out)
		})
		return cbErr
	})

	if err != nil {
		slog.Error("wordpress call failed",
			slog.String("request_id", requestID),
			slog.String("method", method),
			slog.String("path", path),
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err))
		return err
	}

	slog.Info("wordpress call completed",
		slog.String("request_id", requestID),
		slog.String("method", method),
		slog.String("path", path),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// roundTrip executes one HTTP exchange and decodes the JSON response.
// Non-2xx statuses map to retry.HTTPError so the retry layer can tell
// server errors from client errors.
func (c *Client) roundTrip(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(data)
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return &retry.HTTPError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parseWPTime parses the zone-less timestamps WordPress returns.
func parseWPTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02T15:04:05", value); err == nil {
		return t
	}
	return time.Time{}
}

func toPublishedArticle(resp *postResponse) *entity.PublishedArticle {
	return &entity.PublishedArticle{
		ID:          resp.ID,
		Title:       resp.Title.Rendered,
		ContentHTML: resp.Content.Rendered,
		Slug:        resp.Slug,
		Link:        resp.Link,
		Status:      resp.Status,
		PublishedAt: parseWPTime(resp.Date),
		ModifiedAt:  parseWPTime(resp.Modified),
	}
}
