package research

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-shiori/go-readability"

	"autobloom/internal/domain/entity"
	"autobloom/internal/resilience/circuitbreaker"
)

// Content fetch failures.
var (
	ErrTooManyRedirects = errors.New("too many redirects")
	ErrBodyTooLarge     = errors.New("response body too large")
	ErrNoContent        = errors.New("no readable content found")
)

// ContentFetchConfig configures full-text extraction from competitor pages.
type ContentFetchConfig struct {
	// Timeout bounds one page fetch.
	Timeout time.Duration

	// MaxBodySize bounds the response size in bytes.
	MaxBodySize int64

	// MaxRedirects bounds the redirect chain.
	MaxRedirects int

	// DenyPrivateIPs blocks fetches resolving to private networks.
	// Disabled only in tests.
	DenyPrivateIPs bool
}

// DefaultContentFetchConfig returns production defaults.
func DefaultContentFetchConfig() ContentFetchConfig {
	return ContentFetchConfig{
		Timeout:        20 * time.Second,
		MaxBodySize:    5 << 20, // 5 MiB
		MaxRedirects:   5,
		DenyPrivateIPs: true,
	}
}

// ContentFetcher extracts clean article text from competitor pages using
// the Mozilla Readability algorithm. Safe for concurrent use.
type ContentFetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	config         ContentFetchConfig
}

// NewContentFetcher creates a ContentFetcher. Redirect targets are
// re-validated so a public page cannot bounce the crawler into a private
// network.
func NewContentFetcher(config ContentFetchConfig) *ContentFetcher {
	fetcher := &ContentFetcher{
		circuitBreaker: circuitbreaker.New(circuitbreaker.ContentFetchConfig()),
		config:         config,
	}

	fetcher.client = &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= fetcher.config.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			if fetcher.config.DenyPrivateIPs {
				if err := entity.ValidateURL(req.URL.String()); err != nil {
					return fmt.Errorf("redirect target rejected: %w", err)
				}
			}
			return nil
		},
	}
	return fetcher
}

// FetchContent fetches a page and extracts its article text.
func (f *ContentFetcher) FetchContent(ctx context.Context, pageURL string) (string, error) {
	if f.config.DenyPrivateIPs {
		if err := entity.ValidateURL(pageURL); err != nil {
			return "", err
		}
	}

	result, err := f.circuitBreaker.Execute(func() (interface{}, error) {
		return f.doFetch(ctx, pageURL)
	})
	if err != nil {
		return "", err
	}

	return result.(string), nil
}

func (f *ContentFetcher) doFetch(ctx context.Context, pageURL string) (interface{}, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		// Surface redirect validation failures without the url.Error wrapper.
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Err != nil {
			return "", urlErr.Err
		}
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	limited := io.LimitReader(resp.Body, f.config.MaxBodySize+1)
	htmlBytes, err := io.ReadAll(limited)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(htmlBytes)) > f.config.MaxBodySize {
		return "", fmt.Errorf("%w: over %d bytes", ErrBodyTooLarge, f.config.MaxBodySize)
	}

	finalURL, _ := url.Parse(pageURL)
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL
	}

	article, err := readability.FromReader(bytes.NewReader(htmlBytes), finalURL)
	if err != nil {
		return "", fmt.Errorf("extract content: %w", err)
	}

	if article.TextContent == "" {
		if article.Content == "" {
			return "", ErrNoContent
		}
		return article.Content, nil
	}
	return article.TextContent, nil
}
