// Package research gathers raw material for topic research: competitor
// RSS feeds and full article text extraction.
package research

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"

	"autobloom/internal/domain/entity"
	"autobloom/internal/resilience/circuitbreaker"
	"autobloom/internal/resilience/retry"
)

// userAgent identifies our crawler to competitor sites.
const userAgent = "AutobloomBot/1.0"

// FeedFetcher retrieves competitor RSS/Atom feeds using the gofeed
// library with circuit breaker and retry logic.
type FeedFetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config

	// MaxItems bounds the number of entries taken per feed. Zero means
	// all of them.
	MaxItems int
}

// NewFeedFetcher creates a FeedFetcher with the given HTTP client.
func NewFeedFetcher(client *http.Client) *FeedFetcher {
	return &FeedFetcher{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
		MaxItems:       20,
	}
}

// Fetch retrieves and parses one competitor feed.
func (f *FeedFetcher) Fetch(ctx context.Context, feedURL string) ([]entity.CompetitorArticle, error) {
	var articles []entity.CompetitorArticle

	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		cbResult, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, feedURL)
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("feed fetch circuit breaker open, request rejected",
					slog.String("url", feedURL),
					slog.String("state", f.circuitBreaker.State().String()))
			}
			return err
		}

		articles = cbResult.([]entity.CompetitorArticle)
		return nil
	})

	if retryErr != nil {
		return nil, retryErr
	}

	return articles, nil
}

// doFetch performs the actual feed fetch without retry or circuit breaker.
func (f *FeedFetcher) doFetch(ctx context.Context, feedURL string) ([]entity.CompetitorArticle, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = userAgent
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	items := feed.Items
	if f.MaxItems > 0 && len(items) > f.MaxItems {
		items = items[:f.MaxItems]
	}

	articles := make([]entity.CompetitorArticle, 0, len(items))
	for _, it := range items {
		pubAt := time.Now()
		if it.PublishedParsed != nil {
			pubAt = *it.PublishedParsed
		}

		summary := it.Description
		if summary == "" {
			summary = it.Content
		}

		articles = append(articles, entity.CompetitorArticle{
			Title:       it.Title,
			URL:         it.Link,
			Summary:     summary,
			PublishedAt: pubAt,
		})
	}

	return articles, nil
}
