// Package entity defines the core domain entities and validation logic for
// the application. It contains the fundamental business objects such as
// Article and Product, along with their validation rules and domain-specific
// errors.
package entity

import (
	"regexp"
	"time"
)

// slugPattern matches lowercase URL slugs: letters, digits, hyphens.
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Article is a generated marketing article ready for publishing.
type Article struct {
	// Title is the post headline.
	Title string `json:"title"`

	// ContentHTML is the full article body as WordPress-ready HTML.
	ContentHTML string `json:"content_html"`

	// Excerpt is the short teaser shown in listings.
	Excerpt string `json:"excerpt"`

	// Slug is the URL path segment for the post.
	Slug string `json:"slug"`

	// SEOKeyphrase is the focus keyphrase the article targets.
	SEOKeyphrase string `json:"seo_keyphrase"`

	// SEOMetaDescription is the meta description for search snippets.
	SEOMetaDescription string `json:"seo_meta_description"`

	// Tags are free-form post tags.
	Tags []string `json:"tags"`

	// Categories are the post categories.
	Categories []string `json:"categories"`

	// FAQSchemaHTML is an optional FAQ section with schema.org markup.
	FAQSchemaHTML string `json:"faq_schema_html,omitempty"`
}

// Validate checks that the article is complete enough to publish.
func (a *Article) Validate() error {
	if a.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if a.ContentHTML == "" {
		return &ValidationError{Field: "content_html", Message: "content is required"}
	}
	if a.Slug != "" && !slugPattern.MatchString(a.Slug) {
		return &ValidationError{Field: "slug", Message: "slug must be lowercase letters, digits and hyphens"}
	}
	if len(a.SEOMetaDescription) > 160 {
		return &ValidationError{Field: "seo_meta_description", Message: "meta description must not exceed 160 characters"}
	}
	return nil
}

// PublishedArticle is an article as it exists on the remote site.
type PublishedArticle struct {
	ID          int64
	Title       string
	ContentHTML string
	Slug        string
	Link        string
	Status      string
	PublishedAt time.Time
	ModifiedAt  time.Time
}
