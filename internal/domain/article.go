package domain

import "time"

// FetchResult carries a fetched document. URL is the effective address after
// redirects and must be used as the base for relative links.
type FetchResult struct {
	URL         string
	Body        string
	ContentType string
}

// ExtractedArticle is the normalized output of the extraction chain. Body is
// lightweight markup, never raw HTML. LowConfidence marks results produced by
// a whole-page text fallback rather than a proper content container.
type ExtractedArticle struct {
	Title         string
	Body          string
	Author        string
	Excerpt       string
	PublishedAt   *time.Time
	LowConfidence bool
}

// FeedItem is a single syndicated entry. The three content variants are kept
// separate so the precedence rule stays visible at the call site.
type FeedItem struct {
	Title          string
	EncodedContent string
	Content        string
	Description    string
	Link           string
	Author         string
	GUID           string
	PublishedAt    *time.Time
}

// Body resolves the effective item body: encoded content wins, then the plain
// content field, then the description.
func (it FeedItem) Body() string {
	return firstNonEmpty(it.EncodedContent, it.Content, it.Description)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
