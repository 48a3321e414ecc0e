// Package ingest parses syndication feeds and turns surviving items into
// library content: resolve the item body, backfill short excerpts with a
// full-page extraction, apply the subscription's keyword filter, and drop
// items already present in the library.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/semaphore"

	"infocollector/internal/config"
	"infocollector/internal/domain"
	"infocollector/internal/ports"
	"infocollector/internal/textutil"
)

// Deps wires the ingester's collaborators.
type Deps struct {
	Fetcher   ports.PageFetcher
	Extractor ports.ArticleExtractor
	Contents  ports.ContentStore
	FetchCfg  config.FetchConfig
	IngestCfg config.IngestConfig
	Logger    *slog.Logger
}

// Ingester processes one feed source at a time.
type Ingester struct {
	parser    *gofeed.Parser
	fetcher   ports.PageFetcher
	extractor ports.ArticleExtractor
	contents  ports.ContentStore
	fetchSem  *semaphore.Weighted
	cfg       config.IngestConfig
	logger    *slog.Logger
}

var _ ports.SourceIngester = (*Ingester)(nil)

// New builds an Ingester. The feed parser gets its own client with the feed
// timeout, which is tighter than the page-fetch timeout.
func New(deps Deps) *Ingester {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: deps.FetchCfg.FeedTimeout()}
	parser.UserAgent = deps.FetchCfg.UserAgent

	concurrency := deps.FetchCfg.MaxConcurrentFetches
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Ingester{
		parser:    parser,
		fetcher:   deps.Fetcher,
		extractor: deps.Extractor,
		contents:  deps.Contents,
		fetchSem:  semaphore.NewWeighted(concurrency),
		cfg:       deps.IngestCfg,
		logger:    deps.Logger,
	}
}

// Ingest parses the feed at src.URL and persists every surviving item as new
// content. Only a feed-level parse failure is returned as an error: item-level
// failures are counted in the report and logged, they never fail the source.
func (in *Ingester) Ingest(ctx context.Context, src domain.Source, sub domain.Subscription) (domain.IngestReport, error) {
	var report domain.IngestReport

	feed, err := in.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return report, fmt.Errorf("parse feed %s: %w", src.URL, err)
	}

	items := feed.Items
	if in.cfg.MaxItemsPerFeed > 0 && len(items) > in.cfg.MaxItemsPerFeed {
		items = items[:in.cfg.MaxItemsPerFeed]
	}

	in.debug("feed parsed", "url", src.URL, "items", len(items), "feed_title", feed.Title)

	for _, raw := range items {
		item := toFeedItem(raw)
		if err := in.processItem(ctx, item, sub, &report); err != nil {
			report.Failed++
			in.warn("item processing failed", "link", item.Link, "error", err)
		}
	}

	return report, nil
}

func (in *Ingester) processItem(ctx context.Context, item domain.FeedItem, sub domain.Subscription, report *domain.IngestReport) error {
	body := item.Body()
	summary := textutil.Snippet(plainPrefix(body), in.cfg.SummaryPrefixChars)

	// Backfill: a short excerpt with a link is worth a full-page fetch. On
	// extraction failure keep the feed-supplied body.
	if textutil.RuneLen(body) < in.cfg.BackfillThresholdChars && item.Link != "" {
		if article := in.backfill(ctx, item.Link); article != nil {
			body = article.Body
			summary = article.Excerpt
			if summary == "" {
				summary = textutil.Snippet(body, in.cfg.SummaryPrefixChars)
			}
			if item.Author == "" {
				item.Author = article.Author
			}
			if item.PublishedAt == nil {
				item.PublishedAt = article.PublishedAt
			}
		}
	}

	if !matchesKeywords(sub.Keywords, item.Title, body) {
		in.debug("item filtered by keywords", "title", item.Title)
		report.Filtered++
		return nil
	}

	// Snapshot of the library taken at item start; with sequential item
	// processing this also sees content created earlier in the same pass.
	existing, err := in.contents.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load existing content: %w", err)
	}
	if isDuplicate(existing, item) {
		in.debug("item already ingested", "title", item.Title, "link", item.Link)
		report.Duplicates++
		return nil
	}

	content := domain.Content{
		Type:        domain.TypeURL,
		Title:       item.Title,
		Body:        body,
		SourceURL:   item.Link,
		Author:      item.Author,
		PublishedAt: item.PublishedAt,
		Tags:        buildTags(sub),
		Summary:     summary,
	}
	if sub.CategoryID != "" {
		content.CategoryIDs = []string{sub.CategoryID}
	}

	id, err := in.contents.Create(ctx, content)
	if err != nil {
		return fmt.Errorf("create content: %w", err)
	}

	in.debug("content created", "id", id, "title", item.Title)
	report.Created++
	return nil
}

// backfill fetches and extracts the linked page, bounded by the shared fetch
// semaphore. Returns nil on any failure; the caller keeps the feed body.
func (in *Ingester) backfill(ctx context.Context, link string) *domain.ExtractedArticle {
	if in.fetcher == nil || in.extractor == nil {
		return nil
	}

	if err := in.fetchSem.Acquire(ctx, 1); err != nil {
		return nil
	}
	res, err := in.fetcher.Fetch(ctx, link)
	in.fetchSem.Release(1)
	if err != nil {
		in.warn("backfill fetch failed", "link", link, "error", err)
		return nil
	}

	article, err := in.extractor.Extract(res)
	if err != nil {
		in.warn("backfill extraction failed", "link", link, "error", err)
		return nil
	}

	in.debug("backfilled item body", "link", link,
		"chars", textutil.RuneLen(article.Body), "low_confidence", article.LowConfidence)
	return article
}

// matchesKeywords keeps the item when the subscription declares no keywords,
// or when at least one keyword appears in title+body (case-insensitive).
func matchesKeywords(keywords []string, title, body string) bool {
	if len(keywords) == 0 {
		return true
	}

	haystack := strings.ToLower(title + " " + body)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

// isDuplicate checks the item against the whole library: the same article
// syndicated by multiple sources must be ingested once.
func isDuplicate(existing []domain.Content, item domain.FeedItem) bool {
	for _, c := range existing {
		if c.SourceURL == "" {
			continue
		}
		if item.Link != "" && c.SourceURL == item.Link {
			return true
		}
		if item.GUID != "" && c.SourceURL == item.GUID {
			return true
		}
	}
	return false
}

// subscriptionTag marks content created by the subscription pipeline, as
// opposed to manually added library entries.
const subscriptionTag = "订阅"

func buildTags(sub domain.Subscription) []string {
	tags := make([]string, 0, 3)
	if sub.Company != "" {
		tags = append(tags, sub.Company)
	}
	tags = append(tags, subscriptionTag, domain.SourceRSS)
	return tags
}

// toFeedItem maps a parsed entry onto the pipeline's item shape, keeping the
// content variants separate for the precedence rule.
func toFeedItem(item *gofeed.Item) domain.FeedItem {
	out := domain.FeedItem{
		Title:          item.Title,
		EncodedContent: encodedContent(item),
		Content:        item.Content,
		Description:    item.Description,
		Link:           item.Link,
		GUID:           item.GUID,
	}

	if item.Author != nil && item.Author.Name != "" {
		out.Author = item.Author.Name
	} else if len(item.Authors) > 0 && item.Authors[0] != nil {
		out.Author = item.Authors[0].Name
	}

	switch {
	case item.PublishedParsed != nil:
		out.PublishedAt = item.PublishedParsed
	case item.UpdatedParsed != nil:
		out.PublishedAt = item.UpdatedParsed
	}

	return out
}

func encodedContent(item *gofeed.Item) string {
	ext, ok := item.Extensions["content"]
	if !ok {
		return ""
	}
	vals, ok := ext["encoded"]
	if !ok || len(vals) == 0 {
		return ""
	}
	return vals[0].Value
}

// plainPrefix strips the crudest HTML noise from a feed body so summaries do
// not start with tags.
func plainPrefix(body string) string {
	if !strings.Contains(body, "<") {
		return body
	}
	var sb strings.Builder
	inTag := false
	for _, r := range body {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(sb.String())
}

func (in *Ingester) debug(msg string, args ...any) {
	if in.logger != nil {
		in.logger.Debug(msg, args...)
	}
}

func (in *Ingester) warn(msg string, args ...any) {
	if in.logger != nil {
		in.logger.Warn(msg, args...)
	}
}
