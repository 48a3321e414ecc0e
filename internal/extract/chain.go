// Package extract turns fetched HTML documents into normalized articles.
// Strategies are tried in fixed priority order: site-specific structural
// extractors first, a generic readability extractor last. The first strategy
// that matches the URL and produces enough content wins.
package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"infocollector/internal/config"
	"infocollector/internal/domain"
	"infocollector/internal/ports"
	"infocollector/internal/textutil"
)

var (
	// ErrNoContent means no strategy produced a body meeting the
	// minimum-content threshold.
	ErrNoContent = errors.New("no content extracted")
	// ErrParseFailure means the document or its URL could not be parsed.
	ErrParseFailure = errors.New("document parse failure")
)

// Placeholder title when a page supplies none, matching the library's
// untitled marker.
const untitled = "无标题"

const excerptChars = 200

// Strategy is one extraction algorithm. Match decides applicability by URL;
// Extract may return ErrNoContent to pass control to the next strategy.
type Strategy interface {
	Name() string
	Match(u *url.URL) bool
	Extract(doc *goquery.Document, res *domain.FetchResult) (*domain.ExtractedArticle, error)
}

// Chain evaluates strategies in priority order.
type Chain struct {
	strategies []Strategy
	logger     *slog.Logger
}

var _ ports.ArticleExtractor = (*Chain)(nil)

// NewChain wires the default strategy order: WeChat articles, Feishu
// documents, then generic readability.
func NewChain(cfg config.ExtractConfig, logger *slog.Logger) *Chain {
	conv := newConverter()
	return &Chain{
		strategies: []Strategy{
			&wechatStrategy{conv: conv, minChars: cfg.MinContentChars},
			&feishuStrategy{
				conv:        conv,
				minChars:    cfg.MinContentChars,
				fallbackMin: cfg.FallbackMinChars,
				fallbackMax: cfg.FallbackMaxChars,
			},
			&readabilityStrategy{conv: conv, minChars: cfg.MinContentChars},
		},
		logger: logger,
	}
}

// Extract runs the chain against a fetched document. ErrNoContent is returned
// when every applicable strategy fell short of the minimum-content threshold.
func (c *Chain) Extract(res *domain.FetchResult) (*domain.ExtractedArticle, error) {
	u, err := url.Parse(res.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", res.URL, ErrParseFailure)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.Body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", ErrParseFailure)
	}

	materializeLazyImages(doc)

	for _, strategy := range c.strategies {
		if !strategy.Match(u) {
			continue
		}

		article, err := strategy.Extract(doc, res)
		if err != nil {
			if errors.Is(err, ErrNoContent) {
				c.debug("strategy fell through", "strategy", strategy.Name(), "url", res.URL)
				continue
			}
			return nil, fmt.Errorf("strategy %s: %w", strategy.Name(), err)
		}

		normalize(article)
		c.debug("extracted", "strategy", strategy.Name(), "url", res.URL,
			"chars", textutil.RuneLen(article.Body), "low_confidence", article.LowConfidence)
		return article, nil
	}

	return nil, ErrNoContent
}

func normalize(article *domain.ExtractedArticle) {
	article.Title = strings.TrimSpace(article.Title)
	if article.Title == "" {
		article.Title = untitled
	}
	article.Body = strings.TrimSpace(article.Body)
	article.Author = strings.TrimSpace(article.Author)
	article.Excerpt = strings.TrimSpace(article.Excerpt)
	if article.Excerpt == "" {
		article.Excerpt = textutil.Snippet(article.Body, excerptChars)
	}
}

// materializeLazyImages copies data-src into src so lazy-loaded images
// survive extraction. Done once on the shared document: a site strategy that
// falls through must leave the images in place for the strategies after it.
func materializeLazyImages(doc *goquery.Document) {
	doc.Find("img[data-src]").Each(func(_ int, img *goquery.Selection) {
		dataSrc := strings.TrimSpace(img.AttrOr("data-src", ""))
		if dataSrc != "" && img.AttrOr("src", "") == "" {
			img.SetAttr("src", dataSrc)
		}
	})
}

// firstText returns the trimmed text of the first selector with a non-empty
// match.
func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func (c *Chain) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
