package extract

import (
	"fmt"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/cixtor/readability"

	"infocollector/internal/domain"
	"infocollector/internal/textutil"
)

// readabilityStrategy is the generic reader-mode extractor. Applicable to any
// URL, so it terminates the chain.
type readabilityStrategy struct {
	conv     *md.Converter
	minChars int
}

func (s *readabilityStrategy) Name() string { return "readability" }

func (s *readabilityStrategy) Match(*url.URL) bool { return true }

func (s *readabilityStrategy) Extract(doc *goquery.Document, res *domain.FetchResult) (*domain.ExtractedArticle, error) {
	// Serialize the shared document rather than the raw body so mutations
	// made before dispatch, like materialized lazy images, are kept.
	html, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("serialize document: %w", ErrParseFailure)
	}

	article, err := readability.New().Parse(strings.NewReader(html), res.URL)
	if err != nil {
		return nil, fmt.Errorf("readability: %v: %w", err, ErrNoContent)
	}

	if textutil.RuneLen(strings.TrimSpace(article.TextContent)) < s.minChars {
		return nil, ErrNoContent
	}

	body, err := s.conv.ConvertString(article.Content)
	if err != nil {
		return nil, fmt.Errorf("convert markdown: %v: %w", err, ErrNoContent)
	}
	if textutil.RuneLen(strings.TrimSpace(body)) < s.minChars {
		return nil, ErrNoContent
	}

	return &domain.ExtractedArticle{
		Title:   article.Title,
		Author:  article.Byline,
		Excerpt: article.Excerpt,
		Body:    body,
	}, nil
}
