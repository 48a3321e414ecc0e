package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"infocollector/internal/domain"
	"infocollector/internal/textutil"
)

// feishuStrategy extracts Feishu/Lark cloud documents, whose markup varies by
// rendering mode. It tries an ordered list of content containers and, when
// all fall short, degrades to the page's visible text as a low-confidence
// result instead of failing outright.
type feishuStrategy struct {
	conv        *md.Converter
	minChars    int
	fallbackMin int
	fallbackMax int
}

var (
	feishuTitleSelectors = []string{"title", "h1", `[data-testid="title"]`, ".doc-title"}

	feishuContentSelectors = []string{
		`[data-testid="docx-content"]`,
		`[data-testid="doc-content"]`,
		".doc-content",
		".docx-content",
		`[class*="content"]`,
		"article",
		"main",
		`[role="main"]`,
	}

	// Feishu appends a product suffix to document titles.
	feishuTitleSuffix = regexp.MustCompile(`(?i)\s*[-–—]\s*(飞书|Feishu|Lark).*$`)
)

func (s *feishuStrategy) Name() string { return "feishu" }

func (s *feishuStrategy) Match(u *url.URL) bool {
	host := u.Hostname()
	return hostMatches(host, "feishu.cn") || hostMatches(host, "larksuite.com")
}

func hostMatches(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func (s *feishuStrategy) Extract(doc *goquery.Document, res *domain.FetchResult) (*domain.ExtractedArticle, error) {
	title := firstText(doc, feishuTitleSelectors)
	title = strings.TrimSpace(feishuTitleSuffix.ReplaceAllString(title, ""))

	container := s.findContainer(doc)
	if container == nil {
		return s.bodyTextFallback(doc, title)
	}

	container.Find(`script, style, [class*="comment"], [class*="toolbar"]`).Remove()

	html, err := container.Html()
	if err != nil {
		return nil, fmt.Errorf("serialize container: %w", ErrParseFailure)
	}
	body, err := s.conv.ConvertString(html)
	if err != nil {
		return nil, fmt.Errorf("convert markdown: %v: %w", err, ErrNoContent)
	}

	return &domain.ExtractedArticle{Title: title, Body: body}, nil
}

// findContainer prefers the first container meeting the full content
// threshold, then retries with the lower floor before giving up.
func (s *feishuStrategy) findContainer(doc *goquery.Document) *goquery.Selection {
	for _, floor := range []int{s.minChars, s.fallbackMin} {
		for _, sel := range feishuContentSelectors {
			container := doc.Find(sel).First()
			if container.Length() == 0 {
				continue
			}
			if textutil.RuneLen(strings.TrimSpace(container.Text())) >= floor {
				return container
			}
		}
	}
	return nil
}

// bodyTextFallback uses the whole page's visible text, truncated. Always
// succeeds structurally when the page has enough text, but is flagged
// low-confidence.
func (s *feishuStrategy) bodyTextFallback(doc *goquery.Document, title string) (*domain.ExtractedArticle, error) {
	bodyText := strings.TrimSpace(doc.Find("body").Text())
	if textutil.RuneLen(bodyText) < s.minChars {
		return nil, ErrNoContent
	}

	return &domain.ExtractedArticle{
		Title:         title,
		Body:          textutil.Truncate(bodyText, s.fallbackMax),
		LowConfidence: true,
	}, nil
}
