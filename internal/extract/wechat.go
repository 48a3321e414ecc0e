package extract

import (
	"fmt"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"infocollector/internal/domain"
	"infocollector/internal/textutil"
)

// wechatStrategy extracts WeChat public-account articles. Their markup hides
// real content behind lazy-loaded attributes and exposes several candidate
// title/author elements, so readability loses most of the body there.
type wechatStrategy struct {
	conv     *md.Converter
	minChars int
}

var (
	wechatTitleSelectors   = []string{"#activity-name", ".rich_media_title", "title"}
	wechatAuthorSelectors  = []string{"#js_name", ".rich_media_meta_text"}
	wechatContentSelectors = []string{"#js_content", ".rich_media_content"}
)

func (s *wechatStrategy) Name() string { return "wechat" }

func (s *wechatStrategy) Match(u *url.URL) bool {
	return u.Hostname() == "mp.weixin.qq.com"
}

func (s *wechatStrategy) Extract(doc *goquery.Document, res *domain.FetchResult) (*domain.ExtractedArticle, error) {
	container, err := s.findContainer(doc)
	if err != nil {
		return nil, err
	}
	container.Find("script, style, mpvoice").Remove()

	html, err := container.Html()
	if err != nil {
		return nil, fmt.Errorf("serialize container: %w", ErrParseFailure)
	}
	body, err := s.conv.ConvertString(html)
	if err != nil {
		return nil, fmt.Errorf("convert markdown: %v: %w", err, ErrNoContent)
	}
	if textutil.RuneLen(strings.TrimSpace(body)) < s.minChars {
		return nil, ErrNoContent
	}

	return &domain.ExtractedArticle{
		Title:  firstText(doc, wechatTitleSelectors),
		Author: firstText(doc, wechatAuthorSelectors),
		Body:   body,
	}, nil
}

func (s *wechatStrategy) findContainer(doc *goquery.Document) (*goquery.Selection, error) {
	for _, sel := range wechatContentSelectors {
		container := doc.Find(sel).First()
		if container.Length() == 0 {
			continue
		}
		if textutil.RuneLen(strings.TrimSpace(container.Text())) >= s.minChars {
			return container, nil
		}
	}
	return nil, ErrNoContent
}
