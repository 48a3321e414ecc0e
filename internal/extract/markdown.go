package extract

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// newConverter builds the shared HTML-to-markdown converter: atx headings,
// fenced code blocks, and an image rule that emits ![alt](src "title") and
// drops images without a source attribute entirely.
func newConverter() *md.Converter {
	conv := md.NewConverter("", true, &md.Options{
		HeadingStyle:   "atx",
		CodeBlockStyle: "fenced",
	})

	conv.AddRules(md.Rule{
		Filter: []string{"img"},
		Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
			src := strings.TrimSpace(selec.AttrOr("src", ""))
			if src == "" {
				return md.String("")
			}
			alt := selec.AttrOr("alt", "")
			if title := strings.TrimSpace(selec.AttrOr("title", "")); title != "" {
				return md.String(fmt.Sprintf("![%s](%s %q)", alt, src, title))
			}
			return md.String(fmt.Sprintf("![%s](%s)", alt, src))
		},
	})

	return conv
}
