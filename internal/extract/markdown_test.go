package extract

import (
	"strings"
	"testing"
)

func TestConverterImageRule(t *testing.T) {
	t.Parallel()

	conv := newConverter()

	out, err := conv.ConvertString(`<p>before</p><img src="https://a.example/x.png" alt="chart" title="Q3">`)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !strings.Contains(out, `![chart](https://a.example/x.png "Q3")`) {
		t.Fatalf("image rule not applied: %q", out)
	}
}

func TestConverterImageRuleWithoutTitle(t *testing.T) {
	t.Parallel()

	conv := newConverter()

	out, err := conv.ConvertString(`<img src="https://a.example/x.png" alt="chart">`)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !strings.Contains(out, "![chart](https://a.example/x.png)") {
		t.Fatalf("image rule not applied: %q", out)
	}
}

func TestConverterDropsImagesWithoutSource(t *testing.T) {
	t.Parallel()

	conv := newConverter()

	out, err := conv.ConvertString(`<p>text</p><img alt="ghost">`)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if strings.Contains(out, "ghost") || strings.Contains(out, "![") {
		t.Fatalf("src-less image should be dropped: %q", out)
	}
}

func TestConverterAtxHeadings(t *testing.T) {
	t.Parallel()

	conv := newConverter()

	out, err := conv.ConvertString("<h2>Section</h2><p>body</p>")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !strings.Contains(out, "## Section") {
		t.Fatalf("expected atx heading, got %q", out)
	}
}
