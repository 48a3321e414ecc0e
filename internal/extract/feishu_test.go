package extract

import (
	"strings"
	"testing"

	"infocollector/internal/domain"
)

func TestFeishuDocExtraction(t *testing.T) {
	t.Parallel()

	chain := testChain()
	res := &domain.FetchResult{
		URL: "https://example.feishu.cn/docx/abc",
		Body: `<html><head><title>Design Notes - 飞书云文档</title></head><body>
			<div data-testid="docx-content">
				<h2>Overview</h2>` + longParagraph() + `
				<div class="comment-panel">noise</div>
			</div>
		</body></html>`,
	}

	article, err := chain.Extract(res)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}

	if article.Title != "Design Notes" {
		t.Fatalf("title suffix not cleaned: %q", article.Title)
	}
	if !strings.Contains(article.Body, "## Overview") {
		t.Fatalf("expected markdown heading, got %q", article.Body)
	}
	if strings.Contains(article.Body, "noise") {
		t.Fatalf("comment element leaked into body: %q", article.Body)
	}
	if article.LowConfidence {
		t.Fatal("container extraction must not be flagged low-confidence")
	}
}

func TestFeishuBodyTextFallback(t *testing.T) {
	t.Parallel()

	chain := testChain()
	text := strings.Repeat("scattered words outside any known container ", 10)
	res := &domain.FetchResult{
		URL:  "https://example.larksuite.com/docs/xyz",
		Body: `<html><head><title>Loose Doc - Lark Docs</title></head><body><span>` + text + `</span></body></html>`,
	}

	article, err := chain.Extract(res)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if !article.LowConfidence {
		t.Fatal("body-text fallback must be flagged low-confidence")
	}
	if article.Title != "Loose Doc" {
		t.Fatalf("title suffix not cleaned: %q", article.Title)
	}
	if !strings.Contains(article.Body, "scattered words") {
		t.Fatalf("fallback body missing page text: %q", article.Body)
	}
}

func TestFeishuFallbackTruncation(t *testing.T) {
	t.Parallel()

	chain := testChain()
	text := strings.Repeat("x", 9000)
	res := &domain.FetchResult{
		URL:  "https://example.feishu.cn/docs/long",
		Body: `<html><body><span>` + text + `</span></body></html>`,
	}

	article, err := chain.Extract(res)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(article.Body) != 5000 {
		t.Fatalf("expected body truncated to 5000 chars, got %d", len(article.Body))
	}
}
