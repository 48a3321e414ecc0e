package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"infocollector/internal/config"
	"infocollector/internal/domain"
)

// Kind classifies transport failures so callers can decide how to react.
type Kind int

const (
	KindUnknown Kind = iota
	KindTimeout
	KindHTTPStatus
	KindConnectionFailed
)

// String names the failure class for logs.
func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindHTTPStatus:
		return "http_status"
	case KindConnectionFailed:
		return "connection_failed"
	default:
		return "unknown"
	}
}

// Error is a classified transport failure. Status is set for KindHTTPStatus.
type Error struct {
	Kind   Kind
	URL    string
	Status int
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("fetch %s: timed out", e.URL)
	case KindHTTPStatus:
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.Status)
	case KindConnectionFailed:
		return fmt.Sprintf("fetch %s: connection failed: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Fetcher retrieves remote documents with a browser-like identity, a bounded
// timeout and a redirect cap. It never retries; retry policy belongs to the
// caller.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
	logger    *slog.Logger
}

// New builds a Fetcher from fetch configuration.
func New(cfg config.FetchConfig, logger *slog.Logger) *Fetcher {
	maxRedirects := cfg.MaxRedirects
	client := &http.Client{
		Timeout: cfg.PageTimeout(),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
	return &Fetcher{
		client:    client,
		userAgent: cfg.UserAgent,
		maxBody:   cfg.MaxBodyBytes,
		logger:    logger,
	}
}

// Fetch issues a GET and returns the body plus the effective post-redirect
// URL. Failures are returned as *Error with a Kind classification.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*domain.FetchResult, error) {
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return nil, &Error{Kind: KindUnknown, URL: rawURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	req.Header.Set("Referer", "https://www.google.com/")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		ferr := classify(rawURL, err)
		f.debug("fetch failed", "url", rawURL, "kind", ferr.Kind.String(), "error", err)
		return nil, ferr
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		f.debug("fetch rejected", "url", rawURL, "status", resp.StatusCode)
		return nil, &Error{Kind: KindHTTPStatus, URL: rawURL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return nil, classify(rawURL, err)
	}

	final := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}

	f.debug("fetched", "url", final, "bytes", len(body), "elapsed", time.Since(start))

	return &domain.FetchResult{
		URL:         final,
		Body:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

func classify(rawURL string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, URL: rawURL, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, URL: rawURL, Err: err}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &Error{Kind: KindConnectionFailed, URL: rawURL, Err: err}
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{Kind: KindConnectionFailed, URL: rawURL, Err: err}
	}

	return &Error{Kind: KindUnknown, URL: rawURL, Err: err}
}

func (f *Fetcher) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
