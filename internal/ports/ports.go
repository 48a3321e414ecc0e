package ports

import (
	"context"
	"time"

	"infocollector/internal/domain"
)

// ContentStore is the library the pipeline appends to. The pipeline never
// mutates existing records.
type ContentStore interface {
	GetAll(ctx context.Context) ([]domain.Content, error)
	Create(ctx context.Context, content domain.Content) (string, error)
}

// SubscriptionStore holds subscription records and their fetch bookkeeping.
type SubscriptionStore interface {
	GetAllSubscriptions(ctx context.Context) ([]domain.Subscription, error)
	Get(ctx context.Context, id string) (domain.Subscription, error)
	GetEnabledSubscriptions(ctx context.Context) ([]domain.Subscription, error)
	CreateSubscription(ctx context.Context, sub domain.Subscription) (string, error)
	UpdateSubscription(ctx context.Context, id string, patch domain.SubscriptionPatch) error
	MarkFetched(ctx context.Context, id string, at time.Time) error
}

// PageFetcher retrieves a remote document with a browser-like identity.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*domain.FetchResult, error)
}

// ArticleExtractor turns a fetched document into a normalized article.
type ArticleExtractor interface {
	Extract(res *domain.FetchResult) (*domain.ExtractedArticle, error)
}

// SourceIngester processes one feed source for a subscription.
type SourceIngester interface {
	Ingest(ctx context.Context, src domain.Source, sub domain.Subscription) (domain.IngestReport, error)
}
