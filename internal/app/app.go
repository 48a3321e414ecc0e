package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"infocollector/internal/config"
	"infocollector/internal/domain"
	"infocollector/internal/extract"
	"infocollector/internal/fetcher"
	"infocollector/internal/ingest"
	"infocollector/internal/logging"
	"infocollector/internal/scheduler"
	"infocollector/internal/storage"
)

// Application wires configuration to the pipeline components and owns their
// lifecycle.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	store  *storage.Store
	fetch  *fetcher.Fetcher
	chain  *extract.Chain
	sched  *scheduler.Scheduler
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	fetch := fetcher.New(cfg.Fetch, baseLogger.With("component", "fetcher"))
	chain := extract.NewChain(cfg.Extract, baseLogger.With("component", "extract"))

	ingester := ingest.New(ingest.Deps{
		Fetcher:   fetch,
		Extractor: chain,
		Contents:  store,
		FetchCfg:  cfg.Fetch,
		IngestCfg: cfg.Ingest,
		Logger:    baseLogger.With("component", "ingest"),
	})

	sched := scheduler.New(store, ingester, baseLogger.With("component", "scheduler"))

	return &Application{
		cfg:    cfg,
		logger: baseLogger,
		store:  store,
		fetch:  fetch,
		chain:  chain,
		sched:  sched,
	}, nil
}

// Close releases the application's resources.
func (a *Application) Close() error {
	return a.store.Close()
}

// Run executes scheduling passes on the configured interval until the
// context ends.
func (a *Application) Run(ctx context.Context) error {
	ticker := scheduler.NewTicker(a.cfg.Scheduler.Interval())
	err := ticker.Start(ctx, func(time.Time) {
		if _, err := a.sched.RunDue(ctx); err != nil {
			a.logger.Error("scheduling pass failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	defer ticker.Stop()

	a.logger.Info("daemon started", "interval", a.cfg.Scheduler.Interval())
	<-ctx.Done()
	a.logger.Info("daemon stopping")
	return nil
}

// RunPass performs one scheduling pass over every due subscription.
func (a *Application) RunPass(ctx context.Context) (scheduler.PassReport, error) {
	return a.sched.RunDue(ctx)
}

// RunSubscription processes a single subscription immediately, regardless of
// whether it is due.
func (a *Application) RunSubscription(ctx context.Context, id string) (scheduler.SubscriptionReport, error) {
	sub, err := a.store.Get(ctx, id)
	if err != nil {
		return scheduler.SubscriptionReport{}, err
	}
	return a.sched.RunOne(ctx, sub), nil
}

// Scrape fetches a single page and runs it through the extraction chain.
func (a *Application) Scrape(ctx context.Context, rawURL string) (*domain.ExtractedArticle, error) {
	res, err := a.fetch.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return a.chain.Extract(res)
}

// AddSubscription stores a new subscription and returns its ID.
func (a *Application) AddSubscription(ctx context.Context, sub domain.Subscription) (string, error) {
	return a.store.CreateSubscription(ctx, sub)
}

// Subscriptions returns every stored subscription.
func (a *Application) Subscriptions(ctx context.Context) ([]domain.Subscription, error) {
	return a.store.GetAllSubscriptions(ctx)
}
