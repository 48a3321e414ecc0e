// Package scheduler decides which subscriptions are due and drives feed
// ingestion across their sources, isolating per-source failures.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"

	"infocollector/internal/domain"
	"infocollector/internal/ports"
)

// ErrNoSources is returned when a subscription has no enabled feed sources.
var ErrNoSources = errors.New("subscription has no enabled feed sources")

// PassReport aggregates one full scheduling pass.
type PassReport struct {
	Total     int
	Succeeded int
	Failed    int
	NewItems  int
}

// SubscriptionReport is the outcome of processing a single subscription.
// Err carries per-source errors even on partial success.
type SubscriptionReport struct {
	Success  bool
	NewItems int
	Err      error
}

// Scheduler orchestrates ingestion over the subscription set.
type Scheduler struct {
	subs     ports.SubscriptionStore
	ingester ports.SourceIngester
	logger   *slog.Logger
	now      func() time.Time
}

// New builds a Scheduler.
func New(subs ports.SubscriptionStore, ingester ports.SourceIngester, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		subs:     subs,
		ingester: ingester,
		logger:   logger,
		now:      time.Now,
	}
}

// IsDue reports whether the subscription's frequency window has elapsed.
// Disabled subscriptions are never due; never-fetched ones always are.
func IsDue(sub domain.Subscription, now time.Time) bool {
	if !sub.Enabled {
		return false
	}
	if sub.LastFetchedAt == nil {
		return true
	}
	window, ok := sub.Frequency.Window()
	if !ok {
		return false
	}
	return now.Sub(*sub.LastFetchedAt) > window
}

// RunDue processes every due subscription sequentially and aggregates the
// results. No subscription-level failure is fatal to the pass.
func (s *Scheduler) RunDue(ctx context.Context) (PassReport, error) {
	var report PassReport

	subs, err := s.subs.GetEnabledSubscriptions(ctx)
	if err != nil {
		return report, fmt.Errorf("load subscriptions: %w", err)
	}

	now := s.now()
	for _, sub := range subs {
		if !IsDue(sub, now) {
			continue
		}

		report.Total++
		result := s.RunOne(ctx, sub)
		report.NewItems += result.NewItems
		if result.Success {
			report.Succeeded++
		} else {
			report.Failed++
			s.warn("subscription failed", "subscription", sub.Name, "error", result.Err)
		}
	}

	s.info("pass complete", "total", report.Total, "succeeded", report.Succeeded,
		"failed", report.Failed, "new_items", report.NewItems)
	return report, nil
}

// RunOne processes a single subscription: every enabled source in order, each
// failure isolated. The subscription is marked fetched regardless of
// per-source outcomes so a permanently failing source cannot keep it
// perpetually due. The overall result is a failure only when every source
// failed outright and nothing was created; item-level problems inside a
// successfully parsed feed never fail the subscription.
func (s *Scheduler) RunOne(ctx context.Context, sub domain.Subscription) SubscriptionReport {
	sources := sub.EnabledFeedSources()
	if len(sources) == 0 {
		return SubscriptionReport{Err: ErrNoSources}
	}

	var (
		merr      *multierror.Error
		okSources int
		newItems  int
	)

	for _, src := range sources {
		rep, err := s.ingester.Ingest(ctx, src, sub)
		newItems += rep.Created
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("source %s: %w", src.URL, err))
			s.warn("source ingestion failed", "subscription", sub.Name, "source", src.URL, "error", err)
			continue
		}
		okSources++
		s.info("source ingested", "subscription", sub.Name, "source", src.URL,
			"created", rep.Created, "filtered", rep.Filtered,
			"duplicates", rep.Duplicates, "failed_items", rep.Failed)
	}

	if err := s.subs.MarkFetched(ctx, sub.ID, s.now()); err != nil {
		s.warn("mark fetched failed", "subscription", sub.Name, "error", err)
	}

	if okSources == 0 && newItems == 0 {
		return SubscriptionReport{NewItems: newItems, Err: merr.ErrorOrNil()}
	}

	return SubscriptionReport{Success: true, NewItems: newItems, Err: merr.ErrorOrNil()}
}

func (s *Scheduler) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Scheduler) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
