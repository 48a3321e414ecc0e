package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"infocollector/internal/domain"
)

type subStore struct {
	subs    []domain.Subscription
	fetched map[string]time.Time
}

func (s *subStore) GetAllSubscriptions(ctx context.Context) ([]domain.Subscription, error) {
	return s.subs, nil
}

func (s *subStore) Get(ctx context.Context, id string) (domain.Subscription, error) {
	for _, sub := range s.subs {
		if sub.ID == id {
			return sub, nil
		}
	}
	return domain.Subscription{}, errors.New("not found")
}

func (s *subStore) GetEnabledSubscriptions(ctx context.Context) ([]domain.Subscription, error) {
	var out []domain.Subscription
	for _, sub := range s.subs {
		if sub.Enabled {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *subStore) CreateSubscription(ctx context.Context, sub domain.Subscription) (string, error) {
	s.subs = append(s.subs, sub)
	return sub.ID, nil
}

func (s *subStore) UpdateSubscription(ctx context.Context, id string, patch domain.SubscriptionPatch) error {
	return nil
}

func (s *subStore) MarkFetched(ctx context.Context, id string, at time.Time) error {
	if s.fetched == nil {
		s.fetched = map[string]time.Time{}
	}
	s.fetched[id] = at
	return nil
}

// sourceIngester maps source URLs to canned outcomes.
type sourceIngester struct {
	created map[string]int
	errs    map[string]error
	calls   []string
}

func (f *sourceIngester) Ingest(ctx context.Context, src domain.Source, sub domain.Subscription) (domain.IngestReport, error) {
	f.calls = append(f.calls, src.URL)
	if err, ok := f.errs[src.URL]; ok {
		return domain.IngestReport{Created: f.created[src.URL]}, err
	}
	return domain.IngestReport{Created: f.created[src.URL]}, nil
}

func enabledSource(url string) domain.Source {
	return domain.Source{Type: "rss", URL: url, Enabled: true}
}

func timePtr(t time.Time) *time.Time { return &t }

func TestIsDue(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		sub  domain.Subscription
		want bool
	}{
		{
			name: "disabled never due",
			sub:  domain.Subscription{Enabled: false, Frequency: domain.FrequencyHourly},
			want: false,
		},
		{
			name: "never fetched always due",
			sub:  domain.Subscription{Enabled: true, Frequency: domain.FrequencyDaily},
			want: true,
		},
		{
			name: "daily at 23h not due",
			sub: domain.Subscription{
				Enabled: true, Frequency: domain.FrequencyDaily,
				LastFetchedAt: timePtr(now.Add(-23 * time.Hour)),
			},
			want: false,
		},
		{
			name: "daily at 25h due",
			sub: domain.Subscription{
				Enabled: true, Frequency: domain.FrequencyDaily,
				LastFetchedAt: timePtr(now.Add(-25 * time.Hour)),
			},
			want: true,
		},
		{
			name: "hourly at 61m due",
			sub: domain.Subscription{
				Enabled: true, Frequency: domain.FrequencyHourly,
				LastFetchedAt: timePtr(now.Add(-61 * time.Minute)),
			},
			want: true,
		},
		{
			name: "weekly at 6d not due",
			sub: domain.Subscription{
				Enabled: true, Frequency: domain.FrequencyWeekly,
				LastFetchedAt: timePtr(now.Add(-6 * 24 * time.Hour)),
			},
			want: false,
		},
		{
			name: "unknown frequency never due",
			sub: domain.Subscription{
				Enabled: true, Frequency: "fortnightly",
				LastFetchedAt: timePtr(now.Add(-1000 * time.Hour)),
			},
			want: false,
		},
	}

	for _, tc := range cases {
		if got := IsDue(tc.sub, now); got != tc.want {
			t.Fatalf("%s: IsDue = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestRunOnePartialSourceIsolation(t *testing.T) {
	t.Parallel()

	sub := domain.Subscription{
		ID: "s1", Name: "Mixed", Enabled: true, Frequency: domain.FrequencyDaily,
		Sources: []domain.Source{
			enabledSource("https://bad.example/feed"),
			enabledSource("https://good.example/feed"),
		},
	}

	store := &subStore{subs: []domain.Subscription{sub}}
	ing := &sourceIngester{
		created: map[string]int{"https://good.example/feed": 3},
		errs:    map[string]error{"https://bad.example/feed": errors.New("parse error")},
	}

	s := New(store, ing, nil)
	result := s.RunOne(context.Background(), sub)

	if !result.Success {
		t.Fatalf("partial success must count as success: %+v", result)
	}
	if result.NewItems != 3 {
		t.Fatalf("expected 3 new items, got %d", result.NewItems)
	}
	if result.Err == nil {
		t.Fatal("per-source error must still be recorded")
	}
	if len(ing.calls) != 2 {
		t.Fatalf("both sources must be attempted, got %v", ing.calls)
	}
}

func TestRunOneAllSourcesFailed(t *testing.T) {
	t.Parallel()

	sub := domain.Subscription{
		ID: "s1", Name: "Broken", Enabled: true, Frequency: domain.FrequencyDaily,
		Sources: []domain.Source{enabledSource("https://bad.example/feed")},
	}

	store := &subStore{subs: []domain.Subscription{sub}}
	ing := &sourceIngester{errs: map[string]error{"https://bad.example/feed": errors.New("parse error")}}

	s := New(store, ing, nil)
	result := s.RunOne(context.Background(), sub)

	if result.Success {
		t.Fatal("all sources failing must be a failure")
	}
	if result.Err == nil {
		t.Fatal("expected an aggregated error")
	}
	if _, ok := store.fetched["s1"]; !ok {
		t.Fatal("subscription must be marked fetched despite failure")
	}
}

func TestRunOneCreatedItemsOutweighSourceErrors(t *testing.T) {
	t.Parallel()

	sub := domain.Subscription{
		ID: "s1", Name: "Lossy", Enabled: true, Frequency: domain.FrequencyDaily,
		Sources: []domain.Source{enabledSource("https://lossy.example/feed")},
	}

	store := &subStore{subs: []domain.Subscription{sub}}
	ing := &sourceIngester{
		created: map[string]int{"https://lossy.example/feed": 2},
		errs:    map[string]error{"https://lossy.example/feed": errors.New("write failed late")},
	}

	s := New(store, ing, nil)
	result := s.RunOne(context.Background(), sub)

	if !result.Success {
		t.Fatalf("a run that created items must count as success: %+v", result)
	}
	if result.NewItems != 2 {
		t.Fatalf("expected 2 new items, got %d", result.NewItems)
	}
	if result.Err == nil {
		t.Fatal("the source error must still be recorded")
	}
}

func TestRunOneSkipsDisabledAndNonFeedSources(t *testing.T) {
	t.Parallel()

	sub := domain.Subscription{
		ID: "s1", Enabled: true, Frequency: domain.FrequencyDaily,
		Sources: []domain.Source{
			{Type: "rss", URL: "https://off.example/feed", Enabled: false},
			{Type: "twitter", URL: "tesla", Enabled: true},
			enabledSource("https://on.example/feed"),
		},
	}

	store := &subStore{subs: []domain.Subscription{sub}}
	ing := &sourceIngester{created: map[string]int{"https://on.example/feed": 1}}

	s := New(store, ing, nil)
	result := s.RunOne(context.Background(), sub)

	if !result.Success || result.NewItems != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(ing.calls) != 1 || ing.calls[0] != "https://on.example/feed" {
		t.Fatalf("only the enabled feed source must run, got %v", ing.calls)
	}
}

func TestRunOneNoSources(t *testing.T) {
	t.Parallel()

	sub := domain.Subscription{ID: "s1", Enabled: true, Frequency: domain.FrequencyDaily}
	store := &subStore{subs: []domain.Subscription{sub}}

	s := New(store, &sourceIngester{}, nil)
	result := s.RunOne(context.Background(), sub)

	if result.Success {
		t.Fatal("subscription without sources must fail")
	}
	if !errors.Is(result.Err, ErrNoSources) {
		t.Fatalf("expected ErrNoSources, got %v", result.Err)
	}
}

func TestRunDueAggregation(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)
	store := &subStore{subs: []domain.Subscription{
		{
			ID: "due-ok", Enabled: true, Frequency: domain.FrequencyDaily,
			Sources: []domain.Source{enabledSource("https://ok.example/feed")},
		},
		{
			ID: "due-bad", Enabled: true, Frequency: domain.FrequencyDaily,
			Sources: []domain.Source{enabledSource("https://bad.example/feed")},
		},
		{
			ID: "fresh", Enabled: true, Frequency: domain.FrequencyDaily,
			LastFetchedAt: timePtr(now.Add(-time.Hour)),
			Sources:       []domain.Source{enabledSource("https://fresh.example/feed")},
		},
		{ID: "off", Enabled: false, Frequency: domain.FrequencyDaily},
	}}

	ing := &sourceIngester{
		created: map[string]int{"https://ok.example/feed": 2},
		errs:    map[string]error{"https://bad.example/feed": errors.New("unreachable")},
	}

	s := New(store, ing, nil)
	s.now = func() time.Time { return now }

	report, err := s.RunDue(context.Background())
	if err != nil {
		t.Fatalf("RunDue error: %v", err)
	}

	if report.Total != 2 {
		t.Fatalf("expected 2 due subscriptions, got %+v", report)
	}
	if report.Succeeded != 1 || report.Failed != 1 {
		t.Fatalf("unexpected outcome split: %+v", report)
	}
	if report.NewItems != 2 {
		t.Fatalf("expected 2 new items, got %+v", report)
	}

	for _, call := range ing.calls {
		if call == "https://fresh.example/feed" {
			t.Fatal("not-due subscription must not be processed")
		}
	}
}
