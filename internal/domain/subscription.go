package domain

import "time"

// Frequency is the configured refresh cadence of a subscription.
type Frequency string

const (
	FrequencyHourly Frequency = "hourly"
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// Window returns the duration that must elapse between fetches. The second
// return value is false for unknown frequencies, which are never due.
func (f Frequency) Window() (time.Duration, bool) {
	switch f {
	case FrequencyHourly:
		return time.Hour, true
	case FrequencyDaily:
		return 24 * time.Hour, true
	case FrequencyWeekly:
		return 7 * 24 * time.Hour, true
	default:
		return 0, false
	}
}

// SourceRSS is the only source type the ingestion stage currently handles.
const SourceRSS = "rss"

// Source is a single endpoint a subscription pulls from.
type Source struct {
	Type    string `json:"type" yaml:"type"`
	URL     string `json:"url" yaml:"url"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// Subscription groups an ordered set of sources with a fetch cadence and an
// optional keyword inclusion filter.
type Subscription struct {
	ID            string
	Name          string
	Company       string
	Sources       []Source
	Keywords      []string
	CategoryID    string
	Enabled       bool
	Frequency     Frequency
	LastFetchedAt *time.Time
	CreatedAt     time.Time
}

// EnabledFeedSources returns the subscription's enabled RSS sources in order.
func (s Subscription) EnabledFeedSources() []Source {
	out := make([]Source, 0, len(s.Sources))
	for _, src := range s.Sources {
		if src.Enabled && src.Type == SourceRSS {
			out = append(out, src)
		}
	}
	return out
}

// SubscriptionPatch is a partial update; nil fields are left untouched.
type SubscriptionPatch struct {
	Name          *string
	Company       *string
	Keywords      *[]string
	CategoryID    *string
	Enabled       *bool
	Frequency     *Frequency
	LastFetchedAt *time.Time
}
