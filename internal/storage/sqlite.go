// Package storage provides the SQLite-backed content library and
// subscription store.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"infocollector/internal/domain"
	"infocollector/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS contents (
	id            TEXT PRIMARY KEY,
	type          TEXT NOT NULL,
	title         TEXT NOT NULL,
	body          TEXT NOT NULL,
	source_url    TEXT NOT NULL DEFAULT '',
	author        TEXT NOT NULL DEFAULT '',
	published_at  TIMESTAMP,
	category_ids  TEXT NOT NULL DEFAULT '[]',
	tags          TEXT NOT NULL DEFAULT '[]',
	summary       TEXT NOT NULL DEFAULT '',
	key_points    TEXT NOT NULL DEFAULT '[]',
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_contents_source_url ON contents(source_url);

CREATE TABLE IF NOT EXISTS subscriptions (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	company         TEXT NOT NULL DEFAULT '',
	sources         TEXT NOT NULL DEFAULT '[]',
	keywords        TEXT NOT NULL DEFAULT '[]',
	category_id     TEXT NOT NULL DEFAULT '',
	enabled         INTEGER NOT NULL DEFAULT 1,
	frequency       TEXT NOT NULL,
	last_fetched_at TIMESTAMP,
	created_at      TIMESTAMP NOT NULL
);
`

// Store is the SQLite implementation of the content and subscription stores.
type Store struct {
	db *sql.DB
}

var (
	_ ports.ContentStore      = (*Store)(nil)
	_ ports.SubscriptionStore = (*Store)(nil)
)

// Open connects to the database at path and creates the schema when absent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=10000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetAll returns every content record in the library.
func (s *Store) GetAll(ctx context.Context) ([]domain.Content, error) {
	rows, err := sq.Select("id", "type", "title", "body", "source_url", "author",
		"published_at", "category_ids", "tags", "summary", "key_points",
		"created_at", "updated_at").
		From("contents").
		OrderBy("created_at DESC").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query contents: %w", err)
	}
	defer rows.Close()

	var out []domain.Content
	for rows.Next() {
		var (
			c           domain.Content
			publishedAt sql.NullTime
			categories  string
			tags        string
			keyPoints   string
		)
		if err := rows.Scan(&c.ID, &c.Type, &c.Title, &c.Body, &c.SourceURL, &c.Author,
			&publishedAt, &categories, &tags, &c.Summary, &keyPoints,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		if publishedAt.Valid {
			t := publishedAt.Time
			c.PublishedAt = &t
		}
		if err := decodeStrings(categories, &c.CategoryIDs); err != nil {
			return nil, fmt.Errorf("decode categories: %w", err)
		}
		if err := decodeStrings(tags, &c.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
		if err := decodeStrings(keyPoints, &c.KeyPoints); err != nil {
			return nil, fmt.Errorf("decode key points: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contents: %w", err)
	}
	return out, nil
}

// Create inserts a new content record, assigning its ID and timestamps.
func (s *Store) Create(ctx context.Context, c domain.Content) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	var publishedAt any
	if c.PublishedAt != nil {
		publishedAt = c.PublishedAt.UTC()
	}

	_, err := sq.Insert("contents").
		Columns("id", "type", "title", "body", "source_url", "author",
			"published_at", "category_ids", "tags", "summary", "key_points",
			"created_at", "updated_at").
		Values(id, c.Type, c.Title, c.Body, c.SourceURL, c.Author,
			publishedAt, encodeStrings(c.CategoryIDs), encodeStrings(c.Tags),
			c.Summary, encodeStrings(c.KeyPoints), now, now).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return "", fmt.Errorf("insert content: %w", err)
	}
	return id, nil
}

// GetAllSubscriptions returns every subscription.
func (s *Store) GetAllSubscriptions(ctx context.Context) ([]domain.Subscription, error) {
	return s.querySubscriptions(ctx, sq.Eq{})
}

// Get returns one subscription by ID.
func (s *Store) Get(ctx context.Context, id string) (domain.Subscription, error) {
	subs, err := s.querySubscriptions(ctx, sq.Eq{"id": id})
	if err != nil {
		return domain.Subscription{}, err
	}
	if len(subs) == 0 {
		return domain.Subscription{}, fmt.Errorf("subscription %s not found", id)
	}
	return subs[0], nil
}

// GetEnabledSubscriptions returns subscriptions with the enabled flag set.
func (s *Store) GetEnabledSubscriptions(ctx context.Context) ([]domain.Subscription, error) {
	return s.querySubscriptions(ctx, sq.Eq{"enabled": true})
}

// CreateSubscription inserts a new subscription and returns its ID.
func (s *Store) CreateSubscription(ctx context.Context, sub domain.Subscription) (string, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}

	sources, err := json.Marshal(sub.Sources)
	if err != nil {
		return "", fmt.Errorf("encode sources: %w", err)
	}

	var lastFetched any
	if sub.LastFetchedAt != nil {
		lastFetched = sub.LastFetchedAt.UTC()
	}

	_, err = sq.Insert("subscriptions").
		Columns("id", "name", "company", "sources", "keywords", "category_id",
			"enabled", "frequency", "last_fetched_at", "created_at").
		Values(sub.ID, sub.Name, sub.Company, string(sources), encodeStrings(sub.Keywords),
			sub.CategoryID, sub.Enabled, string(sub.Frequency), lastFetched, time.Now().UTC()).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return "", fmt.Errorf("insert subscription: %w", err)
	}
	return sub.ID, nil
}

// UpdateSubscription applies the non-nil fields of the patch.
func (s *Store) UpdateSubscription(ctx context.Context, id string, patch domain.SubscriptionPatch) error {
	update := sq.Update("subscriptions").Where(sq.Eq{"id": id})
	changed := false

	if patch.Name != nil {
		update = update.Set("name", *patch.Name)
		changed = true
	}
	if patch.Company != nil {
		update = update.Set("company", *patch.Company)
		changed = true
	}
	if patch.Keywords != nil {
		update = update.Set("keywords", encodeStrings(*patch.Keywords))
		changed = true
	}
	if patch.CategoryID != nil {
		update = update.Set("category_id", *patch.CategoryID)
		changed = true
	}
	if patch.Enabled != nil {
		update = update.Set("enabled", *patch.Enabled)
		changed = true
	}
	if patch.Frequency != nil {
		update = update.Set("frequency", string(*patch.Frequency))
		changed = true
	}
	if patch.LastFetchedAt != nil {
		update = update.Set("last_fetched_at", patch.LastFetchedAt.UTC())
		changed = true
	}

	if !changed {
		return nil
	}

	if _, err := update.RunWith(s.db).ExecContext(ctx); err != nil {
		return fmt.Errorf("update subscription %s: %w", id, err)
	}
	return nil
}

// MarkFetched records the last fetch attempt time.
func (s *Store) MarkFetched(ctx context.Context, id string, at time.Time) error {
	t := at
	return s.UpdateSubscription(ctx, id, domain.SubscriptionPatch{LastFetchedAt: &t})
}

func (s *Store) querySubscriptions(ctx context.Context, where sq.Eq) ([]domain.Subscription, error) {
	query := sq.Select("id", "name", "company", "sources", "keywords", "category_id",
		"enabled", "frequency", "last_fetched_at", "created_at").
		From("subscriptions").
		OrderBy("created_at ASC")
	if len(where) > 0 {
		query = query.Where(where)
	}

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var out []domain.Subscription
	for rows.Next() {
		var (
			sub         domain.Subscription
			sources     string
			keywords    string
			frequency   string
			lastFetched sql.NullTime
		)
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.Company, &sources, &keywords,
			&sub.CategoryID, &sub.Enabled, &frequency, &lastFetched, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		if err := json.Unmarshal([]byte(sources), &sub.Sources); err != nil {
			return nil, fmt.Errorf("decode sources: %w", err)
		}
		if err := decodeStrings(keywords, &sub.Keywords); err != nil {
			return nil, fmt.Errorf("decode keywords: %w", err)
		}
		sub.Frequency = domain.Frequency(frequency)
		if lastFetched.Valid {
			t := lastFetched.Time
			sub.LastFetchedAt = &t
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return out, nil
}

func encodeStrings(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func decodeStrings(raw string, dst *[]string) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}
