package domain

import "time"

// Content types recognized by the library.
const (
	TypeText  = "text"
	TypeURL   = "url"
	TypeImage = "image"
	TypePDF   = "pdf"
)

// Content is the canonical unit of library material.
type Content struct {
	ID          string
	Type        string
	Title       string
	Body        string
	SourceURL   string
	Author      string
	PublishedAt *time.Time
	CategoryIDs []string
	Tags        []string
	Summary     string
	KeyPoints   []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IngestReport summarizes a single source ingestion: how many items were
// persisted, how many were dropped by the keyword filter or as duplicates,
// and how many failed during processing. Dropped items are expected control
// flow, not failures; failed items do not fail the source.
type IngestReport struct {
	Created    int
	Filtered   int
	Duplicates int
	Failed     int
}

// Add merges another report into this one.
func (r *IngestReport) Add(other IngestReport) {
	r.Created += other.Created
	r.Filtered += other.Filtered
	r.Duplicates += other.Duplicates
	r.Failed += other.Failed
}
