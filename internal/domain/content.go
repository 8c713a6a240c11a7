package domain

import "time"

// ContentItem is the canonical shape every source payload is normalized
// into. Items are immutable once stored; downstream stages attach a
// Classification rather than mutating the original fields.
type ContentItem struct {
	ID             string    `db:"id"              json:"id"`
	ContentHash    string    `db:"content_hash"    json:"content_hash"`
	SourceSystem   string    `db:"source_system"   json:"source_system"`
	SourceName     string    `db:"source_name"     json:"source_name"`
	ConstituencyID string    `db:"constituency_id" json:"constituency_id,omitempty"`
	Title          string    `db:"title"           json:"title"`
	Text           string    `db:"text"            json:"text"`
	Author         string    `db:"author"          json:"author,omitempty"`
	Tags           []string  `db:"-"               json:"tags,omitempty"`
	Language       string    `db:"language"        json:"language,omitempty"`
	SentimentHint  string    `db:"sentiment_hint"  json:"sentiment_hint,omitempty"`
	PublishedAt    time.Time `db:"published_at"    json:"published_at"`
	IngestedAt     time.Time `db:"ingested_at"     json:"ingested_at"`
}

// Hash computes the dedup identity for an item: a stable FNV-1a digest
// of the lowercased trimmed title and lowercased source name. It is
// intentionally non-cryptographic; rare collisions are accepted as
// false duplicates.
func (c *ContentItem) Hash() string {
	return HashContent(c.Title, c.SourceName)
}

// FetchResult is the typed outcome of a fetch through the quota-aware
// fetcher. QuotaExhausted and FromCache are expected states, not errors.
type FetchResult struct {
	Items          []*ContentItem `json:"items"`
	FromCache      bool           `json:"from_cache"`
	FromStore      bool           `json:"from_store"`
	QuotaExhausted bool           `json:"quota_exhausted"`
	Demo           bool           `json:"demo,omitempty"`
}

// QuotaWindow identifies a rolling quota period.
type QuotaWindow string

// Quota window kinds.
const (
	WindowDaily   QuotaWindow = "daily"
	WindowMonthly QuotaWindow = "monthly"
)

// QuotaState tracks consumption of a source's call budget within one
// rolling window. It resets when now crosses the window boundary.
type QuotaState struct {
	ScopeKey    string      `json:"scope_key"`
	Window      QuotaWindow `json:"window"`
	WindowStart time.Time   `json:"window_start"`
	Used        int         `json:"used"`
	Limit       int         `json:"limit"`
}

// Remaining returns how much budget is left in the window.
func (q *QuotaState) Remaining() int {
	if q.Used >= q.Limit {
		return 0
	}
	return q.Limit - q.Used
}

// Exhausted reports whether the window budget is fully consumed.
func (q *QuotaState) Exhausted() bool {
	return q.Limit > 0 && q.Used >= q.Limit
}
