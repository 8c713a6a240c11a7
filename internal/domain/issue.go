package domain

import "time"

// Public anger levels for a tracked issue.
const (
	AngerLow     = "low"
	AngerMedium  = "medium"
	AngerHigh    = "high"
	AngerBoiling = "boiling"
)

// TrackedIssue is a locally-relevant recurring grievance clustered from
// multiple content mentions for one constituency.
//
// Invariants: Severity only ever moves up the low<medium<high<critical
// ordering, and SourceCount only increases.
type TrackedIssue struct {
	ID               string    `db:"id"                 json:"id"`
	ConstituencyID   string    `db:"constituency_id"    json:"constituency_id"`
	Title            string    `db:"title"              json:"title"`
	Category         string    `db:"category"           json:"category"`
	Severity         Severity  `db:"severity"           json:"severity"`
	PublicAngerLevel string    `db:"public_anger_level" json:"public_anger_level"`
	ProtestActivity  bool      `db:"protest_activity"   json:"protest_activity"`
	SourceCount      int       `db:"source_count"       json:"source_count"`
	Open             bool      `db:"open"               json:"open"`
	FirstSeenAt      time.Time `db:"first_seen_at"      json:"first_seen_at"`
	LastMentionedAt  time.Time `db:"last_mentioned_at"  json:"last_mentioned_at"`
}

// DetectedIssue is one issue signal extracted from a single classified
// content item, before it is merged into (or creates) a TrackedIssue.
type DetectedIssue struct {
	Title            string
	Category         string
	Severity         Severity
	ProtestActivity  bool
	PublicAngerLevel string
	KeywordHits      int
	SourceContentID  string
}

// UpsertAction reports whether an issue upsert created or updated.
type UpsertAction string

// Upsert outcomes.
const (
	ActionCreated UpsertAction = "created"
	ActionUpdated UpsertAction = "updated"
)
