package domain

import "time"

// Trend direction of a vulnerability score versus the previous record.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// ScoreBreakdown holds the four capped component scores that sum into
// the composite vulnerability score.
type ScoreBreakdown struct {
	NewsImpact        float64 `json:"news_impact"`        // max 30
	ControversyImpact float64 `json:"controversy_impact"` // max 30
	GrievanceImpact   float64 `json:"grievance_impact"`   // max 20
	MarginRisk        float64 `json:"margin_risk"`        // max 20
}

// VulnerabilityScore is one append-only history record of a
// constituency's composite vulnerability computation.
type VulnerabilityScore struct {
	ID             string         `db:"id"              json:"id"`
	ConstituencyID string         `db:"constituency_id" json:"constituency_id"`
	Score          int            `db:"score"           json:"score"` // [0, 100]
	Breakdown      ScoreBreakdown `db:"-"               json:"breakdown"`
	PreviousScore  int            `db:"previous_score"  json:"previous_score"`
	Trend          string         `db:"trend"           json:"trend"`
	WindowDays     int            `db:"window_days"     json:"window_days"`
	Degraded       bool           `db:"degraded"        json:"degraded"`
	ComputedAt     time.Time      `db:"computed_at"     json:"computed_at"`
}

// ScoreInputs are the aggregates a score computation consumes, gathered
// over the scoring window.
type ScoreInputs struct {
	TotalNews        int
	NegativeNews     int
	ControversyCount int
	OpenHighIssues   int     // open issues with severity high or critical
	MarginPct        float64 // absolute electoral margin as % of registered voters
	MarginAvailable  bool
}
