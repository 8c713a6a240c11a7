package domain

import "time"

// Attack impact tiers.
const (
	ImpactLow    = "low"
	ImpactMedium = "medium"
	ImpactHigh   = "high"
)

// AttackPoint is a templated, evidence-backed negative claim derived
// from controversy or negative coverage. At most one active point
// exists per (constituency, attack type); new evidence appends to
// SourceContentIDs instead of creating a duplicate.
type AttackPoint struct {
	ID               string         `db:"id"               json:"id"`
	ConstituencyID   string         `db:"constituency_id"  json:"constituency_id"`
	TargetName       string         `db:"target_name"      json:"target_name"`
	Claim            string         `db:"claim"            json:"claim"`
	EvidenceRef      string         `db:"evidence_ref"     json:"evidence_ref"`
	AttackType       string         `db:"attack_type"      json:"attack_type"`
	ImpactTier       string         `db:"impact_tier"      json:"impact_tier"`
	SourceContentIDs []string       `db:"-"                json:"source_content_ids"`
	IsActive         bool           `db:"is_active"        json:"is_active"`
	CreatedAt        time.Time      `db:"created_at"       json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"       json:"updated_at"`
}
