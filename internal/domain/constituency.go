package domain

import "time"

// Constituency is the electoral unit all signals roll up into.
// CurrentScore is a denormalized copy of the latest vulnerability score
// used for ranking and listing.
type Constituency struct {
	ID               string     `db:"id"                json:"id"`
	Name             string     `db:"name"              json:"name"`
	State            string     `db:"state"             json:"state"`
	SittingParty     string     `db:"sitting_party"     json:"sitting_party,omitempty"`
	LeaderName       string     `db:"leader_name"       json:"leader_name,omitempty"`
	RegisteredVoters int        `db:"registered_voters" json:"registered_voters"`
	LastMargin       int        `db:"last_margin"       json:"last_margin"` // absolute votes
	CurrentScore     int        `db:"current_score"     json:"current_score"`
	ScoreUpdatedAt   *time.Time `db:"score_updated_at" json:"score_updated_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at"        json:"created_at"`
}

// MarginPct returns the last electoral margin as a percentage of
// registered voters, and whether margin data is available.
func (c *Constituency) MarginPct() (float64, bool) {
	if c.RegisteredVoters <= 0 {
		return 0, false
	}
	return float64(c.LastMargin) / float64(c.RegisteredVoters) * 100, true
}
