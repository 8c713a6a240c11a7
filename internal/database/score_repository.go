package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/voterpulse/sentinel/internal/domain"
)

// ScoreRepository persists the append-only vulnerability score history
// and the denormalized current score on constituencies.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository creates a ScoreRepository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// scoreRow flattens the breakdown for scanning.
type scoreRow struct {
	ID                string       `db:"id"`
	ConstituencyID    string       `db:"constituency_id"`
	Score             int          `db:"score"`
	NewsImpact        float64      `db:"news_impact"`
	ControversyImpact float64      `db:"controversy_impact"`
	GrievanceImpact   float64      `db:"grievance_impact"`
	MarginRisk        float64      `db:"margin_risk"`
	PreviousScore     int          `db:"previous_score"`
	Trend             string       `db:"trend"`
	WindowDays        int          `db:"window_days"`
	Degraded          bool         `db:"degraded"`
	ComputedAt        sql.NullTime `db:"computed_at"`
}

func (row *scoreRow) toDomain() *domain.VulnerabilityScore {
	record := &domain.VulnerabilityScore{
		ID:             row.ID,
		ConstituencyID: row.ConstituencyID,
		Score:          row.Score,
		Breakdown: domain.ScoreBreakdown{
			NewsImpact:        row.NewsImpact,
			ControversyImpact: row.ControversyImpact,
			GrievanceImpact:   row.GrievanceImpact,
			MarginRisk:        row.MarginRisk,
		},
		PreviousScore: row.PreviousScore,
		Trend:         row.Trend,
		WindowDays:    row.WindowDays,
		Degraded:      row.Degraded,
	}
	if row.ComputedAt.Valid {
		record.ComputedAt = row.ComputedAt.Time
	}
	return record
}

const scoreColumns = `
	id, constituency_id, score, news_impact, controversy_impact,
	grievance_impact, margin_risk, previous_score, trend, window_days,
	degraded, computed_at
`

// Latest returns the most recent score record for a constituency, or
// domain.ErrNotFound when none has been computed yet.
func (r *ScoreRepository) Latest(ctx context.Context, constituencyID string) (*domain.VulnerabilityScore, error) {
	row := &scoreRow{}
	query := `
		SELECT ` + scoreColumns + `
		FROM vulnerability_scores
		WHERE constituency_id = $1
		ORDER BY computed_at DESC
		LIMIT 1
	`
	if err := r.db.GetContext(ctx, row, query, constituencyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest score for %s: %w", constituencyID, err)
	}
	return row.toDomain(), nil
}

// Append inserts one score record and refreshes the constituency's
// denormalized current score in a single transaction. History rows are
// never updated or deleted.
func (r *ScoreRepository) Append(ctx context.Context, record *domain.VulnerabilityScore) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin score transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insert := `
		INSERT INTO vulnerability_scores (` + scoreColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = tx.ExecContext(ctx, insert,
		record.ID, record.ConstituencyID, record.Score,
		record.Breakdown.NewsImpact, record.Breakdown.ControversyImpact,
		record.Breakdown.GrievanceImpact, record.Breakdown.MarginRisk,
		record.PreviousScore, record.Trend, record.WindowDays,
		record.Degraded, record.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert score record: %w", err)
	}

	update := `
		UPDATE constituencies
		SET current_score = $2, score_updated_at = $3
		WHERE id = $1
	`
	result, err := tx.ExecContext(ctx, update, record.ConstituencyID, record.Score, record.ComputedAt)
	if err != nil {
		return fmt.Errorf("failed to update current score: %w", err)
	}
	if rows, raErr := result.RowsAffected(); raErr == nil && rows == 0 {
		return domain.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit score transaction: %w", err)
	}
	return nil
}

// History returns score records for a constituency, newest first.
func (r *ScoreRepository) History(ctx context.Context, constituencyID string, limit int) ([]*domain.VulnerabilityScore, error) {
	if limit <= 0 {
		limit = 30
	}

	query := `
		SELECT ` + scoreColumns + `
		FROM vulnerability_scores
		WHERE constituency_id = $1
		ORDER BY computed_at DESC
		LIMIT $2
	`
	rows := []*scoreRow{}
	if err := r.db.SelectContext(ctx, &rows, query, constituencyID, limit); err != nil {
		return nil, fmt.Errorf("failed to load score history for %s: %w", constituencyID, err)
	}

	records := make([]*domain.VulnerabilityScore, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toDomain())
	}
	return records, nil
}
