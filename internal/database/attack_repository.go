package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/voterpulse/sentinel/internal/domain"
)

// AttackPointRepository persists attack points. Evidence ids live in a
// text[] column appended in place.
type AttackPointRepository struct {
	db *sqlx.DB
}

// NewAttackPointRepository creates an AttackPointRepository.
func NewAttackPointRepository(db *sqlx.DB) *AttackPointRepository {
	return &AttackPointRepository{db: db}
}

// attackRow scans the array column separately from the domain struct.
type attackRow struct {
	ID               string         `db:"id"`
	ConstituencyID   string         `db:"constituency_id"`
	TargetName       string         `db:"target_name"`
	Claim            string         `db:"claim"`
	EvidenceRef      string         `db:"evidence_ref"`
	AttackType       string         `db:"attack_type"`
	ImpactTier       string         `db:"impact_tier"`
	SourceContentIDs pq.StringArray `db:"source_content_ids"`
	IsActive         bool           `db:"is_active"`
	CreatedAt        sql.NullTime   `db:"created_at"`
	UpdatedAt        sql.NullTime   `db:"updated_at"`
}

func (row *attackRow) toDomain() *domain.AttackPoint {
	point := &domain.AttackPoint{
		ID:               row.ID,
		ConstituencyID:   row.ConstituencyID,
		TargetName:       row.TargetName,
		Claim:            row.Claim,
		EvidenceRef:      row.EvidenceRef,
		AttackType:       row.AttackType,
		ImpactTier:       row.ImpactTier,
		SourceContentIDs: row.SourceContentIDs,
		IsActive:         row.IsActive,
	}
	if row.CreatedAt.Valid {
		point.CreatedAt = row.CreatedAt.Time
	}
	if row.UpdatedAt.Valid {
		point.UpdatedAt = row.UpdatedAt.Time
	}
	return point
}

const attackColumns = `
	id, constituency_id, target_name, claim, evidence_ref, attack_type,
	impact_tier, source_content_ids, is_active, created_at, updated_at
`

// Create inserts a new attack point. A partial unique index on
// (constituency_id, attack_type) WHERE is_active backs the one-active
// invariant at the storage layer.
func (r *AttackPointRepository) Create(ctx context.Context, point *domain.AttackPoint) error {
	query := `
		INSERT INTO attack_points (` + attackColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		point.ID, point.ConstituencyID, point.TargetName, point.Claim,
		point.EvidenceRef, point.AttackType, point.ImpactTier,
		pq.Array(point.SourceContentIDs), point.IsActive,
		point.CreatedAt, point.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create attack point: %w", err)
	}
	return nil
}

// ActiveByType returns the active attack point for one constituency and
// attack type, or domain.ErrNotFound.
func (r *AttackPointRepository) ActiveByType(ctx context.Context, constituencyID, attackType string) (*domain.AttackPoint, error) {
	row := &attackRow{}
	query := `
		SELECT ` + attackColumns + `
		FROM attack_points
		WHERE constituency_id = $1 AND attack_type = $2 AND is_active
	`
	if err := r.db.GetContext(ctx, row, query, constituencyID, attackType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active attack point: %w", err)
	}
	return row.toDomain(), nil
}

// AppendEvidence adds one content id to an attack point's evidence
// list, skipping ids already present.
func (r *AttackPointRepository) AppendEvidence(ctx context.Context, pointID, contentID string) error {
	query := `
		UPDATE attack_points
		SET source_content_ids = array_append(source_content_ids, $2),
		    updated_at = NOW()
		WHERE id = $1 AND NOT ($2 = ANY(source_content_ids))
	`
	if _, err := r.db.ExecContext(ctx, query, pointID, contentID); err != nil {
		return fmt.Errorf("failed to append evidence to %s: %w", pointID, err)
	}
	return nil
}

// ListByConstituency returns attack points for one constituency,
// impact-ranked, active first.
func (r *AttackPointRepository) ListByConstituency(ctx context.Context, constituencyID string, activeOnly bool) ([]*domain.AttackPoint, error) {
	query := `
		SELECT ` + attackColumns + `
		FROM attack_points
		WHERE constituency_id = $1 AND (NOT $2 OR is_active)
		ORDER BY is_active DESC,
		         CASE impact_tier WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END,
		         updated_at DESC
	`
	rows := []*attackRow{}
	if err := r.db.SelectContext(ctx, &rows, query, constituencyID, activeOnly); err != nil {
		return nil, fmt.Errorf("failed to list attack points for %s: %w", constituencyID, err)
	}

	points := make([]*domain.AttackPoint, 0, len(rows))
	for _, row := range rows {
		points = append(points, row.toDomain())
	}
	return points, nil
}

// Deactivate retires an attack point without deleting its evidence.
func (r *AttackPointRepository) Deactivate(ctx context.Context, pointID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE attack_points SET is_active = false, updated_at = NOW() WHERE id = $1`, pointID)
	if err != nil {
		return fmt.Errorf("failed to deactivate attack point %s: %w", pointID, err)
	}
	if rows, raErr := result.RowsAffected(); raErr == nil && rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
