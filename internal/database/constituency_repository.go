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

const constituencyColumns = `
	id, name, state, sitting_party, leader_name, registered_voters,
	last_margin, current_score, score_updated_at, created_at
`

// ConstituencyRepository persists constituencies.
type ConstituencyRepository struct {
	db *sqlx.DB
}

// NewConstituencyRepository creates a ConstituencyRepository.
func NewConstituencyRepository(db *sqlx.DB) *ConstituencyRepository {
	return &ConstituencyRepository{db: db}
}

// Create inserts a constituency.
func (r *ConstituencyRepository) Create(ctx context.Context, c *domain.Constituency) error {
	query := `
		INSERT INTO constituencies (
			id, name, state, sitting_party, leader_name,
			registered_voters, last_margin, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Name, c.State, c.SittingParty, c.LeaderName,
		c.RegisteredVoters, c.LastMargin, c.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create constituency: %w", err)
	}
	return nil
}

// GetByID returns one constituency.
func (r *ConstituencyRepository) GetByID(ctx context.Context, id string) (*domain.Constituency, error) {
	c := &domain.Constituency{}
	query := `SELECT ` + constituencyColumns + ` FROM constituencies WHERE id = $1`
	if err := r.db.GetContext(ctx, c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get constituency %s: %w", id, err)
	}
	return c, nil
}

// ListRanked returns constituencies ordered by current vulnerability
// score, most exposed first.
func (r *ConstituencyRepository) ListRanked(ctx context.Context, limit int) ([]*domain.Constituency, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT ` + constituencyColumns + `
		FROM constituencies
		ORDER BY current_score DESC, name ASC
		LIMIT $1
	`
	list := []*domain.Constituency{}
	if err := r.db.SelectContext(ctx, &list, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list constituencies: %w", err)
	}
	return list, nil
}

// ListIDs returns every constituency id, for batch rescoring.
func (r *ConstituencyRepository) ListIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM constituencies ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list constituency ids: %w", err)
	}
	return ids, nil
}
