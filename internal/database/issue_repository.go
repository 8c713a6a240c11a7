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

const issueColumns = `
	id, constituency_id, title, category, severity, public_anger_level,
	protest_activity, source_count, open, first_seen_at, last_mentioned_at
`

// IssueRepository persists tracked issues.
type IssueRepository struct {
	db *sqlx.DB
}

// NewIssueRepository creates an IssueRepository.
func NewIssueRepository(db *sqlx.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

// Create inserts a new tracked issue.
func (r *IssueRepository) Create(ctx context.Context, issue *domain.TrackedIssue) error {
	query := `
		INSERT INTO tracked_issues (` + issueColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		issue.ID, issue.ConstituencyID, issue.Title, issue.Category,
		issue.Severity, issue.PublicAngerLevel, issue.ProtestActivity,
		issue.SourceCount, issue.Open, issue.FirstSeenAt, issue.LastMentionedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create issue: %w", err)
	}
	return nil
}

// Update writes the mutable fields of an existing issue.
func (r *IssueRepository) Update(ctx context.Context, issue *domain.TrackedIssue) error {
	query := `
		UPDATE tracked_issues
		SET severity = $2,
		    public_anger_level = $3,
		    protest_activity = $4,
		    source_count = $5,
		    open = $6,
		    last_mentioned_at = $7
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		issue.ID, issue.Severity, issue.PublicAngerLevel,
		issue.ProtestActivity, issue.SourceCount, issue.Open,
		issue.LastMentionedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update issue %s: %w", issue.ID, err)
	}
	if rows, raErr := result.RowsAffected(); raErr == nil && rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID returns one tracked issue.
func (r *IssueRepository) GetByID(ctx context.Context, id string) (*domain.TrackedIssue, error) {
	issue := &domain.TrackedIssue{}
	query := `SELECT ` + issueColumns + ` FROM tracked_issues WHERE id = $1`
	if err := r.db.GetContext(ctx, issue, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get issue %s: %w", id, err)
	}
	return issue, nil
}

// ListByCategory returns all open issues for one constituency and
// category, the merge-candidate set for issue aggregation.
func (r *IssueRepository) ListByCategory(ctx context.Context, constituencyID, category string) ([]*domain.TrackedIssue, error) {
	query := `
		SELECT ` + issueColumns + `
		FROM tracked_issues
		WHERE constituency_id = $1 AND category = $2 AND open
		ORDER BY last_mentioned_at DESC
	`
	issues := []*domain.TrackedIssue{}
	if err := r.db.SelectContext(ctx, &issues, query, constituencyID, category); err != nil {
		return nil, fmt.Errorf("failed to list issues for %s/%s: %w", constituencyID, category, err)
	}
	return issues, nil
}

// ListByConstituency returns all issues for one constituency, most
// recently mentioned first.
func (r *IssueRepository) ListByConstituency(ctx context.Context, constituencyID string, openOnly bool) ([]*domain.TrackedIssue, error) {
	query := `
		SELECT ` + issueColumns + `
		FROM tracked_issues
		WHERE constituency_id = $1 AND (NOT $2 OR open)
		ORDER BY last_mentioned_at DESC
	`
	issues := []*domain.TrackedIssue{}
	if err := r.db.SelectContext(ctx, &issues, query, constituencyID, openOnly); err != nil {
		return nil, fmt.Errorf("failed to list issues for %s: %w", constituencyID, err)
	}
	return issues, nil
}

// CountOpenHighSeverity counts open issues at high or critical severity
// for the grievance component of the vulnerability score.
func (r *IssueRepository) CountOpenHighSeverity(ctx context.Context, constituencyID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM tracked_issues
		WHERE constituency_id = $1
		  AND open
		  AND severity IN ('high', 'critical')
	`
	var count int
	if err := r.db.GetContext(ctx, &count, query, constituencyID); err != nil {
		return 0, fmt.Errorf("failed to count open high-severity issues: %w", err)
	}
	return count, nil
}

// Close marks an issue resolved. Severity history is preserved.
func (r *IssueRepository) Close(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE tracked_issues SET open = false WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to close issue %s: %w", id, err)
	}
	if rows, raErr := result.RowsAffected(); raErr == nil && rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
