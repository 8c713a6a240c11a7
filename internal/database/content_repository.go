package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/voterpulse/sentinel/internal/domain"
)

// ContentRepository persists content items and their classification
// annotations.
type ContentRepository struct {
	db *sqlx.DB
}

// NewContentRepository creates a ContentRepository.
func NewContentRepository(db *sqlx.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// SaveItems inserts items, silently skipping rows whose content hash is
// already stored. The hash carries a unique constraint, so concurrent
// writers cannot double-insert the same story.
func (r *ContentRepository) SaveItems(ctx context.Context, items []*domain.ContentItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO content_items (
			id, content_hash, source_system, source_name, constituency_id,
			title, text, author, tags, language, sentiment_hint,
			published_at, ingested_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (content_hash) DO NOTHING
	`

	for _, item := range items {
		_, err := r.db.ExecContext(ctx, query,
			item.ID, item.ContentHash, item.SourceSystem, item.SourceName,
			nullString(item.ConstituencyID), item.Title, item.Text,
			item.Author, pq.Array(item.Tags), item.Language,
			item.SentimentHint, item.PublishedAt, item.IngestedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save content item %s: %w", item.ID, err)
		}
	}
	return nil
}

// RecentBySource returns the most recently published stored items for a
// source, optionally scoped to one constituency. This is the persisted
// fallback behind cache misses.
func (r *ContentRepository) RecentBySource(ctx context.Context, sourceKey, constituencyID string, limit int) ([]*domain.ContentItem, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, content_hash, source_system, source_name,
		       COALESCE(constituency_id, '') AS constituency_id,
		       title, text, author, language, sentiment_hint,
		       published_at, ingested_at
		FROM content_items
		WHERE source_system = $1
		  AND ($2 = '' OR constituency_id = $2)
		ORDER BY published_at DESC
		LIMIT $3
	`

	items := []*domain.ContentItem{}
	if err := r.db.SelectContext(ctx, &items, query, sourceKey, constituencyID, limit); err != nil {
		return nil, fmt.Errorf("failed to list recent items for %s: %w", sourceKey, err)
	}
	return items, nil
}

// AttachClassification annotates a stored item with its derived
// classification. The original fields are never touched.
func (r *ContentRepository) AttachClassification(ctx context.Context, c *domain.Classification) error {
	query := `
		UPDATE content_items
		SET sentiment = $2,
		    sentiment_score = $3,
		    confidence = $4,
		    stance = $5,
		    is_controversy = $6,
		    controversy_severity = $7,
		    topics = $8,
		    classified_method = $9,
		    table_version = $10,
		    classified_at = $11
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		c.ContentID, c.Sentiment, c.SentimentScore, c.Confidence, c.Stance,
		c.IsControversy, string(c.ControversySeverity), pq.Array(c.Topics),
		c.Method, c.TableVersion, c.ClassifiedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to attach classification to %s: %w", c.ContentID, err)
	}
	if rows, raErr := result.RowsAffected(); raErr == nil && rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// windowAggregates is the scan target for WindowAggregates.
type windowAggregates struct {
	Total       int `db:"total"`
	Negative    int `db:"negative"`
	Controversy int `db:"controversy"`
}

// WindowAggregates counts total, negative and controversy items for a
// constituency over the trailing window.
func (r *ContentRepository) WindowAggregates(ctx context.Context, constituencyID string, windowDays int) (total, negative, controversy int, err error) {
	query := `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE sentiment = 'negative') AS negative,
		       COUNT(*) FILTER (WHERE is_controversy) AS controversy
		FROM content_items
		WHERE constituency_id = $1
		  AND published_at >= NOW() - ($2 * INTERVAL '1 day')
	`

	var agg windowAggregates
	if err := r.db.GetContext(ctx, &agg, query, constituencyID, windowDays); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to aggregate content window: %w", err)
	}
	return agg.Total, agg.Negative, agg.Controversy, nil
}

// ListUnclassified returns stored items that have no classification
// yet, oldest first, for backlog reprocessing.
func (r *ContentRepository) ListUnclassified(ctx context.Context, limit int) ([]*domain.ContentItem, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, content_hash, source_system, source_name,
		       COALESCE(constituency_id, '') AS constituency_id,
		       title, text, author, language, sentiment_hint,
		       published_at, ingested_at
		FROM content_items
		WHERE classified_at IS NULL
		ORDER BY ingested_at ASC
		LIMIT $1
	`

	items := []*domain.ContentItem{}
	if err := r.db.SelectContext(ctx, &items, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list unclassified items: %w", err)
	}
	return items, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
