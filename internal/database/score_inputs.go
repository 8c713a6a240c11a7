package database

import (
	"context"
	"fmt"

	"github.com/voterpulse/sentinel/internal/domain"
)

// ScoreInputReader assembles the window aggregates a score computation
// needs from the content, issue and constituency repositories.
type ScoreInputReader struct {
	content        *ContentRepository
	issues         *IssueRepository
	constituencies *ConstituencyRepository
}

// NewScoreInputReader creates a ScoreInputReader.
func NewScoreInputReader(content *ContentRepository, issues *IssueRepository, constituencies *ConstituencyRepository) *ScoreInputReader {
	return &ScoreInputReader{
		content:        content,
		issues:         issues,
		constituencies: constituencies,
	}
}

// ScoreInputs gathers every aggregate for one constituency's score. Any
// failing query fails the whole read; the scorer handles degradation.
func (r *ScoreInputReader) ScoreInputs(ctx context.Context, constituencyID string, windowDays int) (*domain.ScoreInputs, error) {
	total, negative, controversy, err := r.content.WindowAggregates(ctx, constituencyID, windowDays)
	if err != nil {
		return nil, fmt.Errorf("content aggregates: %w", err)
	}

	openHigh, err := r.issues.CountOpenHighSeverity(ctx, constituencyID)
	if err != nil {
		return nil, fmt.Errorf("issue aggregates: %w", err)
	}

	constituency, err := r.constituencies.GetByID(ctx, constituencyID)
	if err != nil {
		return nil, fmt.Errorf("constituency lookup: %w", err)
	}
	marginPct, marginAvailable := constituency.MarginPct()

	return &domain.ScoreInputs{
		TotalNews:        total,
		NegativeNews:     negative,
		ControversyCount: controversy,
		OpenHighIssues:   openHigh,
		MarginPct:        marginPct,
		MarginAvailable:  marginAvailable,
	}, nil
}
