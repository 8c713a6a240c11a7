package issues

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/voterpulse/sentinel/internal/domain"
	"github.com/voterpulse/sentinel/internal/logger"
	"github.com/voterpulse/sentinel/internal/metrics"
)

// DefaultSimilarityThreshold is the title overlap above which a
// detection merges into an existing issue.
const DefaultSimilarityThreshold = 0.5

// Repository is the persistence surface the aggregator needs.
type Repository interface {
	ListByCategory(ctx context.Context, constituencyID, category string) ([]*domain.TrackedIssue, error)
	Create(ctx context.Context, issue *domain.TrackedIssue) error
	Update(ctx context.Context, issue *domain.TrackedIssue) error
}

// Aggregator merges detected issues into tracked issues. Callers must
// serialize Upsert calls per constituency; the monotonic severity and
// no-duplicate invariants do not survive concurrent writers on the
// same constituency.
type Aggregator struct {
	repo      Repository
	threshold float64
	metrics   *metrics.Metrics
	logger    logger.Logger
	now       func() time.Time
}

// NewAggregator creates an Aggregator. A zero threshold uses the
// default.
func NewAggregator(repo Repository, threshold float64, m *metrics.Metrics, log logger.Logger) *Aggregator {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Aggregator{
		repo:      repo,
		threshold: threshold,
		metrics:   m,
		logger:    log,
		now:       time.Now,
	}
}

// Upsert merges one detection into the nearest tracked issue for the
// constituency and category, or creates a new issue when nothing is
// similar enough. Returns the action taken and the issue id.
func (a *Aggregator) Upsert(ctx context.Context, constituencyID string, det domain.DetectedIssue) (domain.UpsertAction, string, error) {
	candidates, err := a.repo.ListByCategory(ctx, constituencyID, det.Category)
	if err != nil {
		return "", "", fmt.Errorf("list candidate issues: %w", err)
	}

	if match := a.bestMatch(det.Title, candidates); match != nil {
		a.merge(match, det)
		if err := a.repo.Update(ctx, match); err != nil {
			return "", "", fmt.Errorf("update issue %s: %w", match.ID, err)
		}
		a.count(domain.ActionUpdated)
		a.logger.Debug("merged detection into tracked issue",
			logger.String("issue_id", match.ID),
			logger.String("category", det.Category),
			logger.Int("source_count", match.SourceCount))
		return domain.ActionUpdated, match.ID, nil
	}

	issue := a.newIssue(constituencyID, det)
	if err := a.repo.Create(ctx, issue); err != nil {
		return "", "", fmt.Errorf("create issue: %w", err)
	}
	a.count(domain.ActionCreated)
	a.logger.Info("tracked new issue",
		logger.String("issue_id", issue.ID),
		logger.String("constituency_id", constituencyID),
		logger.String("category", det.Category),
		logger.String("severity", string(issue.Severity)))
	return domain.ActionCreated, issue.ID, nil
}

// bestMatch returns the candidate with the highest title similarity
// above the threshold, or nil.
func (a *Aggregator) bestMatch(title string, candidates []*domain.TrackedIssue) *domain.TrackedIssue {
	var best *domain.TrackedIssue
	bestScore := a.threshold
	for _, cand := range candidates {
		score := Similarity(title, cand.Title)
		if score > bestScore {
			best = cand
			bestScore = score
		}
	}
	return best
}

// merge applies one detection to an existing issue. Severity moves up
// only, the protest flag is sticky, and the anger level is overwritten
// with the freshly derived reading.
func (a *Aggregator) merge(issue *domain.TrackedIssue, det domain.DetectedIssue) {
	issue.SourceCount++
	issue.LastMentionedAt = a.now().UTC()
	issue.Severity = domain.MaxSeverity(issue.Severity, det.Severity)
	issue.ProtestActivity = issue.ProtestActivity || det.ProtestActivity
	issue.PublicAngerLevel = det.PublicAngerLevel
	issue.Open = true
}

func (a *Aggregator) newIssue(constituencyID string, det domain.DetectedIssue) *domain.TrackedIssue {
	now := a.now().UTC()
	return &domain.TrackedIssue{
		ID:               uuid.NewString(),
		ConstituencyID:   constituencyID,
		Title:            det.Title,
		Category:         det.Category,
		Severity:         det.Severity,
		PublicAngerLevel: det.PublicAngerLevel,
		ProtestActivity:  det.ProtestActivity,
		SourceCount:      1,
		Open:             true,
		FirstSeenAt:      now,
		LastMentionedAt:  now,
	}
}

func (a *Aggregator) count(action domain.UpsertAction) {
	if a.metrics != nil {
		a.metrics.IssuesUpserted.WithLabelValues(string(action)).Inc()
	}
}
