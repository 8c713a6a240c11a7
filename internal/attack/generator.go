package attack

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voterpulse/sentinel/internal/domain"
	"github.com/voterpulse/sentinel/internal/logger"
	"github.com/voterpulse/sentinel/internal/metrics"
)

// Repository is the persistence surface for attack points.
type Repository interface {
	ActiveByType(ctx context.Context, constituencyID, attackType string) (*domain.AttackPoint, error)
	Create(ctx context.Context, point *domain.AttackPoint) error
	AppendEvidence(ctx context.Context, pointID, contentID string) error
}

// Generator pattern-matches negative coverage against the template
// library and maintains one active attack point per type per
// constituency. Callers serialize per constituency, same as issue
// upserts.
type Generator struct {
	repo    Repository
	metrics *metrics.Metrics
	logger  logger.Logger
	now     func() time.Time
}

// NewGenerator creates a Generator.
func NewGenerator(repo Repository, m *metrics.Metrics, log logger.Logger) *Generator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Generator{
		repo:    repo,
		metrics: m,
		logger:  log,
		now:     time.Now,
	}
}

// Generate matches one negative or controversy-flagged item against the
// template library. A nil result with nil error means no template
// matched, which is expected for most items. Items that are neither
// negative nor controversial are skipped outright.
func (g *Generator) Generate(ctx context.Context, item *domain.ContentItem, c *domain.Classification, constituencyID, targetName string) (*domain.AttackPoint, error) {
	if !c.IsNegative() {
		return nil, nil
	}

	tmpl := matchTemplate(item.Title + " " + item.Text)
	if tmpl == nil {
		return nil, nil
	}

	existing, err := g.repo.ActiveByType(ctx, constituencyID, tmpl.AttackType)
	switch {
	case err == nil:
		if err := g.repo.AppendEvidence(ctx, existing.ID, item.ID); err != nil {
			return nil, fmt.Errorf("append evidence to %s: %w", existing.ID, err)
		}
		existing.SourceContentIDs = append(existing.SourceContentIDs, item.ID)
		existing.UpdatedAt = g.now().UTC()
		g.count("evidence_appended")
		g.logger.Debug("appended evidence to active attack point",
			logger.String("attack_point_id", existing.ID),
			logger.String("attack_type", tmpl.AttackType))
		return existing, nil

	case errors.Is(err, domain.ErrNotFound):
		point := g.newPoint(tmpl, item, constituencyID, targetName)
		if err := g.repo.Create(ctx, point); err != nil {
			return nil, fmt.Errorf("create attack point: %w", err)
		}
		g.count("created")
		g.logger.Info("created attack point",
			logger.String("attack_point_id", point.ID),
			logger.String("constituency_id", constituencyID),
			logger.String("attack_type", point.AttackType),
			logger.String("impact_tier", point.ImpactTier))
		return point, nil

	default:
		return nil, fmt.Errorf("lookup active attack point: %w", err)
	}
}

func (g *Generator) newPoint(tmpl *Template, item *domain.ContentItem, constituencyID, targetName string) *domain.AttackPoint {
	claim := tmpl.ClaimEN
	if containsHindi(item.Title + " " + item.Text) {
		claim = tmpl.ClaimHI
	}

	now := g.now().UTC()
	return &domain.AttackPoint{
		ID:               uuid.NewString(),
		ConstituencyID:   constituencyID,
		TargetName:       targetName,
		Claim:            fmt.Sprintf(claim, targetName),
		EvidenceRef:      item.Title,
		AttackType:       tmpl.AttackType,
		ImpactTier:       tmpl.ImpactTier,
		SourceContentIDs: []string{item.ID},
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// matchTemplate returns the first template whose English or Hindi
// pattern appears in the text, or nil.
func matchTemplate(text string) *Template {
	lowered := strings.ToLower(text)
	for i := range templates {
		t := &templates[i]
		if strings.Contains(lowered, t.PatternEN) || strings.Contains(lowered, t.PatternHI) {
			return t
		}
	}
	return nil
}

// containsHindi reports whether the text has any Devanagari runes, used
// to pick the claim language.
func containsHindi(text string) bool {
	for _, r := range text {
		if r >= 0x0900 && r <= 0x097F {
			return true
		}
	}
	return false
}

func (g *Generator) count(action string) {
	if g.metrics != nil {
		g.metrics.AttackPointsTotal.WithLabelValues(action).Inc()
	}
}
