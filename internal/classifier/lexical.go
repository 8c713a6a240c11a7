package classifier

import (
	"context"
	"sort"
	"time"

	"github.com/voterpulse/sentinel/internal/domain"
)

// Strategy classifies one content item. Implementations must be safe
// for concurrent use.
type Strategy interface {
	Name() string
	Classify(ctx context.Context, item *domain.ContentItem) (*domain.Classification, error)
}

// Scoring constants for the lexical strategy.
const (
	// sentimentMargin is the lead one polarity needs over the other
	// before the item leaves neutral.
	sentimentMargin = 1

	// maxConfidence caps lexical confidence; keyword counting is
	// suggestive, never certain.
	maxConfidence = 0.9

	baseConfidence     = 0.5
	confidencePerHit   = 0.1
	defaultMaxTopics   = 5
	defaultTierUpgrade = 3
)

// Lexical is the keyword-table classification strategy. It is the
// always-available fallback and needs no network or external state.
type Lexical struct {
	table  *KeywordTable
	engine *matchEngine

	maxTopics       int
	tierUpgradeHits int
	now             func() time.Time
}

// LexicalOption adjusts a Lexical classifier.
type LexicalOption func(*Lexical)

// WithMaxTopics overrides the topic cap.
func WithMaxTopics(n int) LexicalOption {
	return func(l *Lexical) {
		if n > 0 {
			l.maxTopics = n
		}
	}
}

// WithTierUpgradeHits overrides the distinct-hit count that promotes a
// controversy one severity tier.
func WithTierUpgradeHits(n int) LexicalOption {
	return func(l *Lexical) {
		if n > 0 {
			l.tierUpgradeHits = n
		}
	}
}

// NewLexical builds the lexical strategy from a keyword table. A nil
// table uses the built-in default.
func NewLexical(table *KeywordTable, opts ...LexicalOption) *Lexical {
	if table == nil {
		table = DefaultTable()
	}
	l := &Lexical{
		table:           table,
		engine:          newMatchEngine(table),
		maxTopics:       defaultMaxTopics,
		tierUpgradeHits: defaultTierUpgrade,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name identifies the strategy in logs and metrics.
func (l *Lexical) Name() string { return domain.MethodLexical }

// Classify scores the item against every keyword group in one matching
// pass. It never fails; the error return exists to satisfy Strategy.
func (l *Lexical) Classify(_ context.Context, item *domain.ContentItem) (*domain.Classification, error) {
	hits := l.engine.match(item.Title + " " + item.Text)

	result := &domain.Classification{
		ContentID:    item.ID,
		Method:       domain.MethodLexical,
		TableVersion: l.table.Version,
		ClassifiedAt: l.now().UTC(),
	}

	l.scoreSentiment(result, hits)
	l.scoreStance(result, hits)
	l.scoreControversy(result, hits)
	l.scoreTopics(result, hits)

	return result, nil
}

// HasProtestSignal reports whether the item mentions protest activity.
func (l *Lexical) HasProtestSignal(item *domain.ContentItem) bool {
	hits := l.engine.match(item.Title + " " + item.Text)
	gh := hits[groupID{kind: "protest"}]
	return gh != nil && gh.Distinct > 0
}

// IssueSeverity returns the highest severity tier with at least one
// keyword hit, without the distinct-hit upgrade controversy scoring
// applies. Items with no tier hits default to low.
func (l *Lexical) IssueSeverity(item *domain.ContentItem) domain.Severity {
	hits := l.engine.match(item.Title + " " + item.Text)
	for _, tier := range l.table.Tiers {
		gh := hits[groupID{kind: "tier", name: string(tier.Severity)}]
		if gh != nil && gh.Distinct > 0 {
			return tier.Severity
		}
	}
	return domain.SeverityLow
}

// AngerSignals returns the distinct protest and high-anger keyword
// counts, used by issue aggregation to derive public anger levels.
func (l *Lexical) AngerSignals(item *domain.ContentItem) (protest, anger int) {
	hits := l.engine.match(item.Title + " " + item.Text)
	if gh := hits[groupID{kind: "protest"}]; gh != nil {
		protest = gh.Distinct
	}
	if gh := hits[groupID{kind: "anger"}]; gh != nil {
		anger = gh.Distinct
	}
	return protest, anger
}

func (l *Lexical) scoreSentiment(result *domain.Classification, hits map[groupID]*GroupHits) {
	var pos, neg int
	if gh := hits[groupID{kind: "positive"}]; gh != nil {
		pos = gh.Distinct
	}
	if gh := hits[groupID{kind: "negative"}]; gh != nil {
		neg = gh.Distinct
	}

	dominant := pos
	switch {
	case pos > neg+sentimentMargin:
		result.Sentiment = domain.SentimentPositive
	case neg > pos+sentimentMargin:
		result.Sentiment = domain.SentimentNegative
		dominant = neg
	default:
		result.Sentiment = domain.SentimentNeutral
		if neg > pos {
			dominant = neg
		}
	}

	if pos+neg > 0 {
		result.SentimentScore = float64(pos-neg) / float64(pos+neg)
	}

	confidence := baseConfidence + confidencePerHit*float64(dominant)
	if confidence > maxConfidence {
		confidence = maxConfidence
	}
	result.Confidence = confidence
}

// scoreStance picks the stance label with the most distinct hits.
// Equal counts cancel out to neutral.
func (l *Lexical) scoreStance(result *domain.Classification, hits map[groupID]*GroupHits) {
	best := ""
	bestCount := 0
	tied := false
	for _, s := range l.table.Stances {
		gh := hits[groupID{kind: "stance", name: s.Label}]
		if gh == nil {
			continue
		}
		switch {
		case gh.Distinct > bestCount:
			best = s.Label
			bestCount = gh.Distinct
			tied = false
		case gh.Distinct == bestCount:
			tied = true
		}
	}
	if bestCount > 0 && !tied {
		result.Stance = best
	} else {
		result.Stance = "neutral"
	}
}

// scoreControversy finds the highest tier with at least one hit and
// upgrades it one step when enough distinct keywords of that tier
// matched. Tiers in the table are ordered highest first.
func (l *Lexical) scoreControversy(result *domain.Classification, hits map[groupID]*GroupHits) {
	for _, tier := range l.table.Tiers {
		gh := hits[groupID{kind: "tier", name: string(tier.Severity)}]
		if gh == nil || gh.Distinct == 0 {
			continue
		}
		severity := tier.Severity
		if gh.Distinct >= l.tierUpgradeHits {
			severity = domain.NextSeverity(severity)
		}
		result.IsControversy = true
		result.ControversySeverity = severity
		return
	}
}

// scoreTopics records every category's hit count, then selects up to
// maxTopics categories with at least one hit, ordered by hit count and
// tie-broken by table declaration order.
func (l *Lexical) scoreTopics(result *domain.Classification, hits map[groupID]*GroupHits) {
	type scored struct {
		name  string
		count int
		order int
	}

	result.TopicHits = make(map[string]int, len(l.table.Topics))
	candidates := make([]scored, 0, len(l.table.Topics))
	for i, topic := range l.table.Topics {
		gh := hits[groupID{kind: "topic", name: topic.Name}]
		if gh == nil || gh.Distinct == 0 {
			continue
		}
		result.TopicHits[topic.Name] = gh.Distinct
		candidates = append(candidates, scored{name: topic.Name, count: gh.Distinct, order: i})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].count != candidates[j].count {
			return candidates[i].count > candidates[j].count
		}
		return candidates[i].order < candidates[j].order
	})

	limit := l.maxTopics
	if len(candidates) < limit {
		limit = len(candidates)
	}
	for _, c := range candidates[:limit] {
		result.Topics = append(result.Topics, c.name)
	}
}
