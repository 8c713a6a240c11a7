// Package issues detects recurring local grievances in classified
// content and clusters them into tracked issues per constituency.
package issues

import (
	"sort"

	"github.com/voterpulse/sentinel/internal/classifier"
	"github.com/voterpulse/sentinel/internal/domain"
)

// Hit thresholds for detection and anger derivation.
const (
	minCategoryHits = 2
	angerHighHits   = 4
	angerMediumHits = 3
)

// Detector extracts issue signals from one classified item. It reads
// the lexical strategy's auxiliary signals regardless of which strategy
// produced the classification, so protest and severity derivation stay
// deterministic.
type Detector struct {
	lexical *classifier.Lexical
}

// NewDetector creates a Detector backed by the given lexical strategy.
func NewDetector(lexical *classifier.Lexical) *Detector {
	return &Detector{lexical: lexical}
}

// Detect returns one DetectedIssue per topic category with enough
// keyword hits in the item. An empty slice means the item carries no
// issue signal, which is the common case.
func (d *Detector) Detect(item *domain.ContentItem, c *domain.Classification) []domain.DetectedIssue {
	if len(c.TopicHits) == 0 {
		return nil
	}

	severity := d.lexical.IssueSeverity(item)
	protestCount, _ := d.lexical.AngerSignals(item)
	protest := protestCount > 0

	var detected []domain.DetectedIssue
	// TopicHits preserves no order; iterate the classification's Topics
	// slice first for determinism, then any remaining categories.
	for _, category := range orderedCategories(c) {
		hits := c.TopicHits[category]
		if hits < minCategoryHits {
			continue
		}
		detected = append(detected, domain.DetectedIssue{
			Title:            item.Title,
			Category:         category,
			Severity:         severity,
			ProtestActivity:  protest,
			PublicAngerLevel: angerLevel(severity, protest, hits),
			KeywordHits:      hits,
			SourceContentID:  item.ID,
		})
	}
	return detected
}

// angerLevel derives the public anger reading from severity, protest
// activity and keyword density.
func angerLevel(severity domain.Severity, protest bool, hits int) string {
	critical := severity == domain.SeverityCritical
	switch {
	case protest && critical:
		return domain.AngerBoiling
	case protest || critical || hits >= angerHighHits:
		return domain.AngerHigh
	case severity == domain.SeverityHigh || hits >= angerMediumHits:
		return domain.AngerMedium
	default:
		return domain.AngerLow
	}
}

// orderedCategories returns every category with hits, classification
// topics first in their ranked order, remaining categories sorted by
// the stable iteration the caller established at classification time.
func orderedCategories(c *domain.Classification) []string {
	seen := make(map[string]bool, len(c.TopicHits))
	out := make([]string, 0, len(c.TopicHits))
	for _, t := range c.Topics {
		if _, ok := c.TopicHits[t]; ok && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	rest := make([]string, 0, len(c.TopicHits))
	for cat := range c.TopicHits {
		if !seen[cat] {
			rest = append(rest, cat)
		}
	}
	sort.Strings(rest)
	out = append(out, rest...)
	return out
}
