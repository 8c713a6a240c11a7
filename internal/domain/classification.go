package domain

import "time"

// Sentiment polarity values.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Severity is a four-tier ordered scale used for controversies and
// tracked issues.
type Severity string

// Severity tiers, lowest to highest.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank returns the ordinal position of the severity tier.
// Unknown values rank below low.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// MaxSeverity returns the higher of two severity tiers.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// NextSeverity returns the tier one step above s, or s when already at
// critical.
func NextSeverity(s Severity) Severity {
	switch s {
	case SeverityLow:
		return SeverityMedium
	case SeverityMedium:
		return SeverityHigh
	case SeverityHigh:
		return SeverityCritical
	default:
		return s
	}
}

// Classification method values.
const (
	MethodLexical = "lexical"
	MethodAI      = "ai"
)

// Classification is the derived analysis attached to one ContentItem.
// It is recomputable from the item plus a keyword-table version and is
// cached, never treated as ground truth.
type Classification struct {
	ContentID           string   `json:"content_id"`
	Sentiment           string   `json:"sentiment"`
	SentimentScore      float64  `json:"sentiment_score"` // [-1, 1]
	Confidence          float64  `json:"confidence"`
	Stance              string   `json:"stance,omitempty"`
	IsControversy       bool     `json:"is_controversy"`
	ControversySeverity Severity `json:"controversy_severity,omitempty"`
	Topics              []string `json:"topics,omitempty"`
	// TopicHits carries the distinct keyword hit count per topic
	// category, including categories below the topic threshold. Issue
	// detection reads it with its own stricter minimum.
	TopicHits    map[string]int `json:"topic_hits,omitempty"`
	Method       string         `json:"method"`
	TableVersion string         `json:"table_version"`
	ClassifiedAt time.Time      `json:"classified_at"`
}

// IsNegative reports whether the item warrants attack-point matching.
func (c *Classification) IsNegative() bool {
	return c.Sentiment == SentimentNegative || c.IsControversy
}
