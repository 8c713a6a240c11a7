package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voterpulse/sentinel/internal/domain"
)

func TestMaxSeverity(t *testing.T) {
	assert.Equal(t, domain.SeverityHigh, domain.MaxSeverity(domain.SeverityHigh, domain.SeverityLow))
	assert.Equal(t, domain.SeverityHigh, domain.MaxSeverity(domain.SeverityLow, domain.SeverityHigh))
	assert.Equal(t, domain.SeverityCritical, domain.MaxSeverity(domain.SeverityCritical, domain.SeverityCritical))
	assert.Equal(t, domain.SeverityMedium, domain.MaxSeverity(domain.SeverityMedium, ""))
}

func TestNextSeverity(t *testing.T) {
	assert.Equal(t, domain.SeverityMedium, domain.NextSeverity(domain.SeverityLow))
	assert.Equal(t, domain.SeverityHigh, domain.NextSeverity(domain.SeverityMedium))
	assert.Equal(t, domain.SeverityCritical, domain.NextSeverity(domain.SeverityHigh))
	assert.Equal(t, domain.SeverityCritical, domain.NextSeverity(domain.SeverityCritical))
}

func TestIsNegative(t *testing.T) {
	assert.True(t, (&domain.Classification{Sentiment: domain.SentimentNegative}).IsNegative())
	assert.True(t, (&domain.Classification{Sentiment: domain.SentimentNeutral, IsControversy: true}).IsNegative())
	assert.False(t, (&domain.Classification{Sentiment: domain.SentimentPositive}).IsNegative())
}

func TestHashContent(t *testing.T) {
	a := domain.HashContent("Potholes Anger Residents", "NewsData")
	b := domain.HashContent("potholes anger residents", "newsdata")
	assert.Equal(t, a, b, "hash is case-insensitive")
	assert.Len(t, a, 16)

	c := domain.HashContent("Potholes Anger Residents", "other-feed")
	assert.NotEqual(t, a, c, "source name is part of the identity")
}
