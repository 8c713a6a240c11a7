package classifier_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voterpulse/sentinel/internal/classifier"
	"github.com/voterpulse/sentinel/internal/domain"
)

type stubStrategy struct {
	result *domain.Classification
	err    error
	calls  int
}

func (s *stubStrategy) Name() string { return "stub" }

func (s *stubStrategy) Classify(context.Context, *domain.ContentItem) (*domain.Classification, error) {
	s.calls++
	return s.result, s.err
}

func TestChain_UsesPrimaryWhenItSucceeds(t *testing.T) {
	primary := &stubStrategy{result: &domain.Classification{
		Sentiment: domain.SentimentNegative,
		Method:    "stub",
	}}
	chain := classifier.NewChain(primary, classifier.NewLexical(nil), nil, nil)

	result, err := chain.Classify(context.Background(), &domain.ContentItem{
		ID:    "item-1",
		Title: "New hospital wing inaugurated",
	})
	require.NoError(t, err)
	assert.Equal(t, "stub", result.Method)
	assert.Equal(t, 1, primary.calls)
}

func TestChain_FallsBackToLexicalOnFailure(t *testing.T) {
	primary := &stubStrategy{err: errors.New("model unavailable")}
	chain := classifier.NewChain(primary, classifier.NewLexical(nil), nil, nil)

	result, err := chain.Classify(context.Background(), &domain.ContentItem{
		ID:    "item-1",
		Title: "Scam allegations rock housing board",
		Text:  "Opposition demands a probe into the scam.",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MethodLexical, result.Method)
	assert.Equal(t, domain.SentimentNegative, result.Sentiment)
}

func TestChain_NilPrimaryGoesStraightToLexical(t *testing.T) {
	chain := classifier.NewChain(nil, classifier.NewLexical(nil), nil, nil)

	result, err := chain.Classify(context.Background(), &domain.ContentItem{
		ID:    "item-1",
		Title: "Road inaugurated after long delay",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MethodLexical, result.Method)
}
