package scoring_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voterpulse/sentinel/internal/domain"
	"github.com/voterpulse/sentinel/internal/scoring"
)

type fakeInputs struct {
	inputs *domain.ScoreInputs
	err    error
}

func (f *fakeInputs) ScoreInputs(context.Context, string, int) (*domain.ScoreInputs, error) {
	return f.inputs, f.err
}

type fakeHistory struct {
	latest   *domain.VulnerabilityScore
	appended []*domain.VulnerabilityScore
}

func (f *fakeHistory) Latest(context.Context, string) (*domain.VulnerabilityScore, error) {
	if f.latest == nil {
		return nil, domain.ErrNotFound
	}
	return f.latest, nil
}

func (f *fakeHistory) Append(_ context.Context, record *domain.VulnerabilityScore) error {
	f.appended = append(f.appended, record)
	return nil
}

func TestBreakdown(t *testing.T) {
	in := &domain.ScoreInputs{
		TotalNews:        50,
		NegativeNews:     30,
		ControversyCount: 2,
		OpenHighIssues:   1,
		MarginPct:        7.2,
		MarginAvailable:  true,
	}

	b := scoring.Breakdown(in)
	assert.InDelta(t, 18.0, b.NewsImpact, 0.001) // 30/50 of the 30-point cap
	assert.InDelta(t, 20.0, b.ControversyImpact, 0.001)
	assert.InDelta(t, 4.0, b.GrievanceImpact, 0.001)
	assert.InDelta(t, 15.0, b.MarginRisk, 0.001)
	assert.Equal(t, 57, scoring.CompositeScore(b))
}

func TestBreakdown_TightMargin(t *testing.T) {
	in := &domain.ScoreInputs{
		TotalNews:        50,
		NegativeNews:     30,
		ControversyCount: 2,
		OpenHighIssues:   1,
		MarginPct:        3.8,
		MarginAvailable:  true,
	}

	b := scoring.Breakdown(in)
	assert.InDelta(t, 20.0, b.MarginRisk, 0.001)
	assert.Equal(t, 62, scoring.CompositeScore(b))
}

func TestBreakdown_Caps(t *testing.T) {
	in := &domain.ScoreInputs{
		TotalNews:        10,
		NegativeNews:     10,
		ControversyCount: 9,
		OpenHighIssues:   12,
		MarginPct:        1.4,
		MarginAvailable:  true,
	}

	b := scoring.Breakdown(in)
	assert.InDelta(t, 30.0, b.NewsImpact, 0.001)
	assert.InDelta(t, 30.0, b.ControversyImpact, 0.001)
	assert.InDelta(t, 20.0, b.GrievanceImpact, 0.001)
	assert.InDelta(t, 20.0, b.MarginRisk, 0.001)
	assert.Equal(t, 100, scoring.CompositeScore(b))
}

func TestBreakdown_QuietWindow(t *testing.T) {
	// No content and margin data present: only the margin floor
	// remains.
	b := scoring.Breakdown(&domain.ScoreInputs{MarginPct: 22.5, MarginAvailable: true})
	assert.Zero(t, b.NewsImpact)
	assert.Zero(t, b.ControversyImpact)
	assert.Zero(t, b.GrievanceImpact)
	assert.InDelta(t, 5.0, b.MarginRisk, 0.001)
	assert.Equal(t, 5, scoring.CompositeScore(b))
}

func TestBreakdown_MarginUnavailableContributesZero(t *testing.T) {
	// MarginPct without the availability flag is meaningless and must
	// not score; a fully empty window yields zero.
	b := scoring.Breakdown(&domain.ScoreInputs{MarginPct: 1.0})
	assert.Zero(t, b.MarginRisk)
	assert.Zero(t, scoring.CompositeScore(scoring.Breakdown(&domain.ScoreInputs{})))
}

func TestComputeScore(t *testing.T) {
	inputs := &fakeInputs{inputs: &domain.ScoreInputs{
		TotalNews:        50,
		NegativeNews:     30,
		ControversyCount: 2,
		OpenHighIssues:   1,
		MarginPct:        7.2,
		MarginAvailable:  true,
	}}
	history := &fakeHistory{}
	scorer := scoring.New(inputs, history, scoring.Options{})

	record, err := scorer.ComputeScore(context.Background(), "const-1")
	require.NoError(t, err)
	assert.Equal(t, 57, record.Score)
	assert.False(t, record.Degraded)
	assert.Equal(t, scoring.DefaultWindowDays, record.WindowDays)
	require.Len(t, history.appended, 1)
	assert.Same(t, record, history.appended[0])
}

func TestComputeScore_DegradesOnInputFailure(t *testing.T) {
	inputs := &fakeInputs{err: errors.New("relation does not exist")}
	history := &fakeHistory{}
	scorer := scoring.New(inputs, history, scoring.Options{})

	record, err := scorer.ComputeScore(context.Background(), "const-1")
	require.NoError(t, err)
	assert.Equal(t, scoring.DegradedScore, record.Score)
	assert.True(t, record.Degraded)
	require.Len(t, history.appended, 1, "degraded scores still enter history")
}

func TestComputeScore_Trend(t *testing.T) {
	testCases := []struct {
		name     string
		previous int
		trend    string
	}{
		{name: "declining past threshold", previous: 50, trend: domain.TrendDeclining},
		{name: "improving past threshold", previous: 65, trend: domain.TrendImproving},
		{name: "small rise is stable", previous: 56, trend: domain.TrendStable},
		{name: "small drop is stable", previous: 58, trend: domain.TrendStable},
		{name: "exactly at threshold is stable", previous: 55, trend: domain.TrendStable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			inputs := &fakeInputs{inputs: &domain.ScoreInputs{
				TotalNews:        50,
				NegativeNews:     30,
				ControversyCount: 2,
				OpenHighIssues:   1,
				MarginPct:        7.2,
				MarginAvailable:  true,
			}}
			history := &fakeHistory{latest: &domain.VulnerabilityScore{Score: tc.previous}}
			scorer := scoring.New(inputs, history, scoring.Options{})

			record, err := scorer.ComputeScore(context.Background(), "const-1")
			require.NoError(t, err)
			assert.Equal(t, 57, record.Score)
			assert.Equal(t, tc.previous, record.PreviousScore)
			assert.Equal(t, tc.trend, record.Trend)
		})
	}
}

func TestComputeScore_FirstRunIsStable(t *testing.T) {
	inputs := &fakeInputs{inputs: &domain.ScoreInputs{TotalNews: 4, NegativeNews: 4}}
	history := &fakeHistory{}
	scorer := scoring.New(inputs, history, scoring.Options{})

	record, err := scorer.ComputeScore(context.Background(), "const-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TrendStable, record.Trend)
	assert.Equal(t, record.Score, record.PreviousScore)
}
