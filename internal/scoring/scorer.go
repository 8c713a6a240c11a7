// Package scoring computes the composite vulnerability score per
// constituency from windowed news, controversy, grievance and margin
// signals.
package scoring

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/voterpulse/sentinel/internal/domain"
	"github.com/voterpulse/sentinel/internal/logger"
	"github.com/voterpulse/sentinel/internal/metrics"
)

// Component caps and weights.
const (
	newsImpactCap        = 30.0
	controversyImpactCap = 30.0
	controversyWeight    = 10.0
	grievanceImpactCap   = 20.0
	grievanceWeight      = 4.0

	marginRiskTight    = 20.0 // margin < 5%
	marginRiskNarrow   = 15.0 // margin < 10%
	marginRiskModerate = 10.0 // margin < 15%
	marginRiskSafe     = 5.0

	// DegradedScore substitutes when aggregates cannot be read; a
	// neutral midpoint keeps the constituency listed without skewing
	// rankings either way.
	DegradedScore = 50

	// DefaultWindowDays is the aggregation window.
	DefaultWindowDays = 30

	// DefaultTrendThreshold is the score delta below which movement
	// counts as stable.
	DefaultTrendThreshold = 2
)

// InputReader gathers the window aggregates for one constituency.
type InputReader interface {
	ScoreInputs(ctx context.Context, constituencyID string, windowDays int) (*domain.ScoreInputs, error)
}

// HistoryWriter persists score records. Append inserts the new record
// and updates the constituency's denormalized current score in the same
// transaction; Latest returns the most recent record or
// domain.ErrNotFound.
type HistoryWriter interface {
	Latest(ctx context.Context, constituencyID string) (*domain.VulnerabilityScore, error)
	Append(ctx context.Context, record *domain.VulnerabilityScore) error
}

// Scorer computes and persists vulnerability scores.
type Scorer struct {
	inputs         InputReader
	history        HistoryWriter
	windowDays     int
	trendThreshold int
	metrics        *metrics.Metrics
	logger         logger.Logger
	now            func() time.Time
}

// Options configures a Scorer. Zero values fall back to defaults.
type Options struct {
	WindowDays     int
	TrendThreshold int
	Metrics        *metrics.Metrics
	Logger         logger.Logger
}

// New creates a Scorer.
func New(inputs InputReader, history HistoryWriter, opts Options) *Scorer {
	if opts.WindowDays <= 0 {
		opts.WindowDays = DefaultWindowDays
	}
	if opts.TrendThreshold <= 0 {
		opts.TrendThreshold = DefaultTrendThreshold
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &Scorer{
		inputs:         inputs,
		history:        history,
		windowDays:     opts.WindowDays,
		trendThreshold: opts.TrendThreshold,
		metrics:        opts.Metrics,
		logger:         opts.Logger,
		now:            time.Now,
	}
}

// ComputeScore aggregates the window, derives the composite score,
// appends a history record and returns it. Aggregate read failures
// degrade to a flagged neutral score instead of erroring, so a broken
// query never drops a constituency from listings.
func (s *Scorer) ComputeScore(ctx context.Context, constituencyID string) (*domain.VulnerabilityScore, error) {
	record := &domain.VulnerabilityScore{
		ID:             uuid.NewString(),
		ConstituencyID: constituencyID,
		WindowDays:     s.windowDays,
		ComputedAt:     s.now().UTC(),
	}

	inputs, err := s.inputs.ScoreInputs(ctx, constituencyID, s.windowDays)
	if err != nil {
		s.logger.Error("score inputs unavailable, recording degraded score",
			logger.String("constituency_id", constituencyID),
			logger.Error(err))
		record.Score = DegradedScore
		record.Degraded = true
		s.countComputed("degraded")
	} else {
		record.Breakdown = Breakdown(inputs)
		record.Score = CompositeScore(record.Breakdown)
		s.countComputed("ok")
	}

	s.applyTrend(ctx, record)

	if err := s.history.Append(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("computed vulnerability score",
		logger.String("constituency_id", constituencyID),
		logger.Int("score", record.Score),
		logger.String("trend", record.Trend),
		logger.Bool("degraded", record.Degraded))

	return record, nil
}

// Breakdown derives the four capped components from window aggregates.
func Breakdown(in *domain.ScoreInputs) domain.ScoreBreakdown {
	var news float64
	if in.TotalNews > 0 {
		news = math.Min(newsImpactCap, float64(in.NegativeNews)/float64(in.TotalNews)*newsImpactCap)
	}

	controversy := math.Min(controversyImpactCap, float64(in.ControversyCount)*controversyWeight)
	grievance := math.Min(grievanceImpactCap, float64(in.OpenHighIssues)*grievanceWeight)

	// Constituencies with no margin data get no risk points; a guessed
	// floor would rank them above genuinely quiet seats.
	var margin float64
	if in.MarginAvailable {
		margin = marginRiskSafe
		switch {
		case in.MarginPct < 5:
			margin = marginRiskTight
		case in.MarginPct < 10:
			margin = marginRiskNarrow
		case in.MarginPct < 15:
			margin = marginRiskModerate
		}
	}

	return domain.ScoreBreakdown{
		NewsImpact:        news,
		ControversyImpact: controversy,
		GrievanceImpact:   grievance,
		MarginRisk:        margin,
	}
}

// CompositeScore sums the components, clamped to [0, 100] and rounded.
func CompositeScore(b domain.ScoreBreakdown) int {
	sum := b.NewsImpact + b.ControversyImpact + b.GrievanceImpact + b.MarginRisk
	if sum < 0 {
		sum = 0
	}
	if sum > 100 {
		sum = 100
	}
	return int(math.Round(sum))
}

// applyTrend fills PreviousScore and Trend from the latest stored
// record. A first computation is stable against its own score.
func (s *Scorer) applyTrend(ctx context.Context, record *domain.VulnerabilityScore) {
	prev, err := s.history.Latest(ctx, record.ConstituencyID)
	if err != nil {
		record.PreviousScore = record.Score
		record.Trend = domain.TrendStable
		return
	}

	record.PreviousScore = prev.Score
	delta := record.Score - prev.Score
	switch {
	case delta > s.trendThreshold:
		record.Trend = domain.TrendDeclining
	case delta < -s.trendThreshold:
		record.Trend = domain.TrendImproving
	default:
		record.Trend = domain.TrendStable
	}
}

func (s *Scorer) countComputed(status string) {
	if s.metrics != nil {
		s.metrics.ScoresComputedTotal.WithLabelValues(status).Inc()
	}
}
