package classifier

import (
	"context"

	"github.com/voterpulse/sentinel/internal/domain"
	"github.com/voterpulse/sentinel/internal/logger"
	"github.com/voterpulse/sentinel/internal/metrics"
)

// Chain tries the primary strategy and falls back to the lexical one on
// any failure. The lexical strategy cannot fail, so Classify always
// returns a result.
type Chain struct {
	primary Strategy
	lexical *Lexical
	metrics *metrics.Metrics
	logger  logger.Logger
}

// NewChain builds a classification chain. primary may be nil, in which
// case the lexical strategy runs directly.
func NewChain(primary Strategy, lexical *Lexical, m *metrics.Metrics, log logger.Logger) *Chain {
	if log == nil {
		log = logger.NewNop()
	}
	return &Chain{
		primary: primary,
		lexical: lexical,
		metrics: m,
		logger:  log,
	}
}

// Lexical exposes the fallback strategy for callers that need its
// auxiliary signals (protest and anger counts).
func (c *Chain) Lexical() *Lexical { return c.lexical }

// Classify runs the primary strategy when configured, falling back to
// lexical on any error. The fallback is unconditional; a classification
// is always produced.
func (c *Chain) Classify(ctx context.Context, item *domain.ContentItem) (*domain.Classification, error) {
	if c.primary != nil {
		result, err := c.primary.Classify(ctx, item)
		if err == nil {
			c.count(c.primary.Name())
			return result, nil
		}
		c.logger.Warn("primary classifier failed, using lexical fallback",
			logger.String("strategy", c.primary.Name()),
			logger.String("content_id", item.ID),
			logger.Error(err))
	}

	result, err := c.lexical.Classify(ctx, item)
	if err != nil {
		return nil, err
	}
	c.count(domain.MethodLexical)
	return result, nil
}

func (c *Chain) count(method string) {
	if c.metrics != nil {
		c.metrics.ClassifiedTotal.WithLabelValues(method).Inc()
	}
}
