package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/voterpulse/sentinel/internal/logger"
	"github.com/voterpulse/sentinel/internal/scoring"
)

// Rescorer recomputes every constituency's vulnerability score on a
// cron schedule, independent of ingestion runs. Scores drift as items
// age out of the window even when no new content arrives.
type Rescorer struct {
	scorer *scoring.Scorer
	stores ConstituencyStore
	logger logger.Logger
	cron   *cron.Cron
}

// NewRescorer creates a Rescorer.
func NewRescorer(scorer *scoring.Scorer, stores ConstituencyStore, log logger.Logger) *Rescorer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Rescorer{
		scorer: scorer,
		stores: stores,
		logger: log,
		cron:   cron.New(),
	}
}

// Start schedules rescoring with the given cron spec and begins the
// scheduler.
func (r *Rescorer) Start(spec string) error {
	_, err := r.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := r.RescoreAll(ctx); err != nil {
			r.logger.Error("scheduled rescore failed", logger.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid rescore schedule %q: %w", spec, err)
	}

	r.cron.Start()
	r.logger.Info("rescore schedule started", logger.String("spec", spec))
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (r *Rescorer) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

// RescoreAll recomputes every constituency. Per-constituency failures
// are logged and skipped; the scorer's own degraded fallback already
// absorbs aggregate read errors.
func (r *Rescorer) RescoreAll(ctx context.Context) error {
	ids, err := r.stores.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("list constituencies: %w", err)
	}

	start := time.Now()
	failures := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := r.scorer.ComputeScore(ctx, id); err != nil {
			failures++
			r.logger.Error("rescore failed for constituency",
				logger.String("constituency_id", id),
				logger.Error(err))
		}
	}

	r.logger.Info("rescore complete",
		logger.Int("constituencies", len(ids)),
		logger.Int("failures", failures),
		logger.Duration("duration", time.Since(start)))
	return nil
}
