package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voterpulse/sentinel/internal/domain"
)

// quotaKeyPrefix is the Redis key prefix for quota window counters.
const quotaKeyPrefix = "sentinel:quota:"

// QuotaTracker stores per-source, per-window call budgets as atomic
// Redis counters. The window start is part of the key, so crossing a
// window boundary lands on a fresh counter and the old one expires on
// its own.
type QuotaTracker struct {
	client *redis.Client
	now    func() time.Time
}

// TrackerOption adjusts a QuotaTracker.
type TrackerOption func(*QuotaTracker)

// WithClock overrides the time source used for window boundaries.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *QuotaTracker) {
		if now != nil {
			t.now = now
		}
	}
}

// NewQuotaTracker creates a quota tracker.
func NewQuotaTracker(client *redis.Client, opts ...TrackerOption) *QuotaTracker {
	t := &QuotaTracker{client: client, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// windowStart returns the start of the current window in UTC.
func windowStart(now time.Time, window domain.QuotaWindow) time.Time {
	now = now.UTC()
	switch window {
	case domain.WindowMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// windowTTL expires counters well past their window so stale windows
// self-clean.
func windowTTL(window domain.QuotaWindow) time.Duration {
	if window == domain.WindowMonthly {
		return 32 * 24 * time.Hour
	}
	return 48 * time.Hour
}

func quotaKey(scopeKey string, window domain.QuotaWindow, start time.Time) string {
	layout := "2006-01-02"
	if window == domain.WindowMonthly {
		layout = "2006-01"
	}
	return quotaKeyPrefix + scopeKey + ":" + string(window) + ":" + start.Format(layout)
}

// State loads the current quota state for a scope. A window that has
// rolled over reads from a key that does not exist yet, so usage
// starts at zero.
func (t *QuotaTracker) State(ctx context.Context, scopeKey string, window domain.QuotaWindow, limit int) (*domain.QuotaState, error) {
	start := windowStart(t.now(), window)

	used, err := t.client.Get(ctx, quotaKey(scopeKey, window, start)).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get quota state: %w", err)
	}
	if used < 0 {
		used = 0
	}

	return &domain.QuotaState{
		ScopeKey:    scopeKey,
		Window:      window,
		WindowStart: start,
		Used:        used,
		Limit:       limit,
	}, nil
}

// Reserve atomically claims up to n units of the window budget and
// returns how many were granted. The single INCRBY arbitrates
// concurrent callers, so overlapping fetches cannot collectively
// overdraw the limit. Returns domain.ErrQuotaExhausted when nothing
// remains.
func (t *QuotaTracker) Reserve(ctx context.Context, scopeKey string, window domain.QuotaWindow, limit, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	key := quotaKey(scopeKey, window, windowStart(t.now(), window))

	pipe := t.client.TxPipeline()
	incr := pipe.IncrBy(ctx, key, int64(n))
	pipe.Expire(ctx, key, windowTTL(window))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("reserve quota: %w", err)
	}

	total := int(incr.Val())
	if total <= limit {
		return n, nil
	}

	// Hand the overshoot back so the counter tracks real consumption.
	refund := total - limit
	if refund > n {
		refund = n
	}
	if err := t.Release(ctx, scopeKey, window, refund); err != nil {
		return 0, err
	}

	granted := n - refund
	if granted == 0 {
		return 0, domain.ErrQuotaExhausted
	}
	return granted, nil
}

// Release refunds units the live call did not end up using.
func (t *QuotaTracker) Release(ctx context.Context, scopeKey string, window domain.QuotaWindow, n int) error {
	if n <= 0 {
		return nil
	}
	key := quotaKey(scopeKey, window, windowStart(t.now(), window))
	if err := t.client.DecrBy(ctx, key, int64(n)).Err(); err != nil {
		return fmt.Errorf("release quota: %w", err)
	}
	return nil
}
