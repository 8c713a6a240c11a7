package fetcher_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voterpulse/sentinel/internal/domain"
	"github.com/voterpulse/sentinel/internal/fetcher"
)

func newTracker(t *testing.T, opts ...fetcher.TrackerOption) *fetcher.QuotaTracker {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return fetcher.NewQuotaTracker(client, opts...)
}

func TestQuotaTracker_ReserveGrantsUpToLimit(t *testing.T) {
	tracker := newTracker(t)
	ctx := context.Background()

	granted, err := tracker.Reserve(ctx, "newsdata", domain.WindowDaily, 10, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, granted)

	granted, err = tracker.Reserve(ctx, "newsdata", domain.WindowDaily, 10, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, granted)

	// Only two units remain; a larger claim is clipped to them.
	granted, err = tracker.Reserve(ctx, "newsdata", domain.WindowDaily, 10, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, granted)

	_, err = tracker.Reserve(ctx, "newsdata", domain.WindowDaily, 10, 1)
	assert.ErrorIs(t, err, domain.ErrQuotaExhausted)

	state, err := tracker.State(ctx, "newsdata", domain.WindowDaily, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, state.Used)
	assert.True(t, state.Exhausted())
}

func TestQuotaTracker_ReleaseRefunds(t *testing.T) {
	tracker := newTracker(t)
	ctx := context.Background()

	_, err := tracker.Reserve(ctx, "newsdata", domain.WindowDaily, 10, 5)
	require.NoError(t, err)
	require.NoError(t, tracker.Release(ctx, "newsdata", domain.WindowDaily, 3))

	state, err := tracker.State(ctx, "newsdata", domain.WindowDaily, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, state.Used)
}

func TestQuotaTracker_ConcurrentReservesNeverOvergrant(t *testing.T) {
	tracker := newTracker(t)
	ctx := context.Background()

	var (
		mu      sync.Mutex
		granted int
		wg      sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := tracker.Reserve(ctx, "newsdata", domain.WindowDaily, 3, 1)
			if err != nil {
				return
			}
			mu.Lock()
			granted += n
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, granted, "concurrent claims must total exactly the limit")

	state, err := tracker.State(ctx, "newsdata", domain.WindowDaily, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, state.Used)
}

func TestQuotaTracker_DailyWindowRollsOverAtMidnight(t *testing.T) {
	current := time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC)
	tracker := newTracker(t, fetcher.WithClock(func() time.Time { return current }))
	ctx := context.Background()

	_, err := tracker.Reserve(ctx, "newsdata", domain.WindowDaily, 10, 10)
	require.NoError(t, err)

	state, err := tracker.State(ctx, "newsdata", domain.WindowDaily, 10)
	require.NoError(t, err)
	require.True(t, state.Exhausted())

	current = current.Add(3 * time.Hour) // crosses midnight UTC

	state, err = tracker.State(ctx, "newsdata", domain.WindowDaily, 10)
	require.NoError(t, err)
	assert.Zero(t, state.Used, "a new day starts with a fresh budget")
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), state.WindowStart)

	granted, err := tracker.Reserve(ctx, "newsdata", domain.WindowDaily, 10, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, granted)
}

func TestQuotaTracker_MonthlyWindowRollsOver(t *testing.T) {
	current := time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC)
	tracker := newTracker(t, fetcher.WithClock(func() time.Time { return current }))
	ctx := context.Background()

	_, err := tracker.Reserve(ctx, "newsdata", domain.WindowMonthly, 2, 2)
	require.NoError(t, err)

	current = current.Add(2 * time.Hour) // April begins

	state, err := tracker.State(ctx, "newsdata", domain.WindowMonthly, 2)
	require.NoError(t, err)
	assert.Zero(t, state.Used)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), state.WindowStart)
}
