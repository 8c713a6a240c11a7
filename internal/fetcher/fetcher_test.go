package fetcher_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voterpulse/sentinel/internal/config"
	"github.com/voterpulse/sentinel/internal/domain"
	"github.com/voterpulse/sentinel/internal/fetcher"
	"github.com/voterpulse/sentinel/internal/normalizer"
)

type fakeSource struct {
	mu       sync.Mutex
	key      string
	calls    int
	lastReq  fetcher.Request
	payloads []map[string]any
	err      error
}

func (s *fakeSource) Key() string { return s.key }

func (s *fakeSource) Fetch(_ context.Context, req fetcher.Request) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.payloads, nil
}

type fakeStore struct {
	mu     sync.Mutex
	saved  [][]*domain.ContentItem
	recent []*domain.ContentItem
}

func (s *fakeStore) SaveItems(_ context.Context, items []*domain.ContentItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, items)
	return nil
}

func (s *fakeStore) RecentBySource(context.Context, string, string, int) ([]*domain.ContentItem, error) {
	return s.recent, nil
}

type testHarness struct {
	fetcher *fetcher.Fetcher
	quota   *fetcher.QuotaTracker
	source  *fakeSource
	store   *fakeStore
	redis   *miniredis.Miniredis
}

func newHarness(t *testing.T, cfg config.SourceConfig, freshTTL time.Duration, demo bool) *testHarness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	src := &fakeSource{
		key: cfg.Key,
		payloads: []map[string]any{
			{"title": "Potholes anger residents", "text": "Ward 5 roads remain broken."},
			{"title": "Water tankers delayed", "text": "Supply disrupted for a week."},
		},
	}
	store := &fakeStore{}

	f := fetcher.New(fetcher.Options{
		Quota:      fetcher.NewQuotaTracker(client),
		Cache:      fetcher.NewCache(client, freshTTL),
		Store:      store,
		Normalizer: normalizer.New(nil),
		DemoMode:   demo,
		MaxRetries: 1,
	})
	f.Register(src, cfg)

	return &testHarness{
		fetcher: f,
		quota:   fetcher.NewQuotaTracker(client),
		source:  src,
		store:   store,
		redis:   mr,
	}
}

func newsCfg() config.SourceConfig {
	return config.SourceConfig{Key: "newsdata", DailyLimit: 100, RPS: 10}
}

func TestFetch_UnknownSource(t *testing.T) {
	h := newHarness(t, newsCfg(), time.Hour, false)

	_, err := h.fetcher.Fetch(context.Background(), "nope", fetcher.Request{Query: "rampur"})
	assert.ErrorIs(t, err, fetcher.ErrUnknownSource)
}

func TestFetch_LiveCall(t *testing.T) {
	h := newHarness(t, newsCfg(), time.Hour, false)
	req := fetcher.Request{Query: "rampur", ConstituencyID: "const-1", MaxItems: 10}

	result, err := h.fetcher.Fetch(context.Background(), "newsdata", req)
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.False(t, result.QuotaExhausted)
	require.Len(t, result.Items, 2)
	assert.Equal(t, 1, h.source.calls)

	for _, item := range result.Items {
		assert.Equal(t, "const-1", item.ConstituencyID)
		assert.Equal(t, "newsdata", item.SourceSystem)
		assert.NotEmpty(t, item.ContentHash)
	}

	require.Len(t, h.store.saved, 1, "live results are written through to the store")
}

func TestFetch_FreshCacheShortCircuitsLiveCall(t *testing.T) {
	h := newHarness(t, newsCfg(), time.Hour, false)
	req := fetcher.Request{Query: "rampur", ConstituencyID: "const-1", MaxItems: 10}
	ctx := context.Background()

	_, err := h.fetcher.Fetch(ctx, "newsdata", req)
	require.NoError(t, err)

	result, err := h.fetcher.Fetch(ctx, "newsdata", req)
	require.NoError(t, err)
	assert.True(t, result.FromCache)
	assert.Len(t, result.Items, 2)
	assert.Equal(t, 1, h.source.calls, "cached request must not hit the source")
}

func TestFetch_DailyQuotaExhaustedSkipsLiveCall(t *testing.T) {
	cfg := newsCfg()
	cfg.DailyLimit = 2
	h := newHarness(t, cfg, time.Hour, false)
	req := fetcher.Request{Query: "rampur", ConstituencyID: "const-1", MaxItems: 5}

	// Without permission to clip, a request over budget is rejected
	// outright and resolved through the fallback chain.
	result, err := h.fetcher.Fetch(context.Background(), "newsdata", req)
	require.NoError(t, err)
	assert.True(t, result.QuotaExhausted)
	assert.Empty(t, result.Items)
	assert.Zero(t, h.source.calls)
}

func TestFetch_ClipsRequestToRemainingBudget(t *testing.T) {
	cfg := newsCfg()
	cfg.DailyLimit = 2
	cfg.ClipToBudget = true
	h := newHarness(t, cfg, time.Hour, false)
	req := fetcher.Request{Query: "rampur", ConstituencyID: "const-1", MaxItems: 5}

	result, err := h.fetcher.Fetch(context.Background(), "newsdata", req)
	require.NoError(t, err)
	assert.False(t, result.QuotaExhausted)
	assert.Equal(t, 2, h.source.lastReq.MaxItems)
}

func TestFetch_QuotaConsumedOnlyOnSuccess(t *testing.T) {
	cfg := newsCfg()
	cfg.DailyLimit = 10
	h := newHarness(t, cfg, time.Hour, false)
	h.source.err = errors.New("boom")
	ctx := context.Background()

	_, err := h.fetcher.Fetch(ctx, "newsdata", fetcher.Request{Query: "rampur", MaxItems: 5})
	require.NoError(t, err, "fetch failures resolve through fallback, not error")

	state, err := h.quota.State(ctx, "newsdata", domain.WindowDaily, cfg.DailyLimit)
	require.NoError(t, err)
	assert.Zero(t, state.Used, "failed live calls must not consume quota")

	h.source.err = nil
	_, err = h.fetcher.Fetch(ctx, "newsdata", fetcher.Request{Query: "rampur", MaxItems: 5})
	require.NoError(t, err)

	state, err = h.quota.State(ctx, "newsdata", domain.WindowDaily, cfg.DailyLimit)
	require.NoError(t, err)
	assert.Equal(t, 2, state.Used, "daily window counts fetched items")
}

func TestFetch_MonthlyWindowCountsCalls(t *testing.T) {
	cfg := newsCfg()
	cfg.DailyLimit = 0
	cfg.MonthlyLimit = 1
	h := newHarness(t, cfg, time.Hour, false)
	h.store.recent = []*domain.ContentItem{{ID: "old-1", Title: "Archived report"}}
	ctx := context.Background()

	_, err := h.fetcher.Fetch(ctx, "newsdata", fetcher.Request{Query: "rampur", MaxItems: 5})
	require.NoError(t, err)
	require.Equal(t, 1, h.source.calls)

	// A different query misses the cache; the exhausted monthly window
	// sends it to the persisted store instead of the network.
	result, err := h.fetcher.Fetch(ctx, "newsdata", fetcher.Request{Query: "bilaspur", MaxItems: 5})
	require.NoError(t, err)
	assert.True(t, result.QuotaExhausted)
	assert.True(t, result.FromStore)
	require.Len(t, result.Items, 1)
	assert.Equal(t, 1, h.source.calls, "exhausted quota must block live calls")
}

func TestFetch_ConcurrentRunsRespectMonthlyBudget(t *testing.T) {
	cfg := newsCfg()
	cfg.DailyLimit = 0
	cfg.MonthlyLimit = 2
	h := newHarness(t, cfg, time.Hour, false)
	ctx := context.Background()

	// Overlapping pipeline runs race the same source. The atomic
	// reservation must let exactly two calls through the budget.
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			req := fetcher.Request{Query: fmt.Sprintf("query-%d", n), MaxItems: 5}
			_, err := h.fetcher.Fetch(ctx, "newsdata", req)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 2, h.source.calls, "live calls past the monthly budget")

	state, err := h.quota.State(ctx, "newsdata", domain.WindowMonthly, cfg.MonthlyLimit)
	require.NoError(t, err)
	assert.Equal(t, 2, state.Used)
}

func TestFetch_QuotaBackendFailureIsNotExhaustion(t *testing.T) {
	h := newHarness(t, newsCfg(), time.Hour, false)
	h.store.recent = []*domain.ContentItem{{ID: "old-1", Title: "Archived report"}}
	h.redis.SetError("connection lost")

	result, err := h.fetcher.Fetch(context.Background(), "newsdata", fetcher.Request{Query: "rampur", MaxItems: 5})
	require.NoError(t, err)
	assert.False(t, result.QuotaExhausted, "an unreadable quota backend is not an exhausted budget")
	assert.True(t, result.FromStore)
	assert.Zero(t, h.source.calls)
}

func TestQuotaStatus_ReportsPerWindowUsage(t *testing.T) {
	cfg := config.SourceConfig{Key: "newsdata", DailyLimit: 100, MonthlyLimit: 30, RPS: 10}
	h := newHarness(t, cfg, time.Hour, false)

	_, err := h.fetcher.Fetch(context.Background(), "newsdata", fetcher.Request{Query: "rampur", MaxItems: 10})
	require.NoError(t, err)

	states, err := h.fetcher.QuotaStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, states, 2)

	daily, monthly := states[0], states[1]
	assert.Equal(t, domain.WindowDaily, daily.Window)
	assert.Equal(t, 2, daily.Used, "daily usage tracks items returned")
	assert.Equal(t, 98, daily.Remaining())
	assert.Equal(t, domain.WindowMonthly, monthly.Window)
	assert.Equal(t, 1, monthly.Used, "monthly usage tracks calls made")
	assert.False(t, monthly.Exhausted())
}

func TestFetch_StaleCacheFallback(t *testing.T) {
	// A zero freshness window makes every cached entry stale
	// immediately, so the second fetch exercises the fallback path.
	h := newHarness(t, newsCfg(), 0, false)
	req := fetcher.Request{Query: "rampur", MaxItems: 5}
	ctx := context.Background()

	_, err := h.fetcher.Fetch(ctx, "newsdata", req)
	require.NoError(t, err)

	h.source.err = errors.New("boom")
	result, err := h.fetcher.Fetch(ctx, "newsdata", req)
	require.NoError(t, err)
	assert.True(t, result.FromCache)
	assert.False(t, result.QuotaExhausted)
	assert.Len(t, result.Items, 2)
}

func TestFetch_EmptyResultWhenNothingAvailable(t *testing.T) {
	h := newHarness(t, newsCfg(), time.Hour, false)
	h.source.err = errors.New("boom")

	result, err := h.fetcher.Fetch(context.Background(), "newsdata", fetcher.Request{Query: "rampur"})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.False(t, result.QuotaExhausted)
}

func TestFetch_DemoMode(t *testing.T) {
	h := newHarness(t, newsCfg(), time.Hour, true)

	result, err := h.fetcher.Fetch(context.Background(), "newsdata", fetcher.Request{
		Query:          "rampur",
		ConstituencyID: "const-1",
		MaxItems:       10,
	})
	require.NoError(t, err)
	assert.True(t, result.Demo)
	require.NotEmpty(t, result.Items)
	assert.Zero(t, h.source.calls, "demo mode never touches live sources")
	for _, item := range result.Items {
		assert.True(t, strings.Contains(item.Title, "[DEMO]"), "demo items must be visibly marked")
	}
}
