// Package fetcher wraps external content sources behind call budgets,
// a shared cache, and an ordered fallback chain.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/voterpulse/sentinel/internal/config"
	"github.com/voterpulse/sentinel/internal/domain"
	"github.com/voterpulse/sentinel/internal/logger"
	"github.com/voterpulse/sentinel/internal/metrics"
	"github.com/voterpulse/sentinel/internal/retry"
)

// ErrUnknownSource is returned for a source key with no registration.
var ErrUnknownSource = errors.New("unknown source")

// defaultItemBudget bounds requests that carry no explicit MaxItems.
const defaultItemBudget = 50

// Normalizer converts one source payload into a canonical ContentItem.
type Normalizer interface {
	Normalize(payload map[string]any, sourceKey string) (*domain.ContentItem, error)
}

// ContentStore is the persisted fallback and write-through target.
type ContentStore interface {
	SaveItems(ctx context.Context, items []*domain.ContentItem) error
	RecentBySource(ctx context.Context, sourceKey, constituencyID string, limit int) ([]*domain.ContentItem, error)
}

// registration pairs a source implementation with its config and rate
// limiter.
type registration struct {
	source  Source
	cfg     config.SourceConfig
	limiter *rate.Limiter
}

// Fetcher coordinates quota, cache, retry and fallback for all sources.
type Fetcher struct {
	sources    map[string]*registration
	quota      *QuotaTracker
	cache      *Cache
	store      ContentStore
	normalizer Normalizer
	metrics    *metrics.Metrics
	logger     logger.Logger

	fetchTimeout time.Duration
	maxRetries   int
	demoMode     bool
}

// Options configures a Fetcher.
type Options struct {
	Quota        *QuotaTracker
	Cache        *Cache
	Store        ContentStore
	Normalizer   Normalizer
	Metrics      *metrics.Metrics
	Logger       logger.Logger
	FetchTimeout time.Duration
	MaxRetries   int
	DemoMode     bool
}

// New creates a Fetcher. Register sources with Register before use.
func New(opts Options) *Fetcher {
	if opts.FetchTimeout == 0 {
		opts.FetchTimeout = 15 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}

	f := &Fetcher{
		sources:      make(map[string]*registration),
		quota:        opts.Quota,
		cache:        opts.Cache,
		store:        opts.Store,
		normalizer:   opts.Normalizer,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
		fetchTimeout: opts.FetchTimeout,
		maxRetries:   opts.MaxRetries,
		demoMode:     opts.DemoMode,
	}

	if f.demoMode {
		f.logger.Warn("DEMO MODE ENABLED: all fetches return placeholder content, no live source calls will be made")
	}

	return f
}

// Register adds a source with its configured rate limit.
func (f *Fetcher) Register(source Source, cfg config.SourceConfig) {
	rps := cfg.RPS
	if rps <= 0 {
		rps = 1
	}
	f.sources[cfg.Key] = &registration{
		source:  source,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// Fetch resolves a request through: fresh cache, live call (quota and
// rate limited, retried), stale cache, persisted store, typed empty
// result. It never fabricates data outside the explicit demo mode.
func (f *Fetcher) Fetch(ctx context.Context, sourceKey string, req Request) (*domain.FetchResult, error) {
	reg, ok := f.sources[sourceKey]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, sourceKey)
	}

	start := time.Now()
	defer func() {
		if f.metrics != nil {
			f.metrics.FetchDuration.WithLabelValues(sourceKey).Observe(time.Since(start).Seconds())
		}
	}()

	if f.demoMode {
		f.logger.Warn("serving demo placeholder content",
			logger.String("source", sourceKey),
			logger.String("query", req.Query))
		f.countOutcome(sourceKey, "demo")
		return &domain.FetchResult{Items: demoItems(sourceKey, req), Demo: true}, nil
	}

	// Cache lookup precedes any network attempt.
	if items, err := f.cache.Get(ctx, sourceKey, req); err == nil {
		f.countOutcome(sourceKey, "cache")
		return &domain.FetchResult{Items: items, FromCache: true}, nil
	} else if !errors.Is(err, ErrCacheMiss) {
		f.logger.Warn("cache read failed, continuing to live fetch",
			logger.String("source", sourceKey),
			logger.Error(err))
	}

	res, quotaErr := f.reserveQuota(ctx, reg, &req)
	if quotaErr != nil {
		// A quota backend failure is an infrastructure problem, not an
		// exhausted budget; only the latter flags the result.
		exhausted := errors.Is(quotaErr, domain.ErrQuotaExhausted)
		if exhausted {
			f.logger.Info("quota exhausted, invoking fallback chain",
				logger.String("source", sourceKey),
				logger.String("query", req.Query))
		} else {
			f.logger.Error("quota reservation failed, invoking fallback chain",
				logger.String("source", sourceKey),
				logger.Error(quotaErr))
		}
		return f.fallback(ctx, reg, req, exhausted)
	}

	items, err := f.fetchLive(ctx, reg, req)
	if err != nil {
		f.releaseReservation(ctx, reg.cfg, res)
		f.logger.Warn("live fetch failed, invoking fallback chain",
			logger.String("source", sourceKey),
			logger.Error(err))
		return f.fallback(ctx, reg, req, false)
	}

	f.afterLiveFetch(ctx, reg, req, items, res)
	f.countOutcome(sourceKey, "live")
	return &domain.FetchResult{Items: items}, nil
}

// reservation records the budget claimed up front for one live call.
type reservation struct {
	daily   int
	monthly int
}

// reserveQuota claims daily and monthly budget before the live call.
// Reservations go through atomic counters, so concurrent fetches for
// the same source cannot collectively overdraw a window; whatever the
// call does not use is released afterwards. It may clip req.MaxItems
// to the granted daily budget when the source allows partial fetches.
func (f *Fetcher) reserveQuota(ctx context.Context, reg *registration, req *Request) (*reservation, error) {
	cfg := reg.cfg
	res := &reservation{}

	if cfg.MonthlyLimit > 0 {
		if _, err := f.quota.Reserve(ctx, cfg.Key, domain.WindowMonthly, cfg.MonthlyLimit, 1); err != nil {
			if errors.Is(err, domain.ErrQuotaExhausted) {
				f.countQuotaExhausted(cfg.Key, domain.WindowMonthly)
			}
			return nil, fmt.Errorf("monthly quota: %w", err)
		}
		res.monthly = 1
	}

	if cfg.DailyLimit <= 0 {
		return res, nil
	}

	budget := req.MaxItems
	if budget <= 0 {
		budget = defaultItemBudget
	}

	granted, err := f.quota.Reserve(ctx, cfg.Key, domain.WindowDaily, cfg.DailyLimit, budget)
	if err != nil {
		f.releaseReservation(ctx, cfg, res)
		if errors.Is(err, domain.ErrQuotaExhausted) {
			f.countQuotaExhausted(cfg.Key, domain.WindowDaily)
		}
		return nil, fmt.Errorf("daily quota: %w", err)
	}
	res.daily = granted

	if granted < budget {
		if !cfg.ClipToBudget {
			f.releaseReservation(ctx, cfg, res)
			f.countQuotaExhausted(cfg.Key, domain.WindowDaily)
			return nil, fmt.Errorf("daily quota: %w", domain.ErrQuotaExhausted)
		}
		f.logger.Info("clipping fetch to remaining daily budget",
			logger.String("source", cfg.Key),
			logger.Int("requested", budget),
			logger.Int("granted", granted))
	}
	req.MaxItems = granted

	return res, nil
}

// releaseReservation hands unused budget back after a failed or
// rejected live call.
func (f *Fetcher) releaseReservation(ctx context.Context, cfg config.SourceConfig, res *reservation) {
	if res.daily > 0 {
		if err := f.quota.Release(ctx, cfg.Key, domain.WindowDaily, res.daily); err != nil {
			f.logger.Error("failed to release daily quota reservation",
				logger.String("source", cfg.Key),
				logger.Error(err))
		}
	}
	if res.monthly > 0 {
		if err := f.quota.Release(ctx, cfg.Key, domain.WindowMonthly, res.monthly); err != nil {
			f.logger.Error("failed to release monthly quota reservation",
				logger.String("source", cfg.Key),
				logger.Error(err))
		}
	}
}

// fetchLive performs the network call with timeout and bounded retries.
func (f *Fetcher) fetchLive(ctx context.Context, reg *registration, req Request) ([]*domain.ContentItem, error) {
	if err := reg.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.fetchTimeout)
	defer cancel()

	var payloads []map[string]any
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = f.maxRetries

	err := retry.Do(fetchCtx, retryCfg, func() error {
		var fetchErr error
		payloads, fetchErr = reg.source.Fetch(fetchCtx, req)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	items := make([]*domain.ContentItem, 0, len(payloads))
	for _, payload := range payloads {
		item, normErr := f.normalizer.Normalize(payload, reg.cfg.Key)
		if normErr != nil {
			if errors.Is(normErr, domain.ErrItemDropped) {
				if f.metrics != nil {
					f.metrics.ItemsDropped.WithLabelValues(reg.cfg.Key).Inc()
				}
				continue
			}
			return nil, fmt.Errorf("normalize payload: %w", normErr)
		}
		// Constituency context comes from the request, not the payload.
		item.ConstituencyID = req.ConstituencyID
		items = append(items, item)
	}

	return items, nil
}

// afterLiveFetch reconciles the quota reservation against what the
// call actually returned and populates cache and store. A failed fetch
// released its whole reservation, so cancelled fetches never net
// consume budget.
func (f *Fetcher) afterLiveFetch(ctx context.Context, reg *registration, req Request, items []*domain.ContentItem, res *reservation) {
	cfg := reg.cfg

	if unused := res.daily - len(items); unused > 0 {
		if err := f.quota.Release(ctx, cfg.Key, domain.WindowDaily, unused); err != nil {
			f.logger.Error("failed to reconcile daily quota reservation",
				logger.String("source", cfg.Key),
				logger.Error(err))
		}
	}

	if err := f.cache.Put(ctx, cfg.Key, req, items); err != nil {
		f.logger.Warn("failed to cache fetch result",
			logger.String("source", cfg.Key),
			logger.Error(err))
	}
	if f.store != nil {
		if err := f.store.SaveItems(ctx, items); err != nil {
			f.logger.Error("failed to persist fetched items",
				logger.String("source", cfg.Key),
				logger.Int("count", len(items)),
				logger.Error(err))
		}
	}
}

// fallback walks the degradation chain: stale cache, persisted store,
// typed empty result. It never substitutes synthetic data.
func (f *Fetcher) fallback(ctx context.Context, reg *registration, req Request, quotaExhausted bool) (*domain.FetchResult, error) {
	if items, err := f.cache.GetStale(ctx, reg.cfg.Key, req); err == nil && len(items) > 0 {
		f.countOutcome(reg.cfg.Key, "stale_cache")
		return &domain.FetchResult{Items: items, FromCache: true, QuotaExhausted: quotaExhausted}, nil
	}

	if f.store != nil {
		limit := req.MaxItems
		if limit <= 0 {
			limit = defaultItemBudget
		}
		items, err := f.store.RecentBySource(ctx, reg.cfg.Key, req.ConstituencyID, limit)
		if err != nil {
			f.logger.Error("store fallback failed",
				logger.String("source", reg.cfg.Key),
				logger.Error(err))
		} else if len(items) > 0 {
			f.countOutcome(reg.cfg.Key, "store")
			return &domain.FetchResult{Items: items, FromStore: true, QuotaExhausted: quotaExhausted}, nil
		}
	}

	f.countOutcome(reg.cfg.Key, "empty")
	return &domain.FetchResult{Items: nil, QuotaExhausted: quotaExhausted}, nil
}

func (f *Fetcher) countOutcome(sourceKey, outcome string) {
	if f.metrics != nil {
		f.metrics.FetchTotal.WithLabelValues(sourceKey, outcome).Inc()
	}
}

func (f *Fetcher) countQuotaExhausted(sourceKey string, window domain.QuotaWindow) {
	if f.metrics != nil {
		f.metrics.QuotaExhaustedTotal.WithLabelValues(sourceKey, string(window)).Inc()
	}
}

// SourceKeys returns the registered source keys.
func (f *Fetcher) SourceKeys() []string {
	keys := make([]string, 0, len(f.sources))
	for k := range f.sources {
		keys = append(keys, k)
	}
	return keys
}

// QuotaStatus reports every registered source's current window usage,
// ordered by source key then window.
func (f *Fetcher) QuotaStatus(ctx context.Context) ([]*domain.QuotaState, error) {
	states := []*domain.QuotaState{}
	for key, reg := range f.sources {
		cfg := reg.cfg
		if cfg.DailyLimit > 0 {
			state, err := f.quota.State(ctx, key, domain.WindowDaily, cfg.DailyLimit)
			if err != nil {
				return nil, fmt.Errorf("quota status for %s: %w", key, err)
			}
			states = append(states, state)
		}
		if cfg.MonthlyLimit > 0 {
			state, err := f.quota.State(ctx, key, domain.WindowMonthly, cfg.MonthlyLimit)
			if err != nil {
				return nil, fmt.Errorf("quota status for %s: %w", key, err)
			}
			states = append(states, state)
		}
	}

	sort.Slice(states, func(i, j int) bool {
		if states[i].ScopeKey != states[j].ScopeKey {
			return states[i].ScopeKey < states[j].ScopeKey
		}
		return states[i].Window < states[j].Window
	})
	return states, nil
}
