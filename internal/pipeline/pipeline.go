// Package pipeline wires fetch, classification, issue aggregation,
// attack-point generation and scoring into one run loop.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/voterpulse/sentinel/internal/attack"
	"github.com/voterpulse/sentinel/internal/classifier"
	"github.com/voterpulse/sentinel/internal/domain"
	"github.com/voterpulse/sentinel/internal/fetcher"
	"github.com/voterpulse/sentinel/internal/issues"
	"github.com/voterpulse/sentinel/internal/logger"
	"github.com/voterpulse/sentinel/internal/metrics"
	"github.com/voterpulse/sentinel/internal/normalizer"
	"github.com/voterpulse/sentinel/internal/scoring"
	"github.com/voterpulse/sentinel/internal/storage"
)

const (
	defaultConcurrency    = 10
	defaultMaxItems       = 50
	defaultReprocessBatch = 100
)

// ConstituencyStore is the read surface the pipeline needs.
type ConstituencyStore interface {
	GetByID(ctx context.Context, id string) (*domain.Constituency, error)
	ListIDs(ctx context.Context) ([]string, error)
}

// ClassificationStore persists classification annotations and exposes
// the backlog of items that never received one.
type ClassificationStore interface {
	AttachClassification(ctx context.Context, c *domain.Classification) error
	ListUnclassified(ctx context.Context, limit int) ([]*domain.ContentItem, error)
}

// Pipeline runs the full ingestion and analysis flow. Source fetches
// run in parallel; per-constituency mutations are serialized through a
// lock manager.
type Pipeline struct {
	fetcher     *fetcher.Fetcher
	deduper     *normalizer.Deduper
	chain       *classifier.Chain
	detector    *issues.Detector
	aggregator  *issues.Aggregator
	generator   *attack.Generator
	scorer      *scoring.Scorer
	content     ClassificationStore
	stores      ConstituencyStore
	indexer     *storage.Indexer
	metrics     *metrics.Metrics
	logger      logger.Logger
	locks       *constituencyLocks
	concurrency int
	maxItems    int
}

// Options configures a Pipeline.
type Options struct {
	Fetcher     *fetcher.Fetcher
	Deduper     *normalizer.Deduper
	Chain       *classifier.Chain
	Detector    *issues.Detector
	Aggregator  *issues.Aggregator
	Generator   *attack.Generator
	Scorer      *scoring.Scorer
	Content     ClassificationStore
	Stores      ConstituencyStore
	Indexer     *storage.Indexer
	Metrics     *metrics.Metrics
	Logger      logger.Logger
	Concurrency int
	MaxItems    int
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = defaultMaxItems
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &Pipeline{
		fetcher:     opts.Fetcher,
		deduper:     opts.Deduper,
		chain:       opts.Chain,
		detector:    opts.Detector,
		aggregator:  opts.Aggregator,
		generator:   opts.Generator,
		scorer:      opts.Scorer,
		content:     opts.Content,
		stores:      opts.Stores,
		indexer:     opts.Indexer,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		locks:       newConstituencyLocks(),
		concurrency: opts.Concurrency,
		maxItems:    opts.MaxItems,
	}
}

// RunAll processes every constituency. Constituency failures are
// logged and skipped so one bad unit never aborts a batch run.
func (p *Pipeline) RunAll(ctx context.Context) error {
	ids, err := p.stores.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("list constituencies: %w", err)
	}

	start := time.Now()
	failures := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := p.RunConstituency(ctx, id); err != nil {
			failures++
			p.logger.Error("pipeline run failed for constituency",
				logger.String("constituency_id", id),
				logger.Error(err))
		}
	}

	p.logger.Info("pipeline run complete",
		logger.Int("constituencies", len(ids)),
		logger.Int("failures", failures),
		logger.Duration("duration", time.Since(start)))
	return nil
}

// RunConstituency executes the full flow for one constituency: fetch
// from every source in parallel, classify concurrently, then apply
// issue and attack mutations under the constituency lock and recompute
// its score.
func (p *Pipeline) RunConstituency(ctx context.Context, constituencyID string) error {
	constituency, err := p.stores.GetByID(ctx, constituencyID)
	if err != nil {
		return fmt.Errorf("load constituency: %w", err)
	}

	items := p.fetchAll(ctx, constituency)
	if len(items) == 0 {
		p.logger.Debug("no new content for constituency",
			logger.String("constituency_id", constituencyID))
	}

	classified := p.classifyAll(ctx, items)

	unlock := p.locks.acquire(constituencyID)
	defer unlock()

	for _, cr := range classified {
		if err := p.applySignals(ctx, constituency, cr); err != nil {
			p.logger.Error("failed to apply item signals",
				logger.String("content_id", cr.item.ID),
				logger.Error(err))
		}
	}

	if _, err := p.scorer.ComputeScore(ctx, constituencyID); err != nil {
		return fmt.Errorf("compute score: %w", err)
	}
	return nil
}

// fetchAll queries every registered source for the constituency in
// parallel and returns the deduplicated union of new items.
func (p *Pipeline) fetchAll(ctx context.Context, constituency *domain.Constituency) []*domain.ContentItem {
	keys := p.fetcher.SourceKeys()

	var (
		mu  sync.Mutex
		all []*domain.ContentItem
		wg  sync.WaitGroup
	)

	for _, key := range keys {
		wg.Add(1)
		go func(sourceKey string) {
			defer wg.Done()

			req := fetcher.Request{
				Query:          buildQuery(constituency),
				ConstituencyID: constituency.ID,
				MaxItems:       p.maxItems,
			}
			result, err := p.fetcher.Fetch(ctx, sourceKey, req)
			if err != nil {
				p.logger.Error("source fetch failed",
					logger.String("source", sourceKey),
					logger.String("constituency_id", constituency.ID),
					logger.Error(err))
				return
			}
			fresh := p.dedupe(ctx, sourceKey, result)

			mu.Lock()
			all = append(all, fresh...)
			mu.Unlock()
		}(key)
	}
	wg.Wait()

	return all
}

// dedupe filters a fetch result down to unseen items. Cache and store
// fallbacks were already processed when first ingested, so only live
// results pass through the dedup gate.
func (p *Pipeline) dedupe(ctx context.Context, sourceKey string, result *domain.FetchResult) []*domain.ContentItem {
	if result.FromCache || result.FromStore {
		return nil
	}

	fresh := make([]*domain.ContentItem, 0, len(result.Items))
	for _, item := range result.Items {
		dup, err := p.deduper.CheckAndMark(ctx, item)
		if err != nil {
			p.logger.Warn("dedup check failed, keeping item",
				logger.String("content_id", item.ID),
				logger.Error(err))
		}
		if dup {
			if p.metrics != nil {
				p.metrics.ItemsDeduped.WithLabelValues(sourceKey).Inc()
			}
			continue
		}
		if p.metrics != nil {
			p.metrics.ItemsIngested.WithLabelValues(sourceKey).Inc()
		}
		fresh = append(fresh, item)
	}
	return fresh
}

// classifiedItem pairs an item with its classification for the
// serialized mutation phase.
type classifiedItem struct {
	item           *domain.ContentItem
	classification *domain.Classification
}

// classifyAll classifies items with a worker pool. The classifier is
// stateless, so this phase parallelizes freely.
func (p *Pipeline) classifyAll(ctx context.Context, items []*domain.ContentItem) []*classifiedItem {
	if len(items) == 0 {
		return nil
	}

	jobs := make(chan *domain.ContentItem, len(items))
	results := make(chan *classifiedItem, len(items))

	var wg sync.WaitGroup
	for i := 0; i < p.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				if ctx.Err() != nil {
					return
				}
				c, err := p.chain.Classify(ctx, item)
				if err != nil {
					p.logger.Error("classification failed",
						logger.String("content_id", item.ID),
						logger.Error(err))
					continue
				}
				results <- &classifiedItem{item: item, classification: c}
			}
		}()
	}

	for _, item := range items {
		jobs <- item
	}
	close(jobs)
	wg.Wait()
	close(results)

	classified := make([]*classifiedItem, 0, len(items))
	for cr := range results {
		classified = append(classified, cr)
	}
	return classified
}

// applySignals persists one item's classification and feeds it into
// issue aggregation and attack-point generation. Caller holds the
// constituency lock.
func (p *Pipeline) applySignals(ctx context.Context, constituency *domain.Constituency, cr *classifiedItem) error {
	if err := p.content.AttachClassification(ctx, cr.classification); err != nil {
		p.logger.Warn("failed to persist classification",
			logger.String("content_id", cr.item.ID),
			logger.Error(err))
	}

	p.indexer.IndexClassified(ctx, cr.item, cr.classification)

	for _, det := range p.detector.Detect(cr.item, cr.classification) {
		if _, _, err := p.aggregator.Upsert(ctx, constituency.ID, det); err != nil {
			return fmt.Errorf("upsert issue: %w", err)
		}
	}

	target := constituency.LeaderName
	if target == "" {
		target = constituency.Name
	}
	if _, err := p.generator.Generate(ctx, cr.item, cr.classification, constituency.ID, target); err != nil {
		return fmt.Errorf("generate attack point: %w", err)
	}
	return nil
}

// Reprocess drains the classification backlog: items persisted by an
// earlier run whose classification never landed, typically after a
// crash between ingest and annotation. Batches repeat until the
// backlog is empty or stops shrinking.
func (p *Pipeline) Reprocess(ctx context.Context, batchSize int) error {
	if batchSize <= 0 {
		batchSize = defaultReprocessBatch
	}

	attempted := make(map[string]bool)
	total := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		items, err := p.content.ListUnclassified(ctx, batchSize)
		if err != nil {
			return fmt.Errorf("list classification backlog: %w", err)
		}

		pending := make([]*domain.ContentItem, 0, len(items))
		for _, item := range items {
			if attempted[item.ID] {
				continue
			}
			attempted[item.ID] = true
			pending = append(pending, item)
		}
		if len(pending) == 0 {
			break
		}

		p.reprocessBatch(ctx, pending)
		total += len(pending)
	}

	p.logger.Info("reprocess complete", logger.Int("items", total))
	return nil
}

// reprocessBatch classifies one backlog batch and applies its signals
// grouped per constituency.
func (p *Pipeline) reprocessBatch(ctx context.Context, items []*domain.ContentItem) {
	classified := p.classifyAll(ctx, items)

	byConstituency := make(map[string][]*classifiedItem)
	for _, cr := range classified {
		byConstituency[cr.item.ConstituencyID] = append(byConstituency[cr.item.ConstituencyID], cr)
	}

	for constituencyID, batch := range byConstituency {
		p.applyBacklog(ctx, constituencyID, batch)
	}
}

// applyBacklog replays one constituency's backlog items through the
// normal signal path and recomputes its score.
func (p *Pipeline) applyBacklog(ctx context.Context, constituencyID string, batch []*classifiedItem) {
	constituency, err := p.stores.GetByID(ctx, constituencyID)
	if err != nil {
		// The rows are orphaned. Dropping the dedup marks lets a
		// future ingest own any fresh copy of the same stories.
		p.logger.Warn("skipping backlog for missing constituency",
			logger.String("constituency_id", constituencyID),
			logger.Int("items", len(batch)),
			logger.Error(err))
		for _, cr := range batch {
			if forgetErr := p.deduper.Forget(ctx, cr.item.ContentHash); forgetErr != nil {
				p.logger.Warn("failed to drop dedup mark",
					logger.String("content_id", cr.item.ID),
					logger.Error(forgetErr))
			}
		}
		return
	}

	unlock := p.locks.acquire(constituencyID)
	for _, cr := range batch {
		if err := p.applySignals(ctx, constituency, cr); err != nil {
			p.logger.Error("failed to apply backlog item signals",
				logger.String("content_id", cr.item.ID),
				logger.Error(err))
		}
	}
	unlock()

	if _, err := p.scorer.ComputeScore(ctx, constituencyID); err != nil {
		p.logger.Error("failed to recompute score after reprocess",
			logger.String("constituency_id", constituencyID),
			logger.Error(err))
	}
}

// buildQuery composes the source query for a constituency.
func buildQuery(c *domain.Constituency) string {
	if c.LeaderName != "" {
		return c.Name + " " + c.LeaderName
	}
	return c.Name
}
