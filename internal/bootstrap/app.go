// Package bootstrap assembles the application components from config.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/voterpulse/sentinel/internal/api"
	"github.com/voterpulse/sentinel/internal/attack"
	"github.com/voterpulse/sentinel/internal/classifier"
	"github.com/voterpulse/sentinel/internal/config"
	"github.com/voterpulse/sentinel/internal/database"
	"github.com/voterpulse/sentinel/internal/fetcher"
	"github.com/voterpulse/sentinel/internal/httpclient"
	"github.com/voterpulse/sentinel/internal/issues"
	"github.com/voterpulse/sentinel/internal/logger"
	"github.com/voterpulse/sentinel/internal/metrics"
	"github.com/voterpulse/sentinel/internal/normalizer"
	"github.com/voterpulse/sentinel/internal/pipeline"
	"github.com/voterpulse/sentinel/internal/scoring"
	"github.com/voterpulse/sentinel/internal/storage"
)

// App holds every wired component plus the resources to close on
// shutdown.
type App struct {
	Config   *config.Config
	Logger   logger.Logger
	Registry *prometheus.Registry

	DB    *sqlx.DB
	Redis *redis.Client

	Fetcher        *fetcher.Fetcher
	Chain          *classifier.Chain
	Pipeline       *pipeline.Pipeline
	Scorer         *scoring.Scorer
	Rescorer       *pipeline.Rescorer
	Handlers       *api.Handlers
	Constituencies *database.ConstituencyRepository
}

// New builds the full application graph.
func New(cfg *config.Config, log logger.Logger) (*App, error) {
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database setup: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	contentRepo := database.NewContentRepository(db)
	issueRepo := database.NewIssueRepository(db)
	attackRepo := database.NewAttackPointRepository(db)
	scoreRepo := database.NewScoreRepository(db)
	constituencyRepo := database.NewConstituencyRepository(db)

	indexer, err := storage.NewIndexer(cfg.Elasticsearch, log)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch setup: %w", err)
	}

	schemas := make(map[string]normalizer.SourceSchema, len(cfg.Sources))
	for _, src := range cfg.Sources {
		schemas[src.Key] = normalizer.SourceSchema{
			SourceName: src.Key,
			FieldMap:   src.FieldMap,
		}
	}
	norm := normalizer.New(schemas)
	deduper := normalizer.NewDeduper(redisClient, cfg.Fetch.DedupTTL)

	fetch := fetcher.New(fetcher.Options{
		Quota:        fetcher.NewQuotaTracker(redisClient),
		Cache:        fetcher.NewCache(redisClient, cfg.Fetch.CacheTTL),
		Store:        contentRepo,
		Normalizer:   norm,
		Metrics:      m,
		Logger:       log,
		FetchTimeout: cfg.Fetch.Timeout,
		MaxRetries:   cfg.Fetch.MaxRetries,
		DemoMode:     cfg.Fetch.DemoMode,
	})
	httpClient := httpclient.NewDefault()
	for _, src := range cfg.Sources {
		fetch.Register(fetcher.NewHTTPSource(src, httpClient), src)
	}

	lexical := classifier.NewLexical(nil,
		classifier.WithMaxTopics(cfg.Classification.MaxTopics),
		classifier.WithTierUpgradeHits(cfg.Classification.TierUpgradeHits))

	var primary classifier.Strategy
	if cfg.Classification.AI.Enabled && cfg.Classification.AI.APIKey != "" {
		primary = classifier.NewAI(classifier.AIConfig{
			APIKey:        cfg.Classification.AI.APIKey,
			Model:         cfg.Classification.AI.Model,
			Timeout:       cfg.Classification.AI.Timeout,
			MinConfidence: cfg.Classification.AI.MinConfidence,
		})
		log.Info("ai classifier enabled", logger.String("model", cfg.Classification.AI.Model))
	}
	chain := classifier.NewChain(primary, lexical, m, log)

	detector := issues.NewDetector(lexical)
	aggregator := issues.NewAggregator(issueRepo, cfg.Issues.SimilarityThreshold, m, log)
	generator := attack.NewGenerator(attackRepo, m, log)

	scorer := scoring.New(
		database.NewScoreInputReader(contentRepo, issueRepo, constituencyRepo),
		scoreRepo,
		scoring.Options{
			WindowDays:     cfg.Scoring.WindowDays,
			TrendThreshold: cfg.Scoring.TrendThreshold,
			Metrics:        m,
			Logger:         log,
		})

	pipe := pipeline.New(pipeline.Options{
		Fetcher:     fetch,
		Deduper:     deduper,
		Chain:       chain,
		Detector:    detector,
		Aggregator:  aggregator,
		Generator:   generator,
		Scorer:      scorer,
		Content:     contentRepo,
		Stores:      constituencyRepo,
		Indexer:     indexer,
		Metrics:     m,
		Logger:      log,
		Concurrency: cfg.Service.Concurrency,
		MaxItems:    cfg.Service.BatchSize,
	})

	handlers := api.NewHandlers(constituencyRepo, issueRepo, attackRepo, scoreRepo, chain, pipe, fetch, log)

	return &App{
		Config:         cfg,
		Logger:         log,
		Registry:       registry,
		DB:             db,
		Redis:          redisClient,
		Fetcher:        fetch,
		Chain:          chain,
		Pipeline:       pipe,
		Scorer:         scorer,
		Rescorer:       pipeline.NewRescorer(scorer, constituencyRepo, log),
		Handlers:       handlers,
		Constituencies: constituencyRepo,
	}, nil
}

// Close releases database and redis resources.
func (a *App) Close() {
	if a.DB != nil {
		_ = a.DB.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
}
