package config

import "time"

// Default configuration values.
const (
	defaultServiceName      = "sentinel"
	defaultServiceVersion   = "1.0.0"
	defaultServicePort      = 8090
	defaultConcurrency      = 10
	defaultBatchSize        = 100
	defaultPollIntervalSec  = 300
	defaultDBHost           = "localhost"
	defaultDBPort           = 5432
	defaultDBUser           = "postgres"
	defaultDBName           = "sentinel"
	defaultDBSSLMode        = "disable"
	defaultDBMaxConns       = 25
	defaultDBMaxIdleConns   = 5
	defaultRedisAddr        = "localhost:6379"
	defaultESURL            = "http://localhost:9200"
	defaultESIndex          = "sentinel_content"
	defaultCacheTTLMin      = 5
	defaultDedupTTLHours    = 72
	defaultFetchTimeoutSec  = 15
	defaultFetchRetries     = 3
	defaultLogLevel         = "info"
	defaultSimilarity       = 0.5
	defaultTierUpgradeHits  = 3
	defaultMaxTopics        = 5
	defaultWindowDays       = 30
	defaultTrendThreshold   = 2
	defaultRescoreSpec      = "0 */6 * * *"
	defaultAITimeoutSec     = 20
	defaultAIMinConfidence  = 0.6
	defaultAIModel          = "claude-haiku-4-5"
)

// Config holds all configuration for the sentinel service.
type Config struct {
	Service        ServiceConfig        `yaml:"service"`
	Database       DatabaseConfig       `yaml:"database"`
	Redis          RedisConfig          `yaml:"redis"`
	Elasticsearch  ElasticsearchConfig  `yaml:"elasticsearch"`
	Logging        LoggingConfig        `yaml:"logging"`
	Fetch          FetchConfig          `yaml:"fetch"`
	Sources        []SourceConfig       `yaml:"sources"`
	Classification ClassificationConfig `yaml:"classification"`
	Issues         IssuesConfig         `yaml:"issues"`
	Scoring        ScoringConfig        `yaml:"scoring"`
}

// ServiceConfig holds service-level settings.
type ServiceConfig struct {
	Name         string        `yaml:"name"`
	Version      string        `yaml:"version"`
	Port         int           `env:"SENTINEL_PORT"        yaml:"port"`
	Debug        bool          `env:"APP_DEBUG"            yaml:"debug"`
	Concurrency  int           `env:"SENTINEL_CONCURRENCY" yaml:"concurrency"`
	BatchSize    int           `yaml:"batch_size"`
	PollInterval time.Duration `yaml:"poll_interval"`
	RescoreSpec  string        `yaml:"rescore_spec"` // cron expression
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	Host            string        `env:"POSTGRES_HOST"     yaml:"host"`
	Port            int           `env:"POSTGRES_PORT"     yaml:"port"`
	User            string        `env:"POSTGRES_USER"     yaml:"user"`
	Password        string        `env:"POSTGRES_PASSWORD" yaml:"password"`
	Database        string        `env:"POSTGRES_DB"       yaml:"database"`
	SSLMode         string        `env:"POSTGRES_SSLMODE"  yaml:"sslmode"`
	MaxConnections  int           `yaml:"max_connections"`
	MaxIdleConns    int           `yaml:"max_idle_connections"`
	ConnMaxLifetime time.Duration `yaml:"connection_max_lifetime"`
}

// RedisConfig holds Redis settings for cache, quota and dedup state.
type RedisConfig struct {
	Address  string `env:"REDIS_ADDRESS"  yaml:"address"`
	Password string `env:"REDIS_PASSWORD" yaml:"password"`
	DB       int    `env:"REDIS_DB"       yaml:"db"`
}

// ElasticsearchConfig holds the optional search-index settings.
type ElasticsearchConfig struct {
	Enabled  bool   `env:"ES_ENABLED" yaml:"enabled"`
	URL      string `env:"ES_URL"     yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Index    string `yaml:"index"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `env:"LOG_LEVEL" yaml:"level"`
}

// FetchConfig holds cross-source fetcher settings.
type FetchConfig struct {
	CacheTTL   time.Duration `yaml:"cache_ttl"`
	DedupTTL   time.Duration `yaml:"dedup_ttl"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	// DemoMode substitutes fixed placeholder content instead of live
	// calls. Explicit and loudly logged, never a silent fallback.
	DemoMode bool `env:"SENTINEL_DEMO_MODE" yaml:"demo_mode"`
}

// SourceConfig describes one external content source.
type SourceConfig struct {
	Key          string            `yaml:"key"`
	Kind         string            `yaml:"kind"` // "news_api", "social", "rss_bridge"
	Endpoint     string            `yaml:"endpoint"`
	APIKey       string            `yaml:"api_key"`
	DailyLimit   int               `yaml:"daily_limit"`
	MonthlyLimit int               `yaml:"monthly_limit"`
	// ClipToBudget clips oversized requests to the remaining budget
	// instead of rejecting them outright.
	ClipToBudget bool              `yaml:"clip_to_budget"`
	RPS          int               `yaml:"rps"`
	FieldMap     map[string]string `yaml:"field_map"` // canonical field -> source field
}

// ClassificationConfig holds classifier settings.
type ClassificationConfig struct {
	MaxTopics       int      `yaml:"max_topics"`
	TierUpgradeHits int      `yaml:"tier_upgrade_hits"`
	AI              AIConfig `yaml:"ai"`
}

// AIConfig holds the optional AI classifier strategy settings.
type AIConfig struct {
	Enabled       bool          `env:"SENTINEL_AI_ENABLED" yaml:"enabled"`
	APIKey        string        `env:"ANTHROPIC_API_KEY"   yaml:"api_key"`
	Model         string        `yaml:"model"`
	Timeout       time.Duration `yaml:"timeout"`
	MinConfidence float64       `yaml:"min_confidence"`
}

// IssuesConfig holds issue aggregation settings.
type IssuesConfig struct {
	// SimilarityThreshold is the title overlap above which a detected
	// issue merges into an existing one. Empirically untuned default.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// ScoringConfig holds vulnerability scoring settings.
type ScoringConfig struct {
	WindowDays     int `yaml:"window_days"`
	TrendThreshold int `yaml:"trend_threshold"`
}

// SetDefaults applies default values to all sections.
func (c *Config) SetDefaults() {
	setServiceDefaults(&c.Service)
	setDatabaseDefaults(&c.Database)
	setRedisDefaults(&c.Redis)
	setElasticsearchDefaults(&c.Elasticsearch)
	setLoggingDefaults(&c.Logging)
	setFetchDefaults(&c.Fetch)
	setClassificationDefaults(&c.Classification)
	setIssuesDefaults(&c.Issues)
	setScoringDefaults(&c.Scoring)
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
	if s.Concurrency == 0 {
		s.Concurrency = defaultConcurrency
	}
	if s.BatchSize == 0 {
		s.BatchSize = defaultBatchSize
	}
	if s.PollInterval == 0 {
		s.PollInterval = defaultPollIntervalSec * time.Second
	}
	if s.RescoreSpec == "" {
		s.RescoreSpec = defaultRescoreSpec
	}
}

func setDatabaseDefaults(d *DatabaseConfig) {
	if d.Host == "" {
		d.Host = defaultDBHost
	}
	if d.Port == 0 {
		d.Port = defaultDBPort
	}
	if d.User == "" {
		d.User = defaultDBUser
	}
	if d.Database == "" {
		d.Database = defaultDBName
	}
	if d.SSLMode == "" {
		d.SSLMode = defaultDBSSLMode
	}
	if d.MaxConnections == 0 {
		d.MaxConnections = defaultDBMaxConns
	}
	if d.MaxIdleConns == 0 {
		d.MaxIdleConns = defaultDBMaxIdleConns
	}
	if d.ConnMaxLifetime == 0 {
		d.ConnMaxLifetime = time.Hour
	}
}

func setRedisDefaults(r *RedisConfig) {
	if r.Address == "" {
		r.Address = defaultRedisAddr
	}
}

func setElasticsearchDefaults(e *ElasticsearchConfig) {
	if e.URL == "" {
		e.URL = defaultESURL
	}
	if e.Index == "" {
		e.Index = defaultESIndex
	}
}

func setLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
}

func setFetchDefaults(f *FetchConfig) {
	if f.CacheTTL == 0 {
		f.CacheTTL = defaultCacheTTLMin * time.Minute
	}
	if f.DedupTTL == 0 {
		f.DedupTTL = defaultDedupTTLHours * time.Hour
	}
	if f.Timeout == 0 {
		f.Timeout = defaultFetchTimeoutSec * time.Second
	}
	if f.MaxRetries == 0 {
		f.MaxRetries = defaultFetchRetries
	}
}

func setClassificationDefaults(c *ClassificationConfig) {
	if c.MaxTopics == 0 {
		c.MaxTopics = defaultMaxTopics
	}
	if c.TierUpgradeHits == 0 {
		c.TierUpgradeHits = defaultTierUpgradeHits
	}
	if c.AI.Model == "" {
		c.AI.Model = defaultAIModel
	}
	if c.AI.Timeout == 0 {
		c.AI.Timeout = defaultAITimeoutSec * time.Second
	}
	if c.AI.MinConfidence == 0 {
		c.AI.MinConfidence = defaultAIMinConfidence
	}
}

func setIssuesDefaults(i *IssuesConfig) {
	if i.SimilarityThreshold == 0 {
		i.SimilarityThreshold = defaultSimilarity
	}
}

func setScoringDefaults(s *ScoringConfig) {
	if s.WindowDays == 0 {
		s.WindowDays = defaultWindowDays
	}
	if s.TrendThreshold == 0 {
		s.TrendThreshold = defaultTrendThreshold
	}
}
