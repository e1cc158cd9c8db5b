package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds configuration loaded from environment variables.
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir is the data directory path.
	// Env: DATA_DIR
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL.
	// Env: DB_URL
	DBURL string `envconfig:"DB_URL"`

	// DB sizes the PostgreSQL connection pool.
	// Env: DB_*
	DB PoolEnv `envconfig:"DB"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// CORSAllowedOrigins is a comma-separated list of allowed origins.
	// Env: CORS_ALLOWED_ORIGINS (default: *)
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// EmbeddingBackend selects the active embedding backend.
	// Env: EMBEDDING_BACKEND (default: openai)
	EmbeddingBackend string `envconfig:"EMBEDDING_BACKEND" default:"openai"`

	// OpenAI configures the OpenAI backend.
	// Env: OPENAI_*
	OpenAI EndpointEnv `envconfig:"OPENAI"`

	// Voyage configures the Voyage backend.
	// Env: VOYAGE_*
	Voyage EndpointEnv `envconfig:"VOYAGE"`

	// Ingest configures the ingestion pipeline.
	// Env: INGEST_*
	Ingest IngestEnv `envconfig:"INGEST"`

	// Search configures the search service.
	// Env: SEARCH_*
	Search SearchEnv `envconfig:"SEARCH"`

	// IndexLists is the ivfflat cluster count. 0 sizes it from the row count.
	// Env: INDEX_LISTS (default: 100)
	IndexLists int `envconfig:"INDEX_LISTS" default:"100"`

	// HTTPCacheDir enables the on-disk embedding response cache.
	// Env: HTTP_CACHE_DIR
	HTTPCacheDir string `envconfig:"HTTP_CACHE_DIR"`

	// QueryCache configures the Redis query-embedding cache.
	// Env: QUERY_CACHE_*
	QueryCache QueryCacheEnv `envconfig:"QUERY_CACHE"`
}

// EndpointEnv holds environment configuration for an embedding endpoint.
// Unset model, dimension, base URL, and batch size fall back to per-backend defaults.
type EndpointEnv struct {
	// Env: *_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Env: *_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Env: *_MODEL
	Model string `envconfig:"MODEL"`

	// Env: *_DIMENSION
	Dimension int `envconfig:"DIMENSION"`

	// Env: *_METRIC (default: cosine)
	Metric string `envconfig:"METRIC" default:"cosine"`

	// Timeout is the request timeout in seconds.
	// Env: *_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// Env: *_MAX_RETRIES (default: 5)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"5"`

	// InitialDelay is the first retry delay in seconds.
	// Env: *_INITIAL_DELAY (default: 2.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"2.0"`

	// Env: *_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`

	// Env: *_MAX_BATCH_SIZE
	MaxBatchSize int `envconfig:"MAX_BATCH_SIZE"`
}

// IngestEnv holds environment configuration for ingestion.
type IngestEnv struct {
	// Env: INGEST_BATCH_SIZE (default: 1)
	BatchSize int `envconfig:"BATCH_SIZE" default:"1"`

	// RequestDelay is the pause between embedding requests in seconds.
	// Env: INGEST_REQUEST_DELAY (default: 0.2)
	RequestDelay float64 `envconfig:"REQUEST_DELAY" default:"0.2"`

	// Env: INGEST_LONG_PAUSE_EVERY (default: 100)
	LongPauseEvery int `envconfig:"LONG_PAUSE_EVERY" default:"100"`

	// LongPause is in seconds.
	// Env: INGEST_LONG_PAUSE (default: 5)
	LongPause float64 `envconfig:"LONG_PAUSE" default:"5"`

	// Env: INGEST_REPORT_EVERY (default: 100)
	ReportEvery int `envconfig:"REPORT_EVERY" default:"100"`
}

// SearchEnv holds environment configuration for search.
type SearchEnv struct {
	// Env: SEARCH_LIMIT (default: 10)
	Limit int `envconfig:"LIMIT" default:"10"`

	// Env: SEARCH_PROBES (default: 10)
	Probes int `envconfig:"PROBES" default:"10"`

	// Timeout is the per-query deadline in seconds.
	// Env: SEARCH_TIMEOUT (default: 8)
	Timeout float64 `envconfig:"TIMEOUT" default:"8"`

	// Env: SEARCH_TIMEOUT_RETRIES (default: 1)
	TimeoutRetries int `envconfig:"TIMEOUT_RETRIES" default:"1"`
}

// PoolEnv holds environment configuration for the database pool.
type PoolEnv struct {
	// Env: DB_MAX_OPEN_CONNS (default: 10)
	MaxOpenConns int `envconfig:"MAX_OPEN_CONNS" default:"10"`

	// Env: DB_MAX_IDLE_CONNS (default: 5)
	MaxIdleConns int `envconfig:"MAX_IDLE_CONNS" default:"5"`

	// ConnMaxLifetime is in seconds.
	// Env: DB_CONN_MAX_LIFETIME (default: 1800)
	ConnMaxLifetime int `envconfig:"CONN_MAX_LIFETIME" default:"1800"`
}

// QueryCacheEnv holds environment configuration for the query cache.
type QueryCacheEnv struct {
	// Env: QUERY_CACHE_REDIS_URL
	RedisURL string `envconfig:"REDIS_URL"`

	// TTL is in seconds.
	// Env: QUERY_CACHE_TTL (default: 86400)
	TTL int `envconfig:"TTL" default:"86400"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// Normalize trims and lowercases enumerated values.
func (e EnvConfig) Normalize() EnvConfig {
	e.EmbeddingBackend = strings.ToLower(strings.TrimSpace(e.EmbeddingBackend))
	e.LogFormat = strings.ToLower(strings.TrimSpace(e.LogFormat))
	e.DBURL = strings.TrimSpace(e.DBURL)
	e.OpenAI.Metric = strings.ToLower(strings.TrimSpace(e.OpenAI.Metric))
	e.Voyage.Metric = strings.ToLower(strings.TrimSpace(e.Voyage.Metric))
	return e
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	if e.DataDir != "" {
		applyOption(&cfg, WithDataDir(e.DataDir))
	}
	if e.DBURL != "" {
		applyOption(&cfg, WithDBURL(e.DBURL))
	}

	pool := NewPoolConfig().
		WithMaxOpen(e.DB.MaxOpenConns).
		WithMaxIdle(e.DB.MaxIdleConns).
		WithMaxLifetime(time.Duration(e.DB.ConnMaxLifetime) * time.Second)
	applyOption(&cfg, WithDBPool(pool))

	applyOption(&cfg, WithHost(e.Host))
	applyOption(&cfg, WithPort(e.Port))
	applyOption(&cfg, WithLogLevel(e.LogLevel))
	applyOption(&cfg, WithLogFormat(parseLogFormat(e.LogFormat)))
	applyOption(&cfg, WithCORSAllowedOrigins(parseOrigins(e.CORSAllowedOrigins)))
	applyOption(&cfg, WithEmbeddingBackend(e.EmbeddingBackend))
	applyOption(&cfg, WithOpenAIEndpoint(e.OpenAI.ToEndpoint(NewOpenAIEndpoint())))
	applyOption(&cfg, WithVoyageEndpoint(e.Voyage.ToEndpoint(NewVoyageEndpoint())))

	ingest := NewIngestConfig().
		WithBatchSize(e.Ingest.BatchSize).
		WithRequestDelay(seconds(e.Ingest.RequestDelay)).
		WithLongPause(e.Ingest.LongPauseEvery, seconds(e.Ingest.LongPause)).
		WithReportEvery(e.Ingest.ReportEvery)
	applyOption(&cfg, WithIngestConfig(ingest))

	search := NewSearchConfig().
		WithLimit(e.Search.Limit).
		WithProbes(e.Search.Probes).
		WithTimeout(seconds(e.Search.Timeout)).
		WithTimeoutRetries(e.Search.TimeoutRetries)
	applyOption(&cfg, WithSearchConfig(search))

	applyOption(&cfg, WithIndexLists(e.IndexLists))
	applyOption(&cfg, WithHTTPCacheDir(e.HTTPCacheDir))

	queryCache := NewQueryCacheConfig().
		WithRedisURL(strings.TrimSpace(e.QueryCache.RedisURL)).
		WithTTL(time.Duration(e.QueryCache.TTL) * time.Second)
	applyOption(&cfg, WithQueryCacheConfig(queryCache))

	return cfg
}

// ToEndpoint overlays the environment values onto base.
func (e EndpointEnv) ToEndpoint(base Endpoint) Endpoint {
	var opts []EndpointOption
	if e.APIKey != "" {
		opts = append(opts, WithAPIKey(e.APIKey))
	}
	if e.BaseURL != "" {
		opts = append(opts, WithBaseURL(e.BaseURL))
	}
	if e.Model != "" {
		opts = append(opts, WithModel(e.Model))
	}
	if e.Dimension != 0 {
		opts = append(opts, WithDimension(e.Dimension))
	}
	if e.Metric != "" {
		opts = append(opts, WithMetric(e.Metric))
	}
	if e.MaxBatchSize != 0 {
		opts = append(opts, WithMaxBatchSize(e.MaxBatchSize))
	}
	opts = append(opts,
		WithTimeout(seconds(e.Timeout)),
		WithMaxRetries(e.MaxRetries),
		WithInitialDelay(seconds(e.InitialDelay)),
		WithBackoffFactor(e.BackoffFactor),
	)
	return base.With(opts...)
}

func applyOption(cfg *AppConfig, opt AppConfigOption) {
	opt(cfg)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func parseLogFormat(s string) LogFormat {
	switch s {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}

func parseOrigins(s string) []string {
	var origins []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
