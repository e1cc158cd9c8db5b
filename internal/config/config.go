// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost             = "0.0.0.0"
	DefaultPort             = 8080
	DefaultLogLevel         = "INFO"
	DefaultEmbeddingBackend = "openai"
	DefaultMetric           = "cosine"

	DefaultEndpointTimeout       = 60 * time.Second
	DefaultEndpointMaxRetries    = 5
	DefaultEndpointInitialDelay  = 2 * time.Second
	DefaultEndpointBackoffFactor = 2.0

	DefaultOpenAIModel     = "text-embedding-3-small"
	DefaultOpenAIDimension = 1536
	DefaultOpenAIBatchSize = 2048
	DefaultVoyageBaseURL   = "https://api.voyageai.com/v1"
	DefaultVoyageModel     = "voyage-2"
	DefaultVoyageDimension = 1024
	DefaultVoyageBatchSize = 128

	DefaultIngestBatchSize      = 1
	DefaultIngestRequestDelay   = 200 * time.Millisecond
	DefaultIngestLongPauseEvery = 100
	DefaultIngestLongPause      = 5 * time.Second
	DefaultIngestReportEvery    = 100

	DefaultSearchLimit          = 10
	DefaultSearchProbes         = 10
	DefaultSearchTimeout        = 8 * time.Second
	DefaultSearchTimeoutRetries = 1
	MaxSearchLimit              = 100

	DefaultIndexLists    = 100
	DefaultQueryCacheTTL = 24 * time.Hour

	DefaultDBMaxOpenConns    = 10
	DefaultDBMaxIdleConns    = 5
	DefaultDBConnMaxLifetime = 30 * time.Minute
)

// Backend names.
const (
	BackendOpenAI = "openai"
	BackendVoyage = "voyage"
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Endpoint configures one embedding backend.
type Endpoint struct {
	name          string
	baseURL       string
	model         string
	apiKey        string
	dimension     int
	metric        string
	timeout       time.Duration
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
	maxBatchSize  int
}

// NewOpenAIEndpoint returns the OpenAI endpoint with defaults.
func NewOpenAIEndpoint() Endpoint {
	return newEndpoint(BackendOpenAI, "", DefaultOpenAIModel, DefaultOpenAIDimension, DefaultOpenAIBatchSize)
}

// NewVoyageEndpoint returns the Voyage endpoint with defaults.
func NewVoyageEndpoint() Endpoint {
	return newEndpoint(BackendVoyage, DefaultVoyageBaseURL, DefaultVoyageModel, DefaultVoyageDimension, DefaultVoyageBatchSize)
}

func newEndpoint(name, baseURL, model string, dimension, batchSize int) Endpoint {
	return Endpoint{
		name:          name,
		baseURL:       baseURL,
		model:         model,
		dimension:     dimension,
		metric:        DefaultMetric,
		timeout:       DefaultEndpointTimeout,
		maxRetries:    DefaultEndpointMaxRetries,
		initialDelay:  DefaultEndpointInitialDelay,
		backoffFactor: DefaultEndpointBackoffFactor,
		maxBatchSize:  batchSize,
	}
}

// Name returns the backend name.
func (e Endpoint) Name() string { return e.name }

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// Dimension returns the vector width.
func (e Endpoint) Dimension() int { return e.dimension }

// Metric returns the distance metric name.
func (e Endpoint) Metric() string { return e.metric }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// MaxBatchSize returns the maximum inputs per request.
func (e Endpoint) MaxBatchSize() int { return e.maxBatchSize }

// EndpointOption is a functional option for Endpoint.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EndpointOption {
	return func(e *Endpoint) { e.baseURL = url }
}

// WithModel sets the model.
func WithModel(model string) EndpointOption {
	return func(e *Endpoint) { e.model = model }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption {
	return func(e *Endpoint) { e.apiKey = key }
}

// WithDimension sets the vector width.
func WithDimension(n int) EndpointOption {
	return func(e *Endpoint) { e.dimension = n }
}

// WithMetric sets the distance metric.
func WithMetric(m string) EndpointOption {
	return func(e *Endpoint) { e.metric = m }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.timeout = d }
}

// WithMaxRetries sets the maximum retries.
func WithMaxRetries(n int) EndpointOption {
	return func(e *Endpoint) { e.maxRetries = n }
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.initialDelay = d }
}

// WithBackoffFactor sets the backoff multiplier.
func WithBackoffFactor(f float64) EndpointOption {
	return func(e *Endpoint) { e.backoffFactor = f }
}

// WithMaxBatchSize sets the maximum inputs per request.
func WithMaxBatchSize(n int) EndpointOption {
	return func(e *Endpoint) { e.maxBatchSize = n }
}

// With returns a copy of e with opts applied.
func (e Endpoint) With(opts ...EndpointOption) Endpoint {
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// IngestConfig configures the ingestion pipeline.
type IngestConfig struct {
	batchSize      int
	requestDelay   time.Duration
	longPauseEvery int
	longPause      time.Duration
	reportEvery    int
}

// NewIngestConfig creates an IngestConfig with defaults.
func NewIngestConfig() IngestConfig {
	return IngestConfig{
		batchSize:      DefaultIngestBatchSize,
		requestDelay:   DefaultIngestRequestDelay,
		longPauseEvery: DefaultIngestLongPauseEvery,
		longPause:      DefaultIngestLongPause,
		reportEvery:    DefaultIngestReportEvery,
	}
}

// BatchSize returns rows per embedding request. 1 is single-row mode.
func (c IngestConfig) BatchSize() int { return c.batchSize }

// RequestDelay returns the pause between embedding requests.
func (c IngestConfig) RequestDelay() time.Duration { return c.requestDelay }

// LongPauseEvery returns how many rows pass between long pauses.
func (c IngestConfig) LongPauseEvery() int { return c.longPauseEvery }

// LongPause returns the long pause duration.
func (c IngestConfig) LongPause() time.Duration { return c.longPause }

// ReportEvery returns how many rows pass between progress logs.
func (c IngestConfig) ReportEvery() int { return c.reportEvery }

// WithBatchSize returns a new config with the batch size.
func (c IngestConfig) WithBatchSize(n int) IngestConfig {
	c.batchSize = n
	return c
}

// WithRequestDelay returns a new config with the request delay.
func (c IngestConfig) WithRequestDelay(d time.Duration) IngestConfig {
	c.requestDelay = d
	return c
}

// WithLongPause returns a new config with the long pause cadence.
func (c IngestConfig) WithLongPause(every int, d time.Duration) IngestConfig {
	c.longPauseEvery = every
	c.longPause = d
	return c
}

// WithReportEvery returns a new config with the report cadence.
func (c IngestConfig) WithReportEvery(n int) IngestConfig {
	c.reportEvery = n
	return c
}

// SearchConfig configures the search service.
type SearchConfig struct {
	limit          int
	probes         int
	timeout        time.Duration
	timeoutRetries int
}

// NewSearchConfig creates a SearchConfig with defaults.
func NewSearchConfig() SearchConfig {
	return SearchConfig{
		limit:          DefaultSearchLimit,
		probes:         DefaultSearchProbes,
		timeout:        DefaultSearchTimeout,
		timeoutRetries: DefaultSearchTimeoutRetries,
	}
}

// Limit returns the default result count.
func (c SearchConfig) Limit() int { return c.limit }

// Probes returns the ivfflat probe count. 0 sizes it from the row count.
func (c SearchConfig) Probes() int { return c.probes }

// Timeout returns the per-query deadline.
func (c SearchConfig) Timeout() time.Duration { return c.timeout }

// TimeoutRetries returns how many times a timed-out query is retried.
func (c SearchConfig) TimeoutRetries() int { return c.timeoutRetries }

// WithLimit returns a new config with the default limit.
func (c SearchConfig) WithLimit(n int) SearchConfig {
	c.limit = n
	return c
}

// WithProbes returns a new config with the probe count.
func (c SearchConfig) WithProbes(n int) SearchConfig {
	c.probes = n
	return c
}

// WithTimeout returns a new config with the query timeout.
func (c SearchConfig) WithTimeout(d time.Duration) SearchConfig {
	c.timeout = d
	return c
}

// WithTimeoutRetries returns a new config with the retry count.
func (c SearchConfig) WithTimeoutRetries(n int) SearchConfig {
	c.timeoutRetries = n
	return c
}

// PoolConfig sizes the PostgreSQL connection pool. SQLite ignores it.
type PoolConfig struct {
	maxOpen     int
	maxIdle     int
	maxLifetime time.Duration
}

// NewPoolConfig creates a PoolConfig with defaults.
func NewPoolConfig() PoolConfig {
	return PoolConfig{
		maxOpen:     DefaultDBMaxOpenConns,
		maxIdle:     DefaultDBMaxIdleConns,
		maxLifetime: DefaultDBConnMaxLifetime,
	}
}

// MaxOpen returns the maximum number of open connections.
func (c PoolConfig) MaxOpen() int { return c.maxOpen }

// MaxIdle returns the maximum number of idle connections.
func (c PoolConfig) MaxIdle() int { return c.maxIdle }

// MaxLifetime returns how long a connection may be reused.
func (c PoolConfig) MaxLifetime() time.Duration { return c.maxLifetime }

// WithMaxOpen returns a new config with the open connection limit.
func (c PoolConfig) WithMaxOpen(n int) PoolConfig {
	c.maxOpen = n
	return c
}

// WithMaxIdle returns a new config with the idle connection limit.
func (c PoolConfig) WithMaxIdle(n int) PoolConfig {
	c.maxIdle = n
	return c
}

// WithMaxLifetime returns a new config with the connection lifetime.
func (c PoolConfig) WithMaxLifetime(d time.Duration) PoolConfig {
	c.maxLifetime = d
	return c
}

// QueryCacheConfig configures the Redis query-embedding cache.
type QueryCacheConfig struct {
	redisURL string
	ttl      time.Duration
}

// NewQueryCacheConfig creates a disabled QueryCacheConfig.
func NewQueryCacheConfig() QueryCacheConfig {
	return QueryCacheConfig{ttl: DefaultQueryCacheTTL}
}

// RedisURL returns the Redis URL.
func (c QueryCacheConfig) RedisURL() string { return c.redisURL }

// TTL returns the cache entry lifetime.
func (c QueryCacheConfig) TTL() time.Duration { return c.ttl }

// Enabled reports whether a Redis URL is set.
func (c QueryCacheConfig) Enabled() bool { return c.redisURL != "" }

// WithRedisURL returns a new config with the Redis URL.
func (c QueryCacheConfig) WithRedisURL(url string) QueryCacheConfig {
	c.redisURL = url
	return c
}

// WithTTL returns a new config with the TTL.
func (c QueryCacheConfig) WithTTL(d time.Duration) QueryCacheConfig {
	c.ttl = d
	return c
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host             string
	port             int
	dataDir          string
	dbURL            string
	dbPool           PoolConfig
	logLevel         string
	logFormat        LogFormat
	corsOrigins      []string
	embeddingBackend string
	openAI           Endpoint
	voyage           Endpoint
	ingest           IngestConfig
	search           SearchConfig
	indexLists       int
	httpCacheDir     string
	queryCache       QueryCacheConfig
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".colorfinder"
	}
	return filepath.Join(home, ".colorfinder")
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	dataDir := DefaultDataDir()
	return AppConfig{
		host:             DefaultHost,
		port:             DefaultPort,
		dataDir:          dataDir,
		dbURL:            defaultDBURL(dataDir),
		dbPool:           NewPoolConfig(),
		logLevel:         DefaultLogLevel,
		logFormat:        LogFormatPretty,
		corsOrigins:      []string{"*"},
		embeddingBackend: DefaultEmbeddingBackend,
		openAI:           NewOpenAIEndpoint(),
		voyage:           NewVoyageEndpoint(),
		ingest:           NewIngestConfig(),
		search:           NewSearchConfig(),
		indexLists:       DefaultIndexLists,
		queryCache:       NewQueryCacheConfig(),
	}
}

func defaultDBURL(dataDir string) string {
	return "sqlite:///" + filepath.Join(dataDir, "colors.db")
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// DBPool returns the database connection pool settings.
func (c AppConfig) DBPool() PoolConfig { return c.dbPool }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// CORSAllowedOrigins returns the allowed CORS origins.
func (c AppConfig) CORSAllowedOrigins() []string {
	origins := make([]string, len(c.corsOrigins))
	copy(origins, c.corsOrigins)
	return origins
}

// EmbeddingBackend returns the active backend name.
func (c AppConfig) EmbeddingBackend() string { return c.embeddingBackend }

// OpenAI returns the OpenAI endpoint.
func (c AppConfig) OpenAI() Endpoint { return c.openAI }

// Voyage returns the Voyage endpoint.
func (c AppConfig) Voyage() Endpoint { return c.voyage }

// Endpoints returns every configured endpoint, active one first.
func (c AppConfig) Endpoints() []Endpoint {
	if c.embeddingBackend == BackendVoyage {
		return []Endpoint{c.voyage, c.openAI}
	}
	return []Endpoint{c.openAI, c.voyage}
}

// ActiveEndpoint returns the endpoint of the active backend.
func (c AppConfig) ActiveEndpoint() Endpoint {
	if c.embeddingBackend == BackendVoyage {
		return c.voyage
	}
	return c.openAI
}

// Ingest returns the ingestion config.
func (c AppConfig) Ingest() IngestConfig { return c.ingest }

// Search returns the search config.
func (c AppConfig) Search() SearchConfig { return c.search }

// IndexLists returns the ivfflat cluster count. 0 sizes it from the row count.
func (c AppConfig) IndexLists() int { return c.indexLists }

// HTTPCacheDir returns the HTTP response cache directory, empty when disabled.
func (c AppConfig) HTTPCacheDir() string { return c.httpCacheDir }

// QueryCache returns the query cache config.
func (c AppConfig) QueryCache() QueryCacheConfig { return c.queryCache }

// EnsureDataDir creates the data directory if it doesn't exist.
func (c AppConfig) EnsureDataDir() error {
	return os.MkdirAll(c.dataDir, 0o755)
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// Apply returns a copy of c with opts applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		// Keep the default DB URL inside the data dir.
		if c.dbURL == "" || c.dbURL == defaultDBURL(c.dataDir) {
			c.dbURL = defaultDBURL(dir)
		}
		c.dataDir = dir
	}
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithDBPool sets the database connection pool settings.
func WithDBPool(p PoolConfig) AppConfigOption {
	return func(c *AppConfig) { c.dbPool = p }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithCORSAllowedOrigins sets the allowed CORS origins.
func WithCORSAllowedOrigins(origins []string) AppConfigOption {
	return func(c *AppConfig) {
		c.corsOrigins = make([]string, len(origins))
		copy(c.corsOrigins, origins)
	}
}

// WithEmbeddingBackend selects the active backend.
func WithEmbeddingBackend(name string) AppConfigOption {
	return func(c *AppConfig) { c.embeddingBackend = strings.ToLower(strings.TrimSpace(name)) }
}

// WithOpenAIEndpoint sets the OpenAI endpoint.
func WithOpenAIEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.openAI = e }
}

// WithVoyageEndpoint sets the Voyage endpoint.
func WithVoyageEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.voyage = e }
}

// WithIngestConfig sets the ingestion config.
func WithIngestConfig(i IngestConfig) AppConfigOption {
	return func(c *AppConfig) { c.ingest = i }
}

// WithSearchConfig sets the search config.
func WithSearchConfig(s SearchConfig) AppConfigOption {
	return func(c *AppConfig) { c.search = s }
}

// WithIndexLists sets the ivfflat cluster count.
func WithIndexLists(n int) AppConfigOption {
	return func(c *AppConfig) { c.indexLists = n }
}

// WithHTTPCacheDir sets the HTTP cache directory.
func WithHTTPCacheDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.httpCacheDir = dir }
}

// WithQueryCacheConfig sets the query cache config.
func WithQueryCacheConfig(q QueryCacheConfig) AppConfigOption {
	return func(c *AppConfig) { c.queryCache = q }
}
