package colorfinder

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/yablochko8/color-finder-semantic-search/domain/search"
	"github.com/yablochko8/color-finder-semantic-search/infrastructure/cache"
	"github.com/yablochko8/color-finder-semantic-search/infrastructure/provider"
	"github.com/yablochko8/color-finder-semantic-search/internal/config"
)

// clientConfig holds configuration for Client construction.
type clientConfig struct {
	dbURL      string
	dbPool     config.PoolConfig
	logger     *slog.Logger
	embedder   search.Embedder
	backends   []search.Backend
	ingest     config.IngestConfig
	search     config.SearchConfig
	indexLists int
	queryCache search.QueryCache
	closers    []io.Closer
}

func newClientConfig() *clientConfig {
	return &clientConfig{
		dbPool:     config.NewPoolConfig(),
		ingest:     config.NewIngestConfig(),
		search:     config.NewSearchConfig(),
		indexLists: config.DefaultIndexLists,
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithDatabaseURL sets the database URL (sqlite:///path or postgres://...).
func WithDatabaseURL(url string) Option {
	return func(c *clientConfig) { c.dbURL = url }
}

// WithSQLite stores colors in a SQLite file. Search is exact and in-process.
func WithSQLite(path string) Option {
	return WithDatabaseURL("sqlite:///" + path)
}

// WithPostgres stores colors in PostgreSQL with pgvector.
func WithPostgres(dsn string) Option {
	return WithDatabaseURL(dsn)
}

// WithDatabasePool sizes the PostgreSQL connection pool.
func WithDatabasePool(p config.PoolConfig) Option {
	return func(c *clientConfig) { c.dbPool = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}

// WithEmbedder sets the active embedding backend.
func WithEmbedder(e search.Embedder) Option {
	return func(c *clientConfig) { c.embedder = e }
}

// WithBackends adds embedding columns to the schema beyond the active backend's.
func WithBackends(backends ...search.Backend) Option {
	return func(c *clientConfig) { c.backends = append(c.backends, backends...) }
}

// WithIngestConfig sets ingestion batching and throttling.
func WithIngestConfig(cfg config.IngestConfig) Option {
	return func(c *clientConfig) { c.ingest = cfg }
}

// WithSearchConfig sets search limits, probes, and timeouts.
func WithSearchConfig(cfg config.SearchConfig) Option {
	return func(c *clientConfig) { c.search = cfg }
}

// WithIndexLists sets the ivfflat cluster count. 0 sizes it from the row count.
func WithIndexLists(n int) Option {
	return func(c *clientConfig) { c.indexLists = n }
}

// WithQueryCache caches query vectors between searches.
func WithQueryCache(qc search.QueryCache) Option {
	return func(c *clientConfig) { c.queryCache = qc }
}

// WithCloser registers a resource closed with the Client.
func WithCloser(closer io.Closer) Option {
	return func(c *clientConfig) { c.closers = append(c.closers, closer) }
}

// OptionsFromConfig translates application configuration into Client options.
// It builds the active embedder, declares a column for every configured
// backend, and connects the query cache when one is configured.
func OptionsFromConfig(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) ([]Option, error) {
	active := cfg.ActiveEndpoint()
	embedder, err := provider.New(cfg.EmbeddingBackend(), providerConfig(active, cfg.HTTPCacheDir()))
	if err != nil {
		return nil, fmt.Errorf("create %s embedder: %w", cfg.EmbeddingBackend(), err)
	}

	opts := []Option{
		WithDatabaseURL(cfg.DBURL()),
		WithDatabasePool(cfg.DBPool()),
		WithLogger(logger),
		WithEmbedder(embedder),
		WithIngestConfig(cfg.Ingest()),
		WithSearchConfig(cfg.Search()),
		WithIndexLists(cfg.IndexLists()),
	}

	for _, e := range cfg.Endpoints() {
		if e.Name() == active.Name() {
			continue
		}
		metric, err := search.ParseMetric(e.Metric())
		if err != nil {
			return nil, fmt.Errorf("%s metric: %w", e.Name(), err)
		}
		opts = append(opts, WithBackends(search.NewBackend(e.Name(), e.Model(), e.Dimension(), metric)))
	}

	if qc := cfg.QueryCache(); qc.Enabled() {
		rc, err := cache.NewRedisEmbeddingCache(ctx, qc.RedisURL(), qc.TTL())
		if err != nil {
			// The cache is optional; searches still work without it.
			logger.Warn("query cache unavailable", "error", err)
		} else {
			opts = append(opts, WithQueryCache(rc), WithCloser(rc))
		}
	}
	return opts, nil
}

func providerConfig(e config.Endpoint, cacheDir string) provider.Config {
	return provider.Config{
		APIKey:        e.APIKey(),
		BaseURL:       e.BaseURL(),
		Model:         e.Model(),
		Dimension:     e.Dimension(),
		Metric:        search.Metric(e.Metric()),
		Timeout:       e.Timeout(),
		MaxRetries:    e.MaxRetries(),
		InitialDelay:  e.InitialDelay(),
		BackoffFactor: e.BackoffFactor(),
		MaxBatchSize:  e.MaxBatchSize(),
		CacheDir:      cacheDir,
	}
}
