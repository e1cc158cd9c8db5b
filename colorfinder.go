// Package colorfinder finds named colors by meaning.
//
// It ingests a CSV of named colors, stores an embedding of each name, and
// answers free-text queries with the nearest colors.
//
//	client, err := colorfinder.New(ctx,
//	    colorfinder.WithSQLite("colors.db"),
//	    colorfinder.WithEmbedder(embedder),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	rows, _ := source.ReadFile("colors.csv")
//	summary, err := client.Ingestion.Run(ctx, rows)
//
//	result, err := client.Search.Query(ctx, search.NewRequest("very fast car", 10))
//	for _, m := range result.Matches() {
//	    fmt.Println(m.Color().Name(), m.Color().HexWithMarker(), m.Distance())
//	}
package colorfinder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/yablochko8/color-finder-semantic-search/application/service"
	"github.com/yablochko8/color-finder-semantic-search/domain/color"
	"github.com/yablochko8/color-finder-semantic-search/domain/search"
	"github.com/yablochko8/color-finder-semantic-search/infrastructure/persistence"
	"github.com/yablochko8/color-finder-semantic-search/internal/database"
)

var (
	// ErrNoDatabase indicates no database URL was configured.
	ErrNoDatabase = errors.New("colorfinder: no database configured")
	// ErrNoEmbedder indicates no embedding backend was configured.
	ErrNoEmbedder = errors.New("colorfinder: no embedder configured")
	// ErrClientClosed indicates the client has been closed.
	ErrClientClosed = errors.New("colorfinder: client is closed")
)

// Client wires the store, embedder, and services together.
type Client struct {
	Ingestion *service.Ingestion
	Search    *service.Search
	Indexer   *service.Indexer
	Colors    color.Store

	db         database.Database
	store      persistence.ColorStore
	backend    search.Backend
	indexLists int
	closers    []io.Closer
	logger     *slog.Logger
	closed     atomic.Bool
	mu         sync.Mutex
}

// New opens the database, prepares the schema for every backend, and
// builds the services.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.dbURL == "" {
		return nil, errors.Join(ErrNoDatabase, closeAll(cfg.closers))
	}
	if cfg.embedder == nil {
		return nil, errors.Join(ErrNoEmbedder, closeAll(cfg.closers))
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	pool := cfg.dbPool
	db, err := database.NewDatabase(ctx, cfg.dbURL,
		database.WithLogger(logger),
		database.WithPool(pool.MaxOpen(), pool.MaxIdle(), pool.MaxLifetime()),
	)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open database: %w", err), closeAll(cfg.closers))
	}

	backend := cfg.embedder.Backend()
	backends := []search.Backend{backend}
	for _, b := range cfg.backends {
		if b.Column() != backend.Column() {
			backends = append(backends, b)
		}
	}

	store, err := persistence.NewColorStore(ctx, db, logger, backends...)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("color store: %w", err), db.Close(), closeAll(cfg.closers))
	}

	var searchOpts []service.SearchOption
	if cfg.queryCache != nil {
		searchOpts = append(searchOpts, service.WithQueryCache(cfg.queryCache))
	}

	client := &Client{
		Ingestion:  service.NewIngestion(store, cfg.embedder, cfg.ingest, logger),
		Search:     service.NewSearch(store, cfg.embedder, cfg.search, logger, searchOpts...),
		Indexer:    service.NewIndexer(store, logger),
		Colors:     store,
		db:         db,
		store:      store,
		backend:    backend,
		indexLists: cfg.indexLists,
		closers:    cfg.closers,
		logger:     logger,
	}

	logger.Info("colorfinder ready",
		"backend", backend.String(),
		"dimension", backend.Dimension(),
		"metric", string(backend.Metric()),
		"postgres", db.IsPostgres())
	return client, nil
}

// Backend returns the active embedding backend.
func (c *Client) Backend() search.Backend {
	return c.backend
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// EnsureIndex builds the vector index for the active backend using the
// configured cluster count and returns the count used.
func (c *Client) EnsureIndex(ctx context.Context) (int, error) {
	if c.closed.Load() {
		return 0, ErrClientClosed
	}
	return c.Indexer.Ensure(ctx, c.backend, c.indexLists)
}

// Close releases the database and registered resources.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", slog.Any("error", err))
		}
	}

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// closeAll closes resources handed to New when construction fails.
func closeAll(closers []io.Closer) error {
	var errs []error
	for _, closer := range closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
