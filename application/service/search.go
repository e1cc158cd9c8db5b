package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yablochko8/color-finder-semantic-search/domain/color"
	"github.com/yablochko8/color-finder-semantic-search/domain/repository"
	"github.com/yablochko8/color-finder-semantic-search/domain/search"
	"github.com/yablochko8/color-finder-semantic-search/internal/config"
)

// VectorStore is the index a Search queries. Count sizes the probe count
// when none is configured.
type VectorStore interface {
	search.VectorIndex
	Count(ctx context.Context, options ...repository.Option) (int64, error)
}

// SearchOption configures a Search.
type SearchOption func(*Search)

// WithQueryCache caches query vectors between searches.
func WithQueryCache(cache search.QueryCache) SearchOption {
	return func(s *Search) { s.cache = cache }
}

// Search turns free text into ranked color matches.
type Search struct {
	store    VectorStore
	embedder search.Embedder
	cache    search.QueryCache
	cfg      config.SearchConfig
	logger   *slog.Logger
}

// NewSearch creates a Search.
func NewSearch(store VectorStore, embedder search.Embedder, cfg config.SearchConfig, logger *slog.Logger, opts ...SearchOption) *Search {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Search{
		store:    store,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger.With("component", "search", "backend", embedder.Backend().Name()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the backend queries are embedded with.
func (s *Search) Backend() search.Backend {
	return s.embedder.Backend()
}

// Query embeds the request text and returns the nearest stored colors,
// closest first. A timed-out index query is retried up to the configured
// number of times; an empty result is search.ErrNoData.
func (s *Search) Query(ctx context.Context, req search.Request) (search.Result, error) {
	began := time.Now()
	backend := s.embedder.Backend()

	req, err := req.Normalize(s.cfg.Limit())
	if err != nil {
		return search.Result{}, err
	}

	vector, err := s.embedQuery(ctx, req.Text())
	if err != nil {
		return search.Result{}, err
	}

	probes, err := s.probes(ctx, backend)
	if err != nil {
		return search.Result{}, err
	}

	query := search.NewVectorQuery(backend, vector, req.Limit(), probes)
	var matches []search.Match
	for attempt := 0; ; attempt++ {
		matches, err = s.searchOnce(ctx, query)
		if err == nil {
			break
		}
		if errors.Is(err, search.ErrSearchTimeout) && attempt < s.cfg.TimeoutRetries() && ctx.Err() == nil {
			s.logger.WarnContext(ctx, "search timed out, retrying", "attempt", attempt+1, "timeout", s.cfg.Timeout())
			continue
		}
		return search.Result{}, err
	}

	matches = search.DropUndefined(matches)
	if len(matches) == 0 {
		return search.Result{}, fmt.Errorf("%w for %q", search.ErrNoData, req.Text())
	}
	search.SortMatches(matches)

	elapsed := time.Since(began)
	s.logger.DebugContext(ctx, "search complete",
		"query", req.Text(), "limit", req.Limit(), "probes", probes,
		"matches", len(matches), "elapsed", elapsed)
	return search.NewResult(req.Text(), backend, matches, elapsed), nil
}

func (s *Search) searchOnce(ctx context.Context, q search.VectorQuery) ([]search.Match, error) {
	if s.cfg.Timeout() <= 0 {
		return s.store.Search(ctx, q)
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout())
	defer cancel()
	return s.store.Search(ctx, q)
}

func (s *Search) probes(ctx context.Context, backend search.Backend) (int, error) {
	if p := s.cfg.Probes(); p > 0 {
		return p, nil
	}
	rows, err := s.store.Count(ctx, color.WithEmbedded(backend.Column()))
	if err != nil {
		return 0, fmt.Errorf("count embedded rows: %w", err)
	}
	return search.ProbesFor(rows), nil
}

func (s *Search) embedQuery(ctx context.Context, text string) ([]float32, error) {
	backend := s.embedder.Backend()
	key := QueryCacheKey(backend, text)

	if s.cache != nil {
		vector, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "query cache read failed", "error", err)
		case ok && len(vector) == backend.Dimension():
			return vector, nil
		}
	}

	vector, err := s.embedder.Embed(search.WithInputType(ctx, search.InputQuery), text)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, search.ErrEmbedding) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", search.ErrEmbedding, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, vector); err != nil {
			s.logger.WarnContext(ctx, "query cache write failed", "error", err)
		}
	}
	return vector, nil
}

// QueryCacheKey identifies a query vector by backend, model, and text digest.
func QueryCacheKey(backend search.Backend, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("colorfinder:qemb:%s:%s:%s", backend.Name(), backend.Model(), hex.EncodeToString(sum[:]))
}
