package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yablochko8/color-finder-semantic-search/domain/color"
	"github.com/yablochko8/color-finder-semantic-search/domain/search"
)

// Indexer builds the approximate nearest-neighbor index for a backend.
type Indexer struct {
	store  VectorStore
	logger *slog.Logger
}

// NewIndexer creates an Indexer.
func NewIndexer(store VectorStore, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{store: store, logger: logger.With("component", "indexer")}
}

// Ensure builds the index for backend with the given cluster count and
// returns the count used. lists <= 0 sizes the index from the embedded row count.
func (i *Indexer) Ensure(ctx context.Context, backend search.Backend, lists int) (int, error) {
	if lists <= 0 {
		rows, err := i.store.Count(ctx, color.WithEmbedded(backend.Column()))
		if err != nil {
			return 0, fmt.Errorf("count embedded rows: %w", err)
		}
		lists = search.ListsFor(rows)
		i.logger.Debug("sized index from rows", "rows", rows, "lists", lists)
	}
	if err := i.store.EnsureIndex(ctx, backend, lists); err != nil {
		return 0, fmt.Errorf("ensure index for %s: %w", backend, err)
	}
	return lists, nil
}
