// Package testdb provides in-memory SQLite databases and color stores for tests.
package testdb

import (
	"context"
	"testing"

	"github.com/yablochko8/color-finder-semantic-search/domain/search"
	"github.com/yablochko8/color-finder-semantic-search/infrastructure/persistence"
	"github.com/yablochko8/color-finder-semantic-search/internal/database"
	"github.com/yablochko8/color-finder-semantic-search/internal/log"
)

// New creates an in-memory SQLite database that is closed when the test ends.
func New(t *testing.T) database.Database {
	t.Helper()
	db, err := database.NewDatabase(context.Background(), "sqlite:///:memory:", database.WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("testdb.New: open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// NewColorStore creates an in-memory color store with a column per backend.
func NewColorStore(t *testing.T, backends ...search.Backend) persistence.ColorStore {
	t.Helper()
	store, err := persistence.NewColorStore(context.Background(), New(t), log.Discard(), backends...)
	if err != nil {
		t.Fatalf("testdb.NewColorStore: %v", err)
	}
	return store
}
