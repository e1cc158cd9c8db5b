package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/yablochko8/color-finder-semantic-search/domain/search"
	"github.com/yablochko8/color-finder-semantic-search/internal/database"
)

const sqliteCreateTable = `
CREATE TABLE IF NOT EXISTS colors (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name VARCHAR(100) NOT NULL UNIQUE,
    hex_color CHAR(6) NOT NULL,
    is_curated BOOLEAN NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL
)`

// SQLiteColorStore stores vectors as text and ranks them exactly in
// process. It has no approximate index and suits tests and small data sets.
type SQLiteColorStore struct {
	colorStore
}

// NewSQLiteColorStore creates the table and embedding columns, and checks
// any stored vectors against each backend's dimension.
func NewSQLiteColorStore(ctx context.Context, db database.Database, logger *slog.Logger, backends ...search.Backend) (*SQLiteColorStore, error) {
	s := &SQLiteColorStore{colorStore: newColorStore(db, logger, backends)}

	session := db.Session(ctx)
	if err := session.Exec(sqliteCreateTable).Error; err != nil {
		return nil, errors.Join(ErrInitializationFailed, fmt.Errorf("create table: %w", err))
	}

	migrator := session.Migrator()
	for _, b := range backends {
		if !migrator.HasColumn(&ColorModel{}, b.Column()) {
			if err := session.Exec(fmt.Sprintf("ALTER TABLE colors ADD COLUMN %s TEXT", b.Column())).Error; err != nil {
				return nil, errors.Join(ErrInitializationFailed, fmt.Errorf("add column %s: %w", b.Column(), err))
			}
		}

		var sample []vectorRow
		err := session.Table(colorsTable).
			Select(fmt.Sprintf("id, %s AS vector", b.Column())).
			Where(fmt.Sprintf("%s IS NOT NULL", b.Column())).
			Limit(1).
			Scan(&sample).Error
		if err != nil {
			return nil, errors.Join(ErrInitializationFailed, fmt.Errorf("check dimension: %w", err))
		}
		if len(sample) > 0 && len(sample[0].Vector.Slice()) != b.Dimension() {
			return nil, fmt.Errorf("%w: %s has %d, %s produces %d",
				search.ErrDimensionMismatch, b.Column(), len(sample[0].Vector.Slice()), b, b.Dimension())
		}
	}

	if err := s.claimColumns(ctx, backends); err != nil {
		return nil, err
	}
	return s, nil
}

// EnsureIndex is a no-op; SQLite search is exhaustive.
func (s *SQLiteColorStore) EnsureIndex(_ context.Context, backend search.Backend, _ int) error {
	_, err := s.backend(backend.Column())
	return err
}

// Search scans every stored vector for the backend and returns the
// closest Limit rows ordered by distance then id.
func (s *SQLiteColorStore) Search(ctx context.Context, q search.VectorQuery) ([]search.Match, error) {
	b, err := s.checkQuery(q)
	if err != nil {
		return nil, err
	}

	var rows []vectorRow
	err = s.db.Session(ctx).Table(colorsTable).
		Select(fmt.Sprintf("id, name, hex_color, is_curated, created_at, %s AS vector", b.Column())).
		Where(fmt.Sprintf("%s IS NOT NULL", b.Column())).
		Scan(&rows).Error
	if err != nil {
		return nil, classifySearchError(ctx, err)
	}

	query := q.Vector()
	matches := make([]search.Match, 0, len(rows))
	for i, r := range rows {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, classifySearchError(ctx, err)
			}
		}
		stored := r.Vector.Slice()
		if len(stored) != len(query) {
			s.logger.Warn("skipping stored vector with wrong dimension",
				"name", r.Name, "column", b.Column(), "dimension", len(stored))
			continue
		}
		d := b.Metric().Distance(query, stored)
		if math.IsNaN(d) {
			continue
		}
		m := matchRow{ID: r.ID, Name: r.Name, HexColor: r.HexColor, IsCurated: r.IsCurated, CreatedAt: r.CreatedAt}
		matches = append(matches, search.NewMatch(m.color(), d))
	}

	search.SortMatches(matches)
	if len(matches) > q.Limit() {
		matches = matches[:q.Limit()]
	}
	return matches, nil
}

var _ ColorStore = (*SQLiteColorStore)(nil)
