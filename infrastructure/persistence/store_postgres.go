package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/yablochko8/color-finder-semantic-search/domain/search"
	"github.com/yablochko8/color-finder-semantic-search/internal/database"
)

// SQL specific to PostgreSQL with pgvector.
const (
	pgCreateExtension = `CREATE EXTENSION IF NOT EXISTS vector`

	pgCreateTable = `
CREATE TABLE IF NOT EXISTS colors (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(100) NOT NULL UNIQUE,
    hex_color CHAR(6) NOT NULL,
    is_curated BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

	pgAddColumnTemplate = `ALTER TABLE colors ADD COLUMN IF NOT EXISTS %s VECTOR(%d)`

	pgCheckDimension = `
SELECT a.atttypmod AS dimension
FROM pg_attribute a
JOIN pg_class c ON a.attrelid = c.oid
WHERE c.relname = 'colors'
AND a.attname = ?`

	pgCreateIndexTemplate = `
CREATE INDEX IF NOT EXISTS %s
ON colors
USING ivfflat (%s %s)
WITH (lists = %d)`

	// The inner query is ordered by the distance expression and limited so
	// the planner can use the ivfflat index; the outer query re-orders that
	// small set with a deterministic tie-break.
	pgSearchTemplate = `
SELECT id, name, hex_color, is_curated, created_at, distance
FROM (
    SELECT id, name, hex_color, is_curated, created_at, %[1]s %[2]s ? AS distance
    FROM colors
    WHERE %[1]s IS NOT NULL
    ORDER BY %[1]s %[2]s ?
    LIMIT ?
) AS nearest
ORDER BY distance, id`
)

// pgQueryCanceled is the SQLSTATE raised when statement_timeout fires.
const pgQueryCanceled = "57014"

// PostgresColorStore stores colors in PostgreSQL with one pgvector column
// and one ivfflat index per backend.
type PostgresColorStore struct {
	colorStore
}

// NewPostgresColorStore creates the extension, table and embedding columns,
// and verifies each column's dimension.
func NewPostgresColorStore(ctx context.Context, db database.Database, logger *slog.Logger, backends ...search.Backend) (*PostgresColorStore, error) {
	s := &PostgresColorStore{colorStore: newColorStore(db, logger, backends)}

	session := db.Session(ctx)
	if err := session.Exec(pgCreateExtension).Error; err != nil {
		return nil, errors.Join(ErrInitializationFailed, fmt.Errorf("create extension: %w", err))
	}
	if err := session.Exec(pgCreateTable).Error; err != nil {
		return nil, errors.Join(ErrInitializationFailed, fmt.Errorf("create table: %w", err))
	}

	for _, b := range backends {
		if err := session.Exec(fmt.Sprintf(pgAddColumnTemplate, b.Column(), b.Dimension())).Error; err != nil {
			return nil, errors.Join(ErrInitializationFailed, fmt.Errorf("add column %s: %w", b.Column(), err))
		}

		var dimension int
		result := session.Raw(pgCheckDimension, b.Column()).Scan(&dimension)
		if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errors.Join(ErrInitializationFailed, fmt.Errorf("check dimension: %w", result.Error))
		}
		if result.RowsAffected > 0 && dimension != b.Dimension() {
			return nil, fmt.Errorf("%w: %s has %d, %s produces %d",
				search.ErrDimensionMismatch, b.Column(), dimension, b, b.Dimension())
		}
	}

	if err := s.claimColumns(ctx, backends); err != nil {
		return nil, err
	}
	return s, nil
}

// indexName keys the index to the backend column and metric.
func indexName(b search.Backend) string {
	return fmt.Sprintf("colors_%s_%s_idx", b.Column(), b.Metric())
}

// EnsureIndex builds the ivfflat index for backend if it does not exist.
// Build it after loading data: ivfflat picks its cluster centers from the
// rows present at creation time.
func (s *PostgresColorStore) EnsureIndex(ctx context.Context, backend search.Backend, lists int) error {
	b, err := s.backend(backend.Column())
	if err != nil {
		return err
	}
	if lists <= 0 {
		return fmt.Errorf("index lists must be positive, got %d", lists)
	}

	sql := fmt.Sprintf(pgCreateIndexTemplate, indexName(b), b.Column(), b.Metric().OpClass(), lists)
	if err := s.db.Session(ctx).Exec(sql).Error; err != nil {
		return fmt.Errorf("create index %s: %w", indexName(b), err)
	}
	s.logger.Info("vector index ready", "index", indexName(b), "lists", lists)
	return nil
}

// Search runs the nearest-neighbor query in a transaction so that the
// probe count and statement timeout apply to this query only.
func (s *PostgresColorStore) Search(ctx context.Context, q search.VectorQuery) ([]search.Match, error) {
	b, err := s.checkQuery(q)
	if err != nil {
		return nil, err
	}

	vec := pgvector.NewVector(q.Vector())
	sql := fmt.Sprintf(pgSearchTemplate, b.Column(), b.Metric().Operator())

	rows, err := database.WithTransactionResult(ctx, s.db, func(tx *gorm.DB) ([]matchRow, error) {
		if q.Probes() > 0 {
			if err := tx.Exec(fmt.Sprintf("SET LOCAL ivfflat.probes = %d", q.Probes())).Error; err != nil {
				return nil, fmt.Errorf("set probes: %w", err)
			}
		}
		if deadline, ok := ctx.Deadline(); ok {
			ms := max(time.Until(deadline).Milliseconds(), 1)
			if err := tx.Exec(fmt.Sprintf("SET LOCAL statement_timeout = %d", ms)).Error; err != nil {
				return nil, fmt.Errorf("set statement timeout: %w", err)
			}
		}

		var rows []matchRow
		if err := tx.Raw(sql, vec, vec, q.Limit()).Scan(&rows).Error; err != nil {
			return nil, err
		}
		return rows, nil
	})
	if err != nil {
		return nil, classifySearchError(ctx, err)
	}

	// Postgres orders NaN above every number, so undefined distances (zero
	// vectors under cosine) only fill the tail of the limit.
	matches := make([]search.Match, len(rows))
	for i, r := range rows {
		matches[i] = search.NewMatch(r.color(), r.Distance)
	}
	return search.DropUndefined(matches), nil
}

// classifySearchError maps deadline and statement-timeout failures to
// search.ErrSearchTimeout.
func classifySearchError(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", search.ErrSearchTimeout, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgQueryCanceled {
		return fmt.Errorf("%w: %w", search.ErrSearchTimeout, err)
	}
	return fmt.Errorf("vector search: %w", err)
}

var _ ColorStore = (*PostgresColorStore)(nil)
