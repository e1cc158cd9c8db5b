package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yablochko8/color-finder-semantic-search/domain/color"
	"github.com/yablochko8/color-finder-semantic-search/domain/repository"
	"github.com/yablochko8/color-finder-semantic-search/domain/search"
	"github.com/yablochko8/color-finder-semantic-search/internal/database"
)

var (
	// ErrInitializationFailed indicates schema setup failed.
	ErrInitializationFailed = errors.New("failed to initialize color store")
	// ErrUnknownColumn indicates an embedding column no configured backend owns.
	ErrUnknownColumn = errors.New("unknown embedding column")
)

// ColorStore persists colors and answers nearest-neighbor queries.
type ColorStore interface {
	color.Store
	search.VectorIndex
}

// NewColorStore returns the store for the database dialect, creating the
// schema for the given backends.
func NewColorStore(ctx context.Context, db database.Database, logger *slog.Logger, backends ...search.Backend) (ColorStore, error) {
	if db.IsPostgres() {
		return NewPostgresColorStore(ctx, db, logger, backends...)
	}
	return NewSQLiteColorStore(ctx, db, logger, backends...)
}

// colorStore holds the dialect-independent operations.
type colorStore struct {
	db       database.Database
	repo     database.Repository[color.Color, ColorModel]
	backends map[string]search.Backend
	logger   *slog.Logger
	now      func() time.Time
}

func newColorStore(db database.Database, logger *slog.Logger, backends []search.Backend) colorStore {
	if logger == nil {
		logger = slog.Default()
	}
	byColumn := make(map[string]search.Backend, len(backends))
	for _, b := range backends {
		byColumn[b.Column()] = b
	}
	return colorStore{
		db:       db,
		repo:     database.NewRepository[color.Color, ColorModel](db, colorMapper{}, "color"),
		backends: byColumn,
		logger:   logger,
		now:      time.Now,
	}
}

// backend returns the configured backend owning column.
func (s colorStore) backend(column string) (search.Backend, error) {
	b, ok := s.backends[column]
	if !ok {
		return search.Backend{}, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	return b, nil
}

// claimColumns records the model behind each backend column, and refuses
// a backend whose model or dimension differs from the one that filled the
// column. A column without vectors is reassigned to the configured model.
func (s colorStore) claimColumns(ctx context.Context, backends []search.Backend) error {
	if err := s.db.Session(ctx).AutoMigrate(&EmbeddingColumnModel{}); err != nil {
		return errors.Join(ErrInitializationFailed, fmt.Errorf("create embedding_columns: %w", err))
	}

	return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		for _, b := range backends {
			var recorded []EmbeddingColumnModel
			if err := tx.Where("column_name = ?", b.Column()).Limit(1).Find(&recorded).Error; err != nil {
				return fmt.Errorf("read embedding_columns: %w", err)
			}

			if len(recorded) > 0 {
				if recorded[0].matches(b) {
					continue
				}
				var stored int64
				err := tx.Table(colorsTable).Where(fmt.Sprintf("%s IS NOT NULL", b.Column())).Count(&stored).Error
				if err != nil {
					return fmt.Errorf("count %s: %w", b.Column(), err)
				}
				if stored > 0 {
					return columnMismatch(recorded[0], b)
				}
				s.logger.Info("reassigning empty embedding column",
					"column", b.Column(), "from", recorded[0].Model, "to", b.Model())
			}

			row := EmbeddingColumnModel{
				ColumnName: b.Column(),
				Model:      b.Model(),
				Dimension:  b.Dimension(),
				UpdatedAt:  s.now().UTC(),
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "column_name"}},
				DoUpdates: clause.AssignmentColumns([]string{"model", "dimension", "updated_at"}),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("record %s: %w", b.Column(), err)
			}
		}
		return nil
	})
}

func (m EmbeddingColumnModel) matches(b search.Backend) bool {
	return m.Model == b.Model() && m.Dimension == b.Dimension()
}

func columnMismatch(m EmbeddingColumnModel, b search.Backend) error {
	if m.Dimension != b.Dimension() {
		return fmt.Errorf("%w: %s holds %d-wide %s vectors, %s produces %d",
			search.ErrDimensionMismatch, m.ColumnName, m.Dimension, m.Model, b, b.Dimension())
	}
	return fmt.Errorf("%w: %s holds %s vectors, configured model is %s; clear the column to re-embed",
		search.ErrModelMismatch, m.ColumnName, m.Model, b.Model())
}

// checkQuery validates a vector query against the configured backends.
func (s colorStore) checkQuery(q search.VectorQuery) (search.Backend, error) {
	b, err := s.backend(q.Backend().Column())
	if err != nil {
		return search.Backend{}, err
	}
	if b.Model() != q.Backend().Model() {
		return search.Backend{}, fmt.Errorf("%w: query embedded by %s, column holds %s",
			search.ErrModelMismatch, q.Backend(), b)
	}
	if b.Metric() != q.Backend().Metric() {
		return search.Backend{}, fmt.Errorf("query metric %s does not match %s metric %s",
			q.Backend().Metric(), b, b.Metric())
	}
	if len(q.Vector()) != b.Dimension() {
		return search.Backend{}, fmt.Errorf("%w: query has %d, %s stores %d",
			search.ErrDimensionMismatch, len(q.Vector()), b, b.Dimension())
	}
	if q.Limit() <= 0 {
		return search.Backend{}, fmt.Errorf("%w: %d", search.ErrInvalidLimit, q.Limit())
	}
	return b, nil
}

// Upsert inserts c or overwrites the row with the same name in one
// statement. created_at is only written on insert. A nil vector leaves
// the existing embedding untouched.
func (s colorStore) Upsert(ctx context.Context, c color.Color, column string, vector []float32) (color.Color, error) {
	model := s.repo.Mapper().ToModel(c)
	updates := []string{"hex_color", "is_curated"}
	values := map[string]any{
		"name":       model.Name,
		"hex_color":  model.HexColor,
		"is_curated": model.IsCurated,
		"created_at": s.now().UTC(),
	}

	if vector != nil {
		b, err := s.backend(column)
		if err != nil {
			return color.Color{}, fmt.Errorf("%w: %w", search.ErrPersistence, err)
		}
		if len(vector) != b.Dimension() {
			return color.Color{}, fmt.Errorf("%w: %w: %q has %d values, %s stores %d",
				search.ErrPersistence, search.ErrDimensionMismatch, c.Name(), len(vector), b, b.Dimension())
		}
		values[column] = pgvector.NewVector(vector)
		updates = append(updates, column)
	}

	err := s.db.Session(ctx).Table(colorsTable).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns(updates),
	}).Create(values).Error
	if err != nil {
		return color.Color{}, fmt.Errorf("%w: upsert %q: %w", search.ErrPersistence, c.Name(), err)
	}

	stored, err := s.repo.FindOne(ctx, color.WithName(c.Name()))
	if err != nil {
		return color.Color{}, fmt.Errorf("%w: reload %q: %w", search.ErrPersistence, c.Name(), err)
	}
	return stored, nil
}

// Find returns colors matching the options.
func (s colorStore) Find(ctx context.Context, options ...repository.Option) ([]color.Color, error) {
	return s.repo.Find(ctx, options...)
}

// Count returns the number of colors matching the options.
func (s colorStore) Count(ctx context.Context, options ...repository.Option) (int64, error) {
	return s.repo.Count(ctx, options...)
}
