// Package persistence provides database storage implementations.
package persistence

import (
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/yablochko8/color-finder-semantic-search/domain/color"
)

// colorsTable holds the colors and one vector column per backend.
const colorsTable = "colors"

// EmbeddingColumnModel records which model filled an embedding column.
type EmbeddingColumnModel struct {
	ColumnName string    `gorm:"column:column_name;primaryKey;size:64"`
	Model      string    `gorm:"column:model;size:200;not null"`
	Dimension  int       `gorm:"column:dimension;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null"`
}

// TableName returns the table name.
func (EmbeddingColumnModel) TableName() string { return "embedding_columns" }

// ColorModel is the GORM model for the colors table. Embedding columns are
// per backend and created with raw SQL, so they are not fields here.
type ColorModel struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;size:100;uniqueIndex;not null"`
	HexColor  string    `gorm:"column:hex_color;size:6;not null"`
	IsCurated bool      `gorm:"column:is_curated;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

// TableName returns the table name.
func (ColorModel) TableName() string { return colorsTable }

// matchRow is one row of a nearest-neighbor query.
type matchRow struct {
	ID        int64
	Name      string
	HexColor  string
	IsCurated bool
	CreatedAt time.Time
	Distance  float64
}

func (r matchRow) color() color.Color {
	return color.ReconstructColor(r.ID, r.Name, r.HexColor, r.IsCurated, r.CreatedAt)
}

// vectorRow carries a stored vector for in-process ranking.
type vectorRow struct {
	ID        int64
	Name      string
	HexColor  string
	IsCurated bool
	CreatedAt time.Time
	Vector    pgvector.Vector
}

type colorMapper struct{}

func (colorMapper) ToDomain(m ColorModel) color.Color {
	return color.ReconstructColor(m.ID, m.Name, m.HexColor, m.IsCurated, m.CreatedAt)
}

func (colorMapper) ToModel(c color.Color) ColorModel {
	return ColorModel{
		ID:        c.ID(),
		Name:      c.Name(),
		HexColor:  c.Hex(),
		IsCurated: c.Curated(),
		CreatedAt: c.CreatedAt(),
	}
}
