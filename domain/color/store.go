package color

import (
	"context"

	"github.com/yablochko8/color-finder-semantic-search/domain/repository"
)

// Store persists colors and their embeddings.
type Store interface {
	// Upsert inserts the color or overwrites the row with the same name,
	// writing vector into the column of the given embedding column.
	Upsert(ctx context.Context, c Color, column string, vector []float32) (Color, error)

	// Find returns colors matching the options.
	Find(ctx context.Context, options ...repository.Option) ([]Color, error)

	// Count returns the number of colors matching the options.
	Count(ctx context.Context, options ...repository.Option) (int64, error)
}

// WithName filters by exact name.
func WithName(name string) repository.Option {
	return repository.WithCondition("name", name)
}

// WithNames filters by a set of names.
func WithNames(names []string) repository.Option {
	return repository.WithConditionIn("name", names)
}

// WithEmbedded keeps only colors with a vector in the given column.
func WithEmbedded(column string) repository.Option {
	return repository.WithNotNull(column)
}

// WithCurated filters on the curation flag.
func WithCurated(curated bool) repository.Option {
	return repository.WithCondition("is_curated", curated)
}
