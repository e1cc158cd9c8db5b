package search

import "errors"

var (
	// ErrEmbedding indicates the provider request failed as a whole.
	ErrEmbedding = errors.New("embedding failed")
	// ErrNoEmbedding indicates the provider returned no usable vector for one input.
	ErrNoEmbedding = errors.New("no embedding returned")
	// ErrPersistence indicates a store write failed.
	ErrPersistence = errors.New("persistence failed")
	// ErrSearchTimeout indicates the nearest-neighbor query exceeded its deadline.
	ErrSearchTimeout = errors.New("search timed out")
	// ErrNoData indicates a search completed but matched nothing.
	ErrNoData = errors.New("no matching colors")
	// ErrEmptyQuery indicates blank query text.
	ErrEmptyQuery = errors.New("query text is empty")
	// ErrInvalidLimit indicates a result count outside 1..MaxLimit.
	ErrInvalidLimit = errors.New("invalid result limit")
	// ErrDimensionMismatch indicates a vector width differs from the backend's.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrModelMismatch indicates a column holds vectors from a different model
	// than the one configured for it.
	ErrModelMismatch = errors.New("embedding model mismatch")
)
