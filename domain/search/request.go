package search

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Result count bounds.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Request is a free-text search.
type Request struct {
	text  string
	limit int
}

// NewRequest creates a Request. A limit of zero selects the default.
func NewRequest(text string, limit int) Request {
	return Request{text: text, limit: limit}
}

// Text returns the query text.
func (r Request) Text() string { return r.text }

// Limit returns the requested result count.
func (r Request) Limit() int { return r.limit }

// Normalize trims the text and resolves the limit, using fallback when
// the limit is zero.
func (r Request) Normalize(fallback int) (Request, error) {
	text := strings.TrimSpace(r.text)
	if text == "" {
		return Request{}, ErrEmptyQuery
	}
	limit := r.limit
	if limit == 0 {
		limit = fallback
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 0 || limit > MaxLimit {
		return Request{}, fmt.Errorf("%w: %d not in 1..%d", ErrInvalidLimit, r.limit, MaxLimit)
	}
	return Request{text: text, limit: limit}, nil
}

// Result is the outcome of a search.
type Result struct {
	query   string
	backend Backend
	matches []Match
	elapsed time.Duration
}

// NewResult creates a Result.
func NewResult(query string, backend Backend, matches []Match, elapsed time.Duration) Result {
	m := make([]Match, len(matches))
	copy(m, matches)
	return Result{query: query, backend: backend, matches: m, elapsed: elapsed}
}

// Query returns the normalized query text.
func (r Result) Query() string { return r.query }

// Backend returns the backend used.
func (r Result) Backend() Backend { return r.backend }

// Matches returns the ranked matches.
func (r Result) Matches() []Match {
	m := make([]Match, len(r.matches))
	copy(m, r.matches)
	return m
}

// Elapsed returns the wall time of the search.
func (r Result) Elapsed() time.Duration { return r.elapsed }

// VectorQuery asks an index for the nearest stored vectors.
type VectorQuery struct {
	backend Backend
	vector  []float32
	limit   int
	probes  int
}

// NewVectorQuery creates a VectorQuery.
func NewVectorQuery(backend Backend, vector []float32, limit, probes int) VectorQuery {
	v := make([]float32, len(vector))
	copy(v, vector)
	return VectorQuery{backend: backend, vector: v, limit: limit, probes: probes}
}

// Backend returns the backend whose column is searched.
func (q VectorQuery) Backend() Backend { return q.backend }

// Vector returns the query vector.
func (q VectorQuery) Vector() []float32 { return q.vector }

// Limit returns the number of neighbors requested.
func (q VectorQuery) Limit() int { return q.limit }

// Probes returns the search breadth. Zero leaves the store default.
func (q VectorQuery) Probes() int { return q.probes }

// VectorIndex answers nearest-neighbor queries over stored colors.
type VectorIndex interface {
	// EnsureIndex builds the approximate index for backend if missing.
	EnsureIndex(ctx context.Context, backend Backend, lists int) error

	// Search returns up to Limit matches ordered by distance then id.
	Search(ctx context.Context, query VectorQuery) ([]Match, error)
}
