package search

import "context"

// Embedder converts text into vectors for a single backend.
type Embedder interface {
	// Backend returns the backend this embedder produces vectors for.
	Backend() Backend

	// Embed returns the vector for one text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns exactly one ItemResult per input, in input order.
	// A non-nil error means the whole request failed.
	EmbedBatch(ctx context.Context, texts []string) ([]ItemResult, error)
}

// ItemResult is the outcome for one input of a batch.
type ItemResult struct {
	Index  int
	Vector []float32
	Err    error
}

// OK reports whether the item has a vector.
func (r ItemResult) OK() bool { return r.Err == nil && len(r.Vector) > 0 }

// InputType tells backends that distinguish them whether text is a
// stored document or a search query.
type InputType string

// Input types.
const (
	InputDocument InputType = "document"
	InputQuery    InputType = "query"
)

type inputTypeKey struct{}

// WithInputType attaches an input type to ctx.
func WithInputType(ctx context.Context, t InputType) context.Context {
	return context.WithValue(ctx, inputTypeKey{}, t)
}

// InputTypeFrom returns the input type attached to ctx.
func InputTypeFrom(ctx context.Context) (InputType, bool) {
	t, ok := ctx.Value(inputTypeKey{}).(InputType)
	return t, ok
}

// QueryCache stores query vectors between searches.
type QueryCache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, vector []float32) error
}
