package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/yablochko8/color-finder-semantic-search/domain/search"
)

// errUpstreamProviderFailure indicates the API returned HTTP 200 but the
// response body held no data, no model and zero usage. Routing providers
// do this when every upstream fails, so retrying is futile.
var errUpstreamProviderFailure = errors.New("upstream provider failure")

// embeddingClient is the request loop shared by the backends.
type embeddingClient struct {
	client        *openai.Client
	backend       search.Backend
	dimensions    int
	batchSize     int
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// newEmbeddingClient builds the HTTP stack: the optional disk cache sits
// directly on the default transport and wrap, when given, goes outermost
// so that any request rewriting it does is part of the cache key.
func newEmbeddingClient(cfg Config, backend search.Backend, wrap func(http.RoundTripper) http.RoundTripper) (*embeddingClient, error) {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	transport := http.DefaultTransport
	if cfg.CacheDir != "" {
		cached, err := NewCachingTransport(cfg.CacheDir, transport)
		if err != nil {
			return nil, err
		}
		transport = cached
	}
	if wrap != nil {
		transport = wrap(transport)
	}
	config.HTTPClient = &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}

	c := &embeddingClient{
		client:        openai.NewClientWithConfig(config),
		backend:       backend,
		batchSize:     cfg.MaxBatchSize,
		maxRetries:    cfg.MaxRetries,
		initialDelay:  cfg.InitialDelay,
		backoffFactor: cfg.BackoffFactor,
	}
	if c.batchSize <= 0 {
		c.batchSize = 1
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}
	if c.initialDelay <= 0 {
		c.initialDelay = 2 * time.Second
	}
	if c.backoffFactor <= 0 {
		c.backoffFactor = 2.0
	}
	return c, nil
}

// Backend returns the backend this client embeds for.
func (c *embeddingClient) Backend() search.Backend {
	return c.backend
}

// Embed returns the vector for one text.
func (c *embeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	results, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if results[0].Err != nil {
		return nil, results[0].Err
	}
	return results[0].Vector, nil
}

// EmbedBatch embeds texts in sub-requests of at most batchSize inputs.
// Vectors are placed by the index the provider returns, never by
// response position. A failed sub-request marks only its own inputs as
// failed; the call errors when every sub-request fails or ctx ends.
func (c *embeddingClient) EmbedBatch(ctx context.Context, texts []string) ([]search.ItemResult, error) {
	results := make([]search.ItemResult, len(texts))
	for i := range results {
		results[i].Index = i
	}

	var lastErr error
	failed := 0
	requests := 0
	for start := 0; start < len(texts); start += c.batchSize {
		end := min(start+c.batchSize, len(texts))
		requests++
		resp, err := c.request(ctx, texts[start:end])
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			failed++
			lastErr = err
			for i := start; i < end; i++ {
				results[i].Err = err
			}
			continue
		}
		c.assign(results[start:end], resp.Data)
	}

	if requests > 0 && failed == requests {
		return nil, lastErr
	}
	return results, nil
}

// assign fills slots from response entries. Entries with an out of range,
// repeated or empty index, or a vector of the wrong width, are dropped and
// their slots report search.ErrNoEmbedding.
func (c *embeddingClient) assign(slots []search.ItemResult, data []openai.Embedding) {
	counts := make([]int, len(slots))
	for _, d := range data {
		if d.Index >= 0 && d.Index < len(slots) {
			counts[d.Index]++
		}
	}

	for _, d := range data {
		if d.Index < 0 || d.Index >= len(slots) || counts[d.Index] != 1 {
			continue
		}
		switch {
		case len(d.Embedding) == 0:
			continue
		case c.backend.Dimension() > 0 && len(d.Embedding) != c.backend.Dimension():
			slots[d.Index].Err = fmt.Errorf("%w: %w: got %d, want %d",
				search.ErrNoEmbedding, search.ErrDimensionMismatch, len(d.Embedding), c.backend.Dimension())
			continue
		}
		vec := make([]float32, len(d.Embedding))
		copy(vec, d.Embedding)
		slots[d.Index].Vector = vec
	}

	for i := range slots {
		if slots[i].Vector != nil || slots[i].Err != nil {
			continue
		}
		if counts[i] > 1 {
			slots[i].Err = fmt.Errorf("%w: index %d returned %d times", search.ErrNoEmbedding, slots[i].Index, counts[i])
			continue
		}
		slots[i].Err = fmt.Errorf("%w: input %d", search.ErrNoEmbedding, slots[i].Index)
	}
}

func (c *embeddingClient) request(ctx context.Context, texts []string) (openai.EmbeddingResponse, error) {
	req := openai.EmbeddingRequest{
		Model:      openai.EmbeddingModel(c.backend.Model()),
		Input:      texts,
		Dimensions: c.dimensions,
	}

	var resp openai.EmbeddingResponse
	err := c.withRetry(ctx, func() error {
		var err error
		resp, err = c.client.CreateEmbeddings(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 && string(resp.Model) == "" && resp.Usage.TotalTokens == 0 {
			return fmt.Errorf(
				"%w: provider returned HTTP 200 with no embedding data, no model, and zero usage",
				errUpstreamProviderFailure,
			)
		}
		return nil
	})
	if err != nil {
		return openai.EmbeddingResponse{}, c.wrapError("embedding", err)
	}
	return resp, nil
}

// withRetry executes the function with exponential backoff retry.
func (c *embeddingClient) withRetry(ctx context.Context, fn func() error) error {
	delay := c.initialDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !isRetryable(lastErr) {
			return lastErr
		}

		if attempt < c.maxRetries {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
				delay = time.Duration(float64(delay) * c.backoffFactor)
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// isRetryable determines if an error should be retried.
func isRetryable(err error) bool {
	if errors.Is(err, errUpstreamProviderFailure) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.HTTPStatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return false
		}
		return true
	}

	return false
}

// wrapError wraps an OpenAI error into a ProviderError.
func (c *embeddingClient) wrapError(operation string, err error) error {
	operation = c.backend.Name() + " " + operation

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewProviderError(operation, apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return NewProviderError(operation, reqErr.HTTPStatusCode, reqErr.Error(), err)
	}

	return NewProviderError(operation, 0, err.Error(), err)
}
