// Package provider implements embedding backends over OpenAI-compatible APIs.
package provider

import (
	"errors"
	"fmt"
	"time"

	"github.com/yablochko8/color-finder-semantic-search/domain/search"
)

// Config holds configuration shared by every embedding backend.
type Config struct {
	APIKey        string
	BaseURL       string
	Model         string
	Dimension     int
	Metric        search.Metric
	Timeout       time.Duration
	MaxRetries    int
	InitialDelay  time.Duration
	BackoffFactor float64
	MaxBatchSize  int
	// CacheDir enables the on-disk response cache when set.
	CacheDir string
}

// ProviderError wraps provider errors with additional context.
// It matches search.ErrEmbedding.
type ProviderError struct {
	operation  string
	statusCode int
	message    string
	cause      error
}

// NewProviderError creates a new ProviderError.
func NewProviderError(operation string, statusCode int, message string, cause error) *ProviderError {
	return &ProviderError{
		operation:  operation,
		statusCode: statusCode,
		message:    message,
		cause:      cause,
	}
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.cause != nil && e.cause.Error() != e.message {
		return e.operation + ": " + e.message + ": " + e.cause.Error()
	}
	return e.operation + ": " + e.message
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error {
	return e.cause
}

// Is reports whether target is search.ErrEmbedding.
func (e *ProviderError) Is(target error) bool {
	return target == search.ErrEmbedding
}

// Operation returns the operation that failed.
func (e *ProviderError) Operation() string { return e.operation }

// StatusCode returns the HTTP status code if available.
func (e *ProviderError) StatusCode() int { return e.statusCode }

// Message returns the provider message.
func (e *ProviderError) Message() string { return e.message }

// ErrUnknownBackend indicates New was asked for an unsupported backend.
var ErrUnknownBackend = errors.New("unknown embedding backend")

// New returns the embedder for the named backend.
func New(name string, cfg Config) (search.Embedder, error) {
	switch name {
	case search.BackendOpenAI:
		return NewOpenAIEmbedder(cfg)
	case search.BackendVoyage:
		return NewVoyageEmbedder(cfg)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
}
