package provider

import "github.com/yablochko8/color-finder-semantic-search/domain/search"

// Voyage defaults.
const (
	DefaultVoyageBaseURL   = "https://api.voyageai.com/v1"
	DefaultVoyageModel     = "voyage-2"
	DefaultVoyageDimension = 1024
	DefaultVoyageBatchSize = 128
)

// VoyageEmbedder embeds text with the Voyage AI embeddings API, which
// shares the OpenAI wire format plus an input_type field.
type VoyageEmbedder struct {
	*embeddingClient
}

// NewVoyageEmbedder creates a VoyageEmbedder from configuration.
func NewVoyageEmbedder(cfg Config) (*VoyageEmbedder, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultVoyageBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultVoyageModel
	}
	if cfg.Dimension == 0 {
		cfg.Dimension = DefaultVoyageDimension
	}
	if cfg.MaxBatchSize == 0 {
		cfg.MaxBatchSize = DefaultVoyageBatchSize
	}
	if cfg.Metric == "" {
		cfg.Metric = search.MetricCosine
	}

	backend := search.NewBackend(search.BackendVoyage, cfg.Model, cfg.Dimension, cfg.Metric)
	client, err := newEmbeddingClient(cfg, backend, NewInputTypeTransport)
	if err != nil {
		return nil, err
	}
	return &VoyageEmbedder{embeddingClient: client}, nil
}

var _ search.Embedder = (*VoyageEmbedder)(nil)
