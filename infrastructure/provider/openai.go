package provider

import "github.com/yablochko8/color-finder-semantic-search/domain/search"

// OpenAI defaults.
const (
	DefaultOpenAIModel     = "text-embedding-3-small"
	DefaultOpenAIDimension = 1536
	DefaultOpenAIBatchSize = 2048
)

// nativeDimensions lists widths of models that accept a "dimensions" parameter.
var nativeDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
}

// OpenAIEmbedder embeds text with the OpenAI embeddings API.
type OpenAIEmbedder struct {
	*embeddingClient
}

// NewOpenAIEmbedder creates an OpenAIEmbedder from configuration.
func NewOpenAIEmbedder(cfg Config) (*OpenAIEmbedder, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Dimension == 0 {
		cfg.Dimension = DefaultOpenAIDimension
	}
	if cfg.MaxBatchSize == 0 {
		cfg.MaxBatchSize = DefaultOpenAIBatchSize
	}
	if cfg.Metric == "" {
		cfg.Metric = search.MetricCosine
	}

	backend := search.NewBackend(search.BackendOpenAI, cfg.Model, cfg.Dimension, cfg.Metric)
	client, err := newEmbeddingClient(cfg, backend, nil)
	if err != nil {
		return nil, err
	}

	if native, ok := nativeDimensions[cfg.Model]; ok && native != cfg.Dimension {
		client.dimensions = cfg.Dimension
	}

	return &OpenAIEmbedder{embeddingClient: client}, nil
}

var _ search.Embedder = (*OpenAIEmbedder)(nil)
