// Package search defines embedding backends, the embedder contract and
// nearest-neighbor query types.
package search

import (
	"fmt"
	"math"
	"strings"
)

// Backend names.
const (
	BackendOpenAI = "openai"
	BackendVoyage = "voyage"
)

// Metric is a vector distance function. Smaller distances are closer.
type Metric string

// Supported metrics.
const (
	MetricCosine       Metric = "cosine"
	MetricL2           Metric = "l2"
	MetricInnerProduct Metric = "inner_product"
)

// ParseMetric returns the metric for s.
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown metric %q", s)
	}
	return m, nil
}

// Valid reports whether m is a supported metric.
func (m Metric) Valid() bool {
	switch m {
	case MetricCosine, MetricL2, MetricInnerProduct:
		return true
	}
	return false
}

// Operator returns the pgvector distance operator.
func (m Metric) Operator() string {
	switch m {
	case MetricL2:
		return "<->"
	case MetricInnerProduct:
		return "<#>"
	default:
		return "<=>"
	}
}

// OpClass returns the pgvector operator class used when building an index.
func (m Metric) OpClass() string {
	switch m {
	case MetricL2:
		return "vector_l2_ops"
	case MetricInnerProduct:
		return "vector_ip_ops"
	default:
		return "vector_cosine_ops"
	}
}

// Distance computes the metric exactly, matching pgvector's operators:
// cosine distance is 1 - cos(a, b) and inner product is negated.
func (m Metric) Distance(a, b []float32) float64 {
	var dot, normA, normB, sq float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
		d := x - y
		sq += d * d
	}
	switch m {
	case MetricL2:
		return math.Sqrt(sq)
	case MetricInnerProduct:
		return -dot
	default:
		if normA == 0 || normB == 0 {
			return math.NaN()
		}
		return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
	}
}

// Backend identifies one embedding provider configuration. Every stored
// vector and every query vector belongs to exactly one backend, and is
// only compared under that backend's metric.
type Backend struct {
	name      string
	model     string
	dimension int
	metric    Metric
}

// NewBackend creates a Backend.
func NewBackend(name, model string, dimension int, metric Metric) Backend {
	return Backend{
		name:      name,
		model:     model,
		dimension: dimension,
		metric:    metric,
	}
}

// Name returns the backend name.
func (b Backend) Name() string { return b.name }

// Model returns the embedding model identifier.
func (b Backend) Model() string { return b.model }

// Dimension returns the vector width.
func (b Backend) Dimension() int { return b.dimension }

// Metric returns the distance metric.
func (b Backend) Metric() Metric { return b.metric }

// Column returns the store column holding this backend's vectors.
func (b Backend) Column() string { return "embedding_" + b.name }

// String returns name/model.
func (b Backend) String() string { return b.name + "/" + b.model }
