package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/yablochko8/color-finder-semantic-search/domain/color"
	"github.com/yablochko8/color-finder-semantic-search/domain/search"
)

// concepts maps words to the dimension they activate. The last dimension
// is a constant bias so no vector is all zeros.
var concepts = map[string]int{
	"fast": 0, "speed": 0, "mph": 0, "car": 0, "race": 0, "racing": 0, "rocket": 0, "quick": 0, "100": 0,
	"red": 1, "orange": 1, "fire": 1, "sunset": 1, "rose": 1, "coral": 1,
	"blue": 2, "ocean": 2, "sky": 2, "teal": 2, "ice": 2,
	"green": 3, "forest": 3, "leaf": 3, "moss": 3, "grass": 3,
	"black": 4, "night": 4, "midnight": 4, "shadow": 4, "dark": 4,
	"white": 5, "snow": 5, "cream": 5, "pale": 5, "light": 5,
}

const conceptDimension = 7

var conceptBackend = search.NewBackend(search.BackendOpenAI, "concepts", conceptDimension, search.MetricCosine)

func conceptVector(text string) []float32 {
	v := make([]float32, conceptDimension)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if dim, ok := concepts[word]; ok {
			v[dim]++
		}
	}
	v[conceptDimension-1] = 0.1
	return v
}

// conceptEmbedder embeds text by counting concept words.
type conceptEmbedder struct {
	mu         sync.Mutex
	failItems  map[string]error
	batchErr   error
	calls      [][]string
	inputTypes []search.InputType
}

func (e *conceptEmbedder) Backend() search.Backend { return conceptBackend }

func (e *conceptEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	results, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if !results[0].OK() {
		return nil, results[0].Err
	}
	return results[0].Vector, nil
}

func (e *conceptEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]search.ItemResult, error) {
	e.mu.Lock()
	e.calls = append(e.calls, append([]string(nil), texts...))
	if t, ok := search.InputTypeFrom(ctx); ok {
		e.inputTypes = append(e.inputTypes, t)
	}
	batchErr := e.batchErr
	e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if batchErr != nil {
		return nil, batchErr
	}
	results := make([]search.ItemResult, len(texts))
	for i, text := range texts {
		if err, ok := e.failItems[text]; ok {
			results[i] = search.ItemResult{Index: i, Err: err}
			continue
		}
		results[i] = search.ItemResult{Index: i, Vector: conceptVector(text)}
	}
	return results, nil
}

func (e *conceptEmbedder) embeddedTexts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var all []string
	for _, c := range e.calls {
		all = append(all, c...)
	}
	return all
}

func (e *conceptEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

var errWriteFailed = errors.New("write failed")

// failingStore rejects upserts for selected names.
type failingStore struct {
	color.Store
	failNames map[string]bool
}

func (s failingStore) Upsert(ctx context.Context, c color.Color, column string, vector []float32) (color.Color, error) {
	if s.failNames[c.Name()] {
		return color.Color{}, errWriteFailed
	}
	return s.Store.Upsert(ctx, c, column, vector)
}

// memoryCache is a map-backed QueryCache.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]float32
	getErr  error
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]float32{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, vector []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = vector
	c.sets++
	return nil
}

var zeroTime time.Time
