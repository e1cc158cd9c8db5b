package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	colorfinder "github.com/yablochko8/color-finder-semantic-search"
	"github.com/yablochko8/color-finder-semantic-search/domain/search"
	"github.com/yablochko8/color-finder-semantic-search/infrastructure/api"
	"github.com/yablochko8/color-finder-semantic-search/infrastructure/api/v1/dto"
	"github.com/yablochko8/color-finder-semantic-search/infrastructure/source"
	"github.com/yablochko8/color-finder-semantic-search/internal/config"
	"github.com/yablochko8/color-finder-semantic-search/internal/log"
)

var vowelBackend = search.NewBackend(search.BackendOpenAI, "vowels", 3, search.MetricCosine)

type vowelEmbedder struct{}

func (vowelEmbedder) Backend() search.Backend { return vowelBackend }

func (e vowelEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	results, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return results[0].Vector, results[0].Err
}

func (vowelEmbedder) EmbedBatch(_ context.Context, texts []string) ([]search.ItemResult, error) {
	results := make([]search.ItemResult, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		results[i] = search.ItemResult{Index: i, Vector: []float32{
			float32(strings.Count(lower, "a")) + 0.1,
			float32(strings.Count(lower, "e")) + 0.1,
			float32(strings.Count(lower, "o")) + 0.1,
		}}
	}
	return results, nil
}

func newHandler(t *testing.T, opts ...api.APIServerOption) http.Handler {
	t.Helper()
	ctx := context.Background()

	client, err := colorfinder.New(ctx,
		colorfinder.WithSQLite(filepath.Join(t.TempDir(), "colors.db")),
		colorfinder.WithEmbedder(vowelEmbedder{}),
		colorfinder.WithLogger(log.Discard()),
		colorfinder.WithIngestConfig(config.NewIngestConfig().WithRequestDelay(0).WithLongPause(0, 0)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	rows, err := source.Read(strings.NewReader("name,hex,good\nBanana,#ffe135,x\nLemon,#fff700,\nOboe,#123456,\n"))
	require.NoError(t, err)
	_, err = client.Ingestion.Run(ctx, rows)
	require.NoError(t, err)

	return api.NewAPIServer(client, opts...).Handler()
}

func TestAPIServer_Search(t *testing.T) {
	handler := newHandler(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=banana&k=2", nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body dto.SearchResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "Banana", body.Data[0].Name)
	assert.Equal(t, "#ffe135", body.Data[0].Hex)
	assert.True(t, body.Data[0].IsCurated)
	assert.LessOrEqual(t, body.Data[0].Distance, body.Data[1].Distance)
	assert.Equal(t, "openai", body.Meta.Backend)
}

func TestAPIServer_SearchPost(t *testing.T) {
	handler := newHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(`{"query":"oboe"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body dto.SearchResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Len(t, body.Data, 3)
	assert.Equal(t, "Oboe", body.Data[0].Name)
}

func TestAPIServer_InvalidLimit(t *testing.T) {
	handler := newHandler(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=banana&k=0", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=banana&k=-1", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIServer_Health(t *testing.T) {
	handler := newHandler(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIServer_CORS(t *testing.T) {
	handler := newHandler(t, api.WithCORSOrigins([]string{"https://palette.example"}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/search", nil)
	req.Header.Set("Origin", "https://palette.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "https://palette.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPIServer_MCPInitialize(t *testing.T) {
	handler := newHandler(t, api.WithVersion("9.9.9"))

	payload := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"name":"colorfinder"`)
	assert.Contains(t, w.Body.String(), `"version":"9.9.9"`)
}
