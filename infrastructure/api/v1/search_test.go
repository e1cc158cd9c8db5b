package v1_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yablochko8/color-finder-semantic-search/domain/color"
	"github.com/yablochko8/color-finder-semantic-search/domain/search"
	"github.com/yablochko8/color-finder-semantic-search/infrastructure/api/middleware"
	v1 "github.com/yablochko8/color-finder-semantic-search/infrastructure/api/v1"
	"github.com/yablochko8/color-finder-semantic-search/infrastructure/api/v1/dto"
	"github.com/yablochko8/color-finder-semantic-search/internal/log"
)

type fakeSearcher struct {
	err  error
	last search.Request
}

func (f *fakeSearcher) Query(_ context.Context, request search.Request) (search.Result, error) {
	f.last = request
	if f.err != nil {
		return search.Result{}, f.err
	}
	normalized, err := request.Normalize(10)
	if err != nil {
		return search.Result{}, err
	}
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	matches := []search.Match{
		search.NewMatch(color.ReconstructColor(7, "100 Mph", "c93f38", true, created), 0.12),
		search.NewMatch(color.ReconstructColor(3, "Racing Red", "bd162c", false, created), 0.31),
	}
	backend := search.NewBackend(search.BackendVoyage, "voyage-2", 1024, search.MetricCosine)
	return search.NewResult(normalized.Text(), backend, matches, 42*time.Millisecond), nil
}

func serve(t *testing.T, searcher v1.Searcher, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	router := v1.NewSearchRouter(searcher, log.Discard()).Routes()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeErrors(t *testing.T, w *httptest.ResponseRecorder) middleware.JSONAPIErrorResponse {
	t.Helper()
	var body middleware.JSONAPIErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Len(t, body.Errors, 1)
	return body
}

func TestSearchRouter_Get(t *testing.T) {
	fake := &fakeSearcher{}
	w := serve(t, fake, httptest.NewRequest(http.MethodGet, "/?q=very+fast+car&k=2", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body dto.SearchResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, dto.ColorMatch{Name: "100 Mph", Hex: "#c93f38", IsCurated: true, Distance: 0.12}, body.Data[0])
	assert.Equal(t, "voyage", body.Meta.Backend)
	assert.Equal(t, "voyage-2", body.Meta.Model)
	assert.Equal(t, 2, body.Meta.Count)
	assert.Equal(t, int64(42), body.Meta.ElapsedMS)
	assert.Equal(t, "very fast car", body.Meta.Query)

	assert.Equal(t, "very fast car", fake.last.Text())
	assert.Equal(t, 2, fake.last.Limit())
}

func TestSearchRouter_Post(t *testing.T) {
	fake := &fakeSearcher{}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"query":"ocean at dusk","k":5}`))
	w := serve(t, fake, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ocean at dusk", fake.last.Text())
	assert.Equal(t, 5, fake.last.Limit())
}

func TestSearchRouter_Errors(t *testing.T) {
	tests := []struct {
		name   string
		req    *http.Request
		err    error
		status int
	}{
		{"empty query", httptest.NewRequest(http.MethodGet, "/?q=", nil), nil, http.StatusBadRequest},
		{"non-numeric k", httptest.NewRequest(http.MethodGet, "/?q=teal&k=ten", nil), nil, http.StatusBadRequest},
		{"k too large", httptest.NewRequest(http.MethodGet, "/?q=teal&k=101", nil), nil, http.StatusBadRequest},
		{"malformed body", httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"query":`)), nil, http.StatusBadRequest},
		{"unknown field", httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"q":"teal"}`)), nil, http.StatusBadRequest},
		{"no data", httptest.NewRequest(http.MethodGet, "/?q=teal", nil), search.ErrNoData, http.StatusNotFound},
		{"timeout", httptest.NewRequest(http.MethodGet, "/?q=teal", nil), fmt.Errorf("query: %w", search.ErrSearchTimeout), http.StatusGatewayTimeout},
		{"embedding", httptest.NewRequest(http.MethodGet, "/?q=teal", nil), fmt.Errorf("%w: 503", search.ErrEmbedding), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, &fakeSearcher{err: tt.err}, tt.req)
			require.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/vnd.api+json", w.Header().Get("Content-Type"))
			body := decodeErrors(t, w)
			assert.Equal(t, http.StatusText(tt.status), body.Errors[0].Status)
		})
	}
}
