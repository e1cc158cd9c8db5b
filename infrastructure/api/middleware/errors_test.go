package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yablochko8/color-finder-semantic-search/domain/color"
	"github.com/yablochko8/color-finder-semantic-search/domain/search"
	"github.com/yablochko8/color-finder-semantic-search/internal/log"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"bad request", fmt.Errorf("%w: unexpected EOF", ErrBadRequest), http.StatusBadRequest},
		{"empty query", search.ErrEmptyQuery, http.StatusBadRequest},
		{"invalid limit", fmt.Errorf("%w: 500", search.ErrInvalidLimit), http.StatusBadRequest},
		{"validation", &color.ValidationError{Field: "hex", Reason: "bad"}, http.StatusBadRequest},
		{"no data", search.ErrNoData, http.StatusNotFound},
		{"timeout", fmt.Errorf("query: %w", search.ErrSearchTimeout), http.StatusGatewayTimeout},
		{"embedding", fmt.Errorf("%w: 503", search.ErrEmbedding), http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := StatusFor(tt.err)
			if got != tt.want {
				t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestWriteError_JSONAPIBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search", nil)
	req = req.WithContext(log.WithCorrelationID(req.Context(), "corr-1"))
	w := httptest.NewRecorder()

	WriteError(w, req, search.ErrNoData, log.Discard())

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/vnd.api+json" {
		t.Errorf("content type = %q", ct)
	}

	var body JSONAPIErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(body.Errors))
	}
	got := body.Errors[0]
	if got.Status != "Not Found" || got.Title != "Not Found" || got.ID != "corr-1" {
		t.Errorf("unexpected error object: %+v", got)
	}
	if got.Detail != search.ErrNoData.Error() {
		t.Errorf("detail = %q", got.Detail)
	}
}

func TestCorrelationID(t *testing.T) {
	var seen string
	handler := CorrelationID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = log.CorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CorrelationIDHeader, "abc-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if seen != "abc-123" {
		t.Errorf("context id = %q, want abc-123", seen)
	}
	if got := w.Header().Get(CorrelationIDHeader); got != "abc-123" {
		t.Errorf("response header = %q, want abc-123", got)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || seen == "abc-123" {
		t.Errorf("expected a generated id, got %q", seen)
	}
	if w.Header().Get(CorrelationIDHeader) != seen {
		t.Error("generated id should be echoed in the response header")
	}
}
