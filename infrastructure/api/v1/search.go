// Package v1 implements the version 1 HTTP API routes.
package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yablochko8/color-finder-semantic-search/domain/search"
	"github.com/yablochko8/color-finder-semantic-search/infrastructure/api/middleware"
	"github.com/yablochko8/color-finder-semantic-search/infrastructure/api/v1/dto"
)

const maxBodyBytes = 1 << 20

// Searcher runs free-text color searches.
type Searcher interface {
	Query(ctx context.Context, request search.Request) (search.Result, error)
}

// SearchRouter handles search API endpoints.
type SearchRouter struct {
	searcher Searcher
	logger   *slog.Logger
}

// NewSearchRouter creates a new SearchRouter.
func NewSearchRouter(searcher Searcher, logger *slog.Logger) *SearchRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchRouter{
		searcher: searcher,
		logger:   logger,
	}
}

// Routes returns the chi router for search endpoints.
func (r *SearchRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.SearchQuery)
	router.Post("/", r.Search)

	return router
}

// SearchQuery handles GET /api/v1/search?q=...&k=...
func (r *SearchRouter) SearchQuery(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()

	k := 0
	if raw := q.Get("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			middleware.WriteError(w, req, fmt.Errorf("%w: k=%q", search.ErrInvalidLimit, raw), r.logger)
			return
		}
		k = n
	}

	r.respond(w, req, search.NewRequest(q.Get("q"), k))
}

// Search handles POST /api/v1/search.
func (r *SearchRouter) Search(w http.ResponseWriter, req *http.Request) {
	var body dto.SearchRequest
	dec := json.NewDecoder(io.LimitReader(req.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		middleware.WriteError(w, req, fmt.Errorf("%w: %v", middleware.ErrBadRequest, err), r.logger)
		return
	}

	r.respond(w, req, search.NewRequest(body.Query, body.K))
}

func (r *SearchRouter) respond(w http.ResponseWriter, req *http.Request, request search.Request) {
	result, err := r.searcher.Query(req.Context(), request)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, toSearchResponse(result))
}

func toSearchResponse(result search.Result) dto.SearchResponse {
	matches := result.Matches()
	data := make([]dto.ColorMatch, len(matches))
	for i, m := range matches {
		c := m.Color()
		data[i] = dto.ColorMatch{
			Name:      c.Name(),
			Hex:       c.HexWithMarker(),
			IsCurated: c.Curated(),
			Distance:  m.Distance(),
		}
	}

	backend := result.Backend()
	return dto.SearchResponse{
		Data: data,
		Meta: dto.SearchMeta{
			Query:     result.Query(),
			Backend:   backend.Name(),
			Model:     backend.Model(),
			Count:     len(data),
			ElapsedMS: result.Elapsed().Milliseconds(),
		},
	}
}
