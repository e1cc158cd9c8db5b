package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/server"

	colorfinder "github.com/yablochko8/color-finder-semantic-search"
	apimiddleware "github.com/yablochko8/color-finder-semantic-search/infrastructure/api/middleware"
	v1 "github.com/yablochko8/color-finder-semantic-search/infrastructure/api/v1"
	mcpinternal "github.com/yablochko8/color-finder-semantic-search/internal/mcp"
)

// DefaultRequestTimeout bounds /api/v1 requests.
const DefaultRequestTimeout = 60 * time.Second

// APIServerOption configures an APIServer.
type APIServerOption func(*APIServer)

// WithCORSOrigins sets the allowed CORS origins. An empty list disables CORS.
func WithCORSOrigins(origins []string) APIServerOption {
	return func(a *APIServer) {
		a.corsOrigins = origins
	}
}

// WithVersion sets the version reported by the MCP endpoint.
func WithVersion(version string) APIServerOption {
	return func(a *APIServer) {
		a.version = version
	}
}

// WithRequestTimeout sets the /api/v1 request timeout.
func WithRequestTimeout(d time.Duration) APIServerOption {
	return func(a *APIServer) {
		a.requestTimeout = d
	}
}

// APIServer provides an HTTP API backed by a colorfinder Client.
type APIServer struct {
	client         *colorfinder.Client
	corsOrigins    []string
	version        string
	requestTimeout time.Duration
	logger         *slog.Logger

	mu     sync.Mutex
	server *Server
}

// NewAPIServer creates a new APIServer wired to the given Client.
func NewAPIServer(client *colorfinder.Client, opts ...APIServerOption) *APIServer {
	a := &APIServer{
		client:         client,
		version:        "dev",
		requestTimeout: DefaultRequestTimeout,
		logger:         client.Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// mountRoutes wires /api/v1 and /mcp onto router.
func (a *APIServer) mountRoutes(router chi.Router) {
	searchRouter := v1.NewSearchRouter(a.client.Search, a.logger)
	mcpSrv := mcpinternal.NewServer(a.client.Search, a.version, a.logger)

	router.Group(func(router chi.Router) {
		if len(a.corsOrigins) > 0 {
			router.Use(cors.Handler(cors.Options{
				AllowedOrigins: a.corsOrigins,
				AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
				AllowedHeaders: []string{"Accept", "Content-Type", apimiddleware.CorrelationIDHeader, "Mcp-Session-Id", "Mcp-Protocol-Version"},
				ExposedHeaders: []string{apimiddleware.CorrelationIDHeader, "Mcp-Session-Id"},
				MaxAge:         300,
			}))
		}

		router.Route("/api/v1", func(r chi.Router) {
			r.Use(chimiddleware.Timeout(a.requestTimeout))
			r.Mount("/search", searchRouter.Routes())
		})

		// The streamable transport manages its own session headers and
		// cannot sit behind chi's Timeout writer.
		router.Mount("/mcp", server.NewStreamableHTTPServer(mcpSrv.MCPServer()))
	})
}

// Handler returns the full route tree as an http.Handler, for tests and
// custom servers.
func (a *APIServer) Handler() http.Handler {
	srv := NewServer("", a.logger)
	a.mountRoutes(srv.Router())
	return srv.Router()
}

// ListenAndServe starts the HTTP server on the given address and blocks
// until Shutdown.
func (a *APIServer) ListenAndServe(addr string) error {
	srv := NewServer(addr, a.logger)
	a.mountRoutes(srv.Router())

	a.mu.Lock()
	a.server = &srv
	a.mu.Unlock()

	return srv.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	srv := a.server
	a.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
