// Package mcp provides Model Context Protocol server functionality.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/yablochko8/color-finder-semantic-search/domain/search"
)

// Searcher runs free-text color searches for MCP tools.
type Searcher interface {
	Query(ctx context.Context, request search.Request) (search.Result, error)
}

// Server wraps the MCP server with the color search tool.
type Server struct {
	mcpServer *server.MCPServer
	searcher  Searcher
	logger    *slog.Logger
}

// NewServer creates a new MCP server backed by searcher.
func NewServer(searcher Searcher, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		searcher: searcher,
		logger:   logger,
	}

	mcpServer := server.NewMCPServer(
		"colorfinder",
		version,
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	searchTool := mcp.NewTool("search_colors",
		mcp.WithDescription("Find named colors whose names are semantically closest to a free-text description"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Free-text description, e.g. \"very fast car\""),
		),
		mcp.WithNumber("k",
			mcp.Description(fmt.Sprintf("Number of colors to return (default: %d, max: %d)", search.DefaultLimit, search.MaxLimit)),
		),
	)

	mcpServer.AddTool(searchTool, s.handleSearchColors)
}

type colorResult struct {
	Name      string  `json:"name"`
	Hex       string  `json:"hex"`
	IsCurated bool    `json:"is_curated"`
	Distance  float64 `json:"distance"`
}

func (s *Server) handleSearchColors(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query is required"), nil
	}

	k := request.GetInt("k", 0)

	result, err := s.searcher.Query(ctx, search.NewRequest(query, k))
	if errors.Is(err, search.ErrNoData) {
		return mcp.NewToolResultText("[]"), nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "color search failed", slog.String("query", query), slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	matches := result.Matches()
	results := make([]colorResult, len(matches))
	for i, m := range matches {
		c := m.Color()
		results[i] = colorResult{
			Name:      c.Name(),
			Hex:       c.HexWithMarker(),
			IsCurated: c.Curated(),
			Distance:  m.Distance(),
		}
	}

	jsonBytes, err := json.Marshal(results)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}

	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdin/stdout until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}
