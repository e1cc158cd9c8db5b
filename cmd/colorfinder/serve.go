package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yablochko8/color-finder-semantic-search/infrastructure/api"
	"github.com/yablochko8/color-finder-semantic-search/internal/config"
)

const shutdownTimeout = 15 * time.Second

func serveCmd(global *globalFlags) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Routes:
  GET  /health
  GET  /api/v1/search?q=<text>&k=<n>
  POST /api/v1/search   {"query": "<text>", "k": <n>}
  /mcp                  MCP streamable HTTP endpoint (tool: search_colors)`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var overrides []config.AppConfigOption
			if host != "" {
				overrides = append(overrides, config.WithHost(host))
			}
			if port != 0 {
				overrides = append(overrides, config.WithPort(port))
			}
			return runServe(cmd.Context(), global, overrides)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(ctx context.Context, global *globalFlags, overrides []config.AppConfigOption) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, client, err := openClient(ctx, global, overrides...)
	if err != nil {
		return err
	}
	defer closeClient(client)

	logger := client.Logger()
	logger.InfoContext(ctx, "starting colorfinder",
		slog.String("version", version),
		slog.String("backend", client.Backend().String()),
		slog.String("addr", cfg.Addr()),
	)

	apiServer := api.NewAPIServer(client,
		api.WithCORSOrigins(cfg.CORSAllowedOrigins()),
		api.WithVersion(version),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return apiServer.ListenAndServe(cfg.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
