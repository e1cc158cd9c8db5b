package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yablochko8/color-finder-semantic-search/internal/mcp"
)

func stdioCmd(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Start MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

This lets AI assistants call the search_colors tool. Logs go to stderr;
stdout carries only protocol messages.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, client, err := openClient(ctx, global)
			if err != nil {
				return err
			}
			defer closeClient(client)

			logger := client.Logger()
			logger.InfoContext(ctx, "starting MCP server",
				slog.String("version", version),
				slog.String("backend", client.Backend().String()),
			)

			err = mcp.NewServer(client.Search, version, logger).ServeStdio(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
