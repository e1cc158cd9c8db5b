package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func indexCmd(global *globalFlags) *cobra.Command {
	var lists int

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the approximate nearest-neighbor index for the active backend",
		Long: `Create the ivfflat index on the active backend's embedding column if it
does not exist. On SQLite this is a no-op; searches there are exact.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if lists < 0 {
				return fmt.Errorf("--lists must not be negative")
			}

			_, client, err := openClient(ctx, global)
			if err != nil {
				return err
			}
			defer closeClient(client)

			var n int
			if cmd.Flags().Changed("lists") {
				n, err = client.Indexer.Ensure(ctx, client.Backend(), lists)
			} else {
				n, err = client.EnsureIndex(ctx)
			}
			if err != nil {
				return fmt.Errorf("build index: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Index ready on %s (lists=%d)\n", client.Backend().Column(), n)
			return nil
		},
	}

	cmd.Flags().IntVar(&lists, "lists", 0, "ivfflat lists (default: INDEX_LISTS, 0 = derive from row count)")

	return cmd
}
