package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yablochko8/color-finder-semantic-search/application/service"
	"github.com/yablochko8/color-finder-semantic-search/infrastructure/source"
)

type ingestFlags struct {
	file      string
	start     int
	stop      int
	batchSize int
	skipIndex bool
}

func ingestCmd(global *globalFlags) *cobra.Command {
	var flags ingestFlags

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Embed and store colors from a CSV file",
		Long: `Read name,hex[,marker] rows from a CSV file, embed each name with the
active backend and upsert it into the store.

Rows that fail validation, embedding or persistence are reported and skipped.
Interrupting the run (Ctrl-C) stops after the current row and prints the
offset to pass to --start to resume.`,
		Example: `  colorfinder ingest --file colors.csv
  colorfinder ingest --file colors.csv --start 5000 --stop 10000 --batch-size 64`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runIngest(ctx, cmd.OutOrStdout(), global, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "CSV file to ingest (required)")
	cmd.Flags().IntVar(&flags.start, "start", 0, "First row offset to process (0-based, excluding the header)")
	cmd.Flags().IntVar(&flags.stop, "stop", -1, "Row offset to stop before (-1 for the end of the file)")
	cmd.Flags().IntVar(&flags.batchSize, "batch-size", 0, "Rows per embedding request (default: INGEST_BATCH_SIZE)")
	cmd.Flags().BoolVar(&flags.skipIndex, "skip-index", false, "Do not build the vector index after ingesting")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runIngest(ctx context.Context, out io.Writer, global *globalFlags, flags ingestFlags) error {
	_, client, err := openClient(ctx, global)
	if err != nil {
		return err
	}
	defer closeClient(client)

	rows, err := source.ReadFile(flags.file)
	if err != nil {
		return err
	}

	logger := client.Logger()
	logger.InfoContext(ctx, "ingesting colors",
		slog.String("file", flags.file),
		slog.Int("rows", len(rows)),
		slog.String("backend", client.Backend().String()),
	)

	opts := []service.IngestOption{service.WithRange(flags.start, flags.stop)}
	if flags.batchSize > 0 {
		opts = append(opts, service.WithBatchSize(flags.batchSize))
	}

	summary, runErr := client.Ingestion.Run(ctx, rows, opts...)
	if runErr != nil && !summary.Cancelled {
		return fmt.Errorf("ingest: %w", runErr)
	}

	printSummary(out, summary)

	if summary.Cancelled {
		return errors.New("ingestion interrupted")
	}

	if !flags.skipIndex && summary.Succeeded > 0 {
		lists, err := client.EnsureIndex(context.WithoutCancel(ctx))
		if err != nil {
			return fmt.Errorf("build index: %w", err)
		}
		if lists > 0 {
			_, _ = fmt.Fprintf(out, "Index ready (lists=%d)\n", lists)
		}
	}
	return nil
}

func printSummary(out io.Writer, s service.Summary) {
	_, _ = fmt.Fprintf(out, "Rows %d..%d: processed %d, succeeded %d, failed %d in %s\n",
		s.Start, s.Stop, s.Processed, s.Succeeded, s.Failed, s.Elapsed.Round(time.Millisecond))
	for _, f := range s.Failures {
		_, _ = fmt.Fprintf(out, "  row %d %q [%s]: %v\n", f.Index, f.Name, f.Stage, f.Err)
	}
	if s.Cancelled {
		_, _ = fmt.Fprintf(out, "Interrupted. Resume with --start %d\n", s.NextStart())
		return
	}
	_, _ = fmt.Fprintf(out, "Next offset: %d\n", s.NextStart())
}
