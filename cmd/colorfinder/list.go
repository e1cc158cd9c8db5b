package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yablochko8/color-finder-semantic-search/domain/color"
	"github.com/yablochko8/color-finder-semantic-search/domain/repository"
)

type listFlags struct {
	id       int64
	limit    int
	offset   int
	newest   bool
	curated  bool
	embedded bool
	output   string
}

func listCmd(global *globalFlags) *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Page through stored colors",
		Example: `  colorfinder list --limit 20 --offset 40
  colorfinder list --curated --newest --output json
  colorfinder list --id 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := listOptions(flags)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			_, client, err := openClient(ctx, global)
			if err != nil {
				return err
			}
			defer closeClient(client)

			if flags.embedded {
				opts = append(opts, color.WithEmbedded(client.Backend().Column()))
			}
			return runList(ctx, cmd.OutOrStdout(), client.Colors, flags.output, opts)
		},
	}

	cmd.Flags().Int64Var(&flags.id, "id", 0, "Show only the color with this id")
	cmd.Flags().IntVar(&flags.limit, "limit", 50, "Colors per page")
	cmd.Flags().IntVar(&flags.offset, "offset", 0, "Colors to skip")
	cmd.Flags().BoolVar(&flags.newest, "newest", false, "Most recently added first")
	cmd.Flags().BoolVar(&flags.curated, "curated", false, "Only curated colors")
	cmd.Flags().BoolVar(&flags.embedded, "embedded", false, "Only colors embedded by the active backend")
	cmd.Flags().StringVarP(&flags.output, "output", "o", outputTable, "Output format: table, json, yaml")

	return cmd
}

// listOptions turns flags into store query options. Pages are ordered by
// id, or by created_at descending with --newest.
func listOptions(flags listFlags) ([]repository.Option, error) {
	switch flags.output {
	case outputTable, outputJSON, outputYAML:
	default:
		return nil, fmt.Errorf("unknown output format %q (want table, json or yaml)", flags.output)
	}
	if flags.limit <= 0 {
		return nil, fmt.Errorf("--limit must be positive")
	}
	if flags.offset < 0 {
		return nil, fmt.Errorf("--offset must not be negative")
	}

	var opts []repository.Option
	if flags.id > 0 {
		opts = append(opts, repository.WithID(flags.id))
	}
	if flags.curated {
		opts = append(opts, color.WithCurated(true))
	}
	if flags.newest {
		opts = append(opts, repository.WithOrderDesc("created_at"))
	}
	opts = append(opts,
		repository.WithOrderAsc("id"),
		repository.WithLimit(flags.limit),
		repository.WithOffset(flags.offset),
	)
	return opts, nil
}

func runList(ctx context.Context, out io.Writer, store color.Store, format string, opts []repository.Option) error {
	colors, err := store.Find(ctx, opts...)
	if err != nil {
		return fmt.Errorf("list colors: %w", err)
	}
	return writeColors(out, format, colors)
}

type colorView struct {
	ID        int64  `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Hex       string `json:"hex" yaml:"hex"`
	IsCurated bool   `json:"is_curated" yaml:"is_curated"`
	CreatedAt string `json:"created_at" yaml:"created_at"`
}

func writeColors(out io.Writer, format string, colors []color.Color) error {
	views := make([]colorView, len(colors))
	for i, c := range colors {
		views[i] = colorView{
			ID:        c.ID(),
			Name:      c.Name(),
			Hex:       c.HexWithMarker(),
			IsCurated: c.Curated(),
			CreatedAt: c.CreatedAt().UTC().Format("2006-01-02T15:04:05Z"),
		}
	}

	switch format {
	case outputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	case outputYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(views); err != nil {
			return err
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tHEX\tCURATED\tCREATED")
	for _, v := range views {
		curated := ""
		if v.IsCurated {
			curated = "yes"
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", v.ID, v.Name, v.Hex, curated, v.CreatedAt)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\n%d colors\n", len(views))
	return err
}
