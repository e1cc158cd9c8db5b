package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yablochko8/color-finder-semantic-search/domain/search"
)

// Output formats for search results.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func searchCmd(global *globalFlags) *cobra.Command {
	var (
		k      int
		output string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find the colors whose names best match a description",
		Example: `  colorfinder search "very fast car"
  colorfinder search "ocean at dusk" -k 5 --output json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch output {
			case outputTable, outputJSON, outputYAML:
			default:
				return fmt.Errorf("unknown output format %q (want table, json or yaml)", output)
			}

			ctx := cmd.Context()
			_, client, err := openClient(ctx, global)
			if err != nil {
				return err
			}
			defer closeClient(client)

			result, err := client.Search.Query(ctx, search.NewRequest(strings.Join(args, " "), k))
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), output, result)
		},
	}

	cmd.Flags().IntVarP(&k, "k", "k", 0, fmt.Sprintf("Number of results (default: SEARCH_LIMIT, max %d)", search.MaxLimit))
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table, json, yaml")

	return cmd
}

type resultView struct {
	Query     string      `json:"query" yaml:"query"`
	Backend   string      `json:"backend" yaml:"backend"`
	ElapsedMS int64       `json:"elapsed_ms" yaml:"elapsed_ms"`
	Matches   []matchView `json:"matches" yaml:"matches"`
}

type matchView struct {
	Rank      int     `json:"rank" yaml:"rank"`
	Name      string  `json:"name" yaml:"name"`
	Hex       string  `json:"hex" yaml:"hex"`
	IsCurated bool    `json:"is_curated" yaml:"is_curated"`
	Distance  float64 `json:"distance" yaml:"distance"`
}

func newResultView(result search.Result) resultView {
	matches := result.Matches()
	view := resultView{
		Query:     result.Query(),
		Backend:   result.Backend().String(),
		ElapsedMS: result.Elapsed().Milliseconds(),
		Matches:   make([]matchView, len(matches)),
	}
	for i, m := range matches {
		c := m.Color()
		view.Matches[i] = matchView{
			Rank:      i + 1,
			Name:      c.Name(),
			Hex:       c.HexWithMarker(),
			IsCurated: c.Curated(),
			Distance:  m.Distance(),
		}
	}
	return view
}

func writeResult(out io.Writer, format string, result search.Result) error {
	view := newResultView(result)

	switch format {
	case outputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	case outputYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return err
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tNAME\tHEX\tCURATED\tDISTANCE")
	for _, m := range view.Matches {
		curated := ""
		if m.IsCurated {
			curated = "yes"
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.4f\n", m.Rank, m.Name, m.Hex, curated, m.Distance)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\n%d results for %q via %s in %dms\n", len(view.Matches), view.Query, view.Backend, view.ElapsedMS)
	return err
}
