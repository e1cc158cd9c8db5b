package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/yablochko8/color-finder-semantic-search/application/service"
	"github.com/yablochko8/color-finder-semantic-search/domain/color"
	"github.com/yablochko8/color-finder-semantic-search/domain/search"
	"github.com/yablochko8/color-finder-semantic-search/internal/config"
)

func testResult() search.Result {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	matches := []search.Match{
		search.NewMatch(color.ReconstructColor(7, "100 Mph", "c93f38", true, created), 0.125),
		search.NewMatch(color.ReconstructColor(3, "Racing Red", "bd162c", false, created), 0.5),
	}
	backend := search.NewBackend(search.BackendOpenAI, "text-embedding-3-small", 1536, search.MetricCosine)
	return search.NewResult("very fast car", backend, matches, 30*time.Millisecond)
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := rootCmd()

	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"ingest", "index", "search", "list", "serve", "stdio", "version"} {
		assert.True(t, names[want], "missing %s command", want)
	}
}

func TestVersionCmd(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "colorfinder version dev")
}

func TestSearchCmd_RejectsUnknownOutput(t *testing.T) {
	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"search", "teal", "--output", "xml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestWriteResult_Table(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeResult(&out, outputTable, testResult()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[1], "100 Mph")
	assert.Contains(t, lines[1], "#c93f38")
	assert.Contains(t, lines[1], "yes")
	assert.Contains(t, lines[1], "0.1250")
	assert.Contains(t, lines[len(lines)-1], `2 results for "very fast car"`)
}

func TestWriteResult_JSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeResult(&out, outputJSON, testResult()))

	var view resultView
	require.NoError(t, json.Unmarshal(out.Bytes(), &view))
	assert.Equal(t, "very fast car", view.Query)
	assert.Equal(t, "openai/text-embedding-3-small", view.Backend)
	require.Len(t, view.Matches, 2)
	assert.Equal(t, matchView{Rank: 2, Name: "Racing Red", Hex: "#bd162c", Distance: 0.5}, view.Matches[1])
}

func TestWriteResult_YAML(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeResult(&out, outputYAML, testResult()))

	var view resultView
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &view))
	require.Len(t, view.Matches, 2)
	assert.Equal(t, "100 Mph", view.Matches[0].Name)
	assert.True(t, view.Matches[0].IsCurated)
	assert.Equal(t, int64(30), view.ElapsedMS)
}

func TestPrintSummary(t *testing.T) {
	var out bytes.Buffer
	printSummary(&out, service.Summary{
		Start:     10,
		Stop:      20,
		Processed: 4,
		Succeeded: 3,
		Failed:    1,
		Failures: []service.RowFailure{
			{Index: 12, Name: "bad", Stage: service.StageValidation, Err: errors.New("hex: not a color")},
		},
		Cancelled: true,
	})

	text := out.String()
	assert.Contains(t, text, "processed 4, succeeded 3, failed 1")
	assert.Contains(t, text, `row 12 "bad" [validation]: hex: not a color`)
	assert.Contains(t, text, "Resume with --start 14")
}

func TestRunIngest_ConfigCheckedBeforeReadingFile(t *testing.T) {
	global := &globalFlags{
		envFile: filepath.Join(t.TempDir(), "missing.env"),
		backend: "cohere",
		dbURL:   "sqlite:///" + filepath.Join(t.TempDir(), "colors.db"),
	}
	missing := filepath.Join(t.TempDir(), "no-such.csv")

	err := runIngest(context.Background(), &bytes.Buffer{}, global, ingestFlags{file: missing, stop: -1})
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrConfiguration)
	assert.NotContains(t, err.Error(), "no-such.csv")
}

func TestRedactDBURL(t *testing.T) {
	assert.Equal(t, "postgres://app:xxxxx@db:5432/colors", redactDBURL("postgres://app:secret@db:5432/colors"))
	assert.Equal(t, "sqlite:///tmp/colors.db", redactDBURL("sqlite:///tmp/colors.db"))
}
