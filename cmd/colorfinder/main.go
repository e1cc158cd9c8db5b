// Package main is the entry point for the colorfinder CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every command that touches the store.
type globalFlags struct {
	envFile  string
	backend  string
	dbURL    string
	logLevel string
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "colorfinder",
		Short: "Semantic search over named colors",
		Long: `colorfinder embeds color names with a text embedding model and finds the
colors whose names are closest in meaning to a free-text description.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (--env-file, or .env in the current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  DATA_DIR                     Data directory (default: ~/.colorfinder)
  DB_URL                       sqlite:///path or postgres:// URL (default: sqlite:///{DATA_DIR}/colors.db)
  DB_*                         MAX_OPEN_CONNS, MAX_IDLE_CONNS, CONN_MAX_LIFETIME (postgres pool)
  LOG_LEVEL                    DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                   pretty, json (default: pretty)
  EMBEDDING_BACKEND            openai, voyage (default: openai)
  OPENAI_* / VOYAGE_*          API_KEY, BASE_URL, MODEL, DIMENSION, TIMEOUT, MAX_RETRIES,
                               INITIAL_DELAY, BACKOFF_FACTOR, MAX_BATCH_SIZE
  INGEST_*                     BATCH_SIZE, REQUEST_DELAY, LONG_PAUSE_EVERY, LONG_PAUSE, REPORT_EVERY
  SEARCH_*                     LIMIT, PROBES, TIMEOUT, TIMEOUT_RETRIES
  INDEX_LISTS                  ivfflat cluster count (default: 100, 0 = from row count)
  HTTP_CACHE_DIR               Cache embedding HTTP responses on disk
  QUERY_CACHE_REDIS_URL        Cache query embeddings in Redis
  HOST, PORT                   serve listen address (default: 0.0.0.0:8080)`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	pf.StringVar(&flags.backend, "backend", "", "Embedding backend: openai, voyage")
	pf.StringVar(&flags.dbURL, "db-url", "", "Database URL")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level")

	cmd.AddCommand(ingestCmd(&flags))
	cmd.AddCommand(indexCmd(&flags))
	cmd.AddCommand(searchCmd(&flags))
	cmd.AddCommand(listCmd(&flags))
	cmd.AddCommand(serveCmd(&flags))
	cmd.AddCommand(stdioCmd(&flags))
	cmd.AddCommand(versionCmd())

	return cmd
}
