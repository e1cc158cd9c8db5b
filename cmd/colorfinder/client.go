package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	colorfinder "github.com/yablochko8/color-finder-semantic-search"
	"github.com/yablochko8/color-finder-semantic-search/internal/config"
	"github.com/yablochko8/color-finder-semantic-search/internal/log"
)

// loadConfig loads and validates configuration with flag overrides applied.
func loadConfig(flags *globalFlags, extra ...config.AppConfigOption) (config.AppConfig, error) {
	var overrides []config.AppConfigOption
	if flags.backend != "" {
		overrides = append(overrides, config.WithEmbeddingBackend(flags.backend))
	}
	if flags.dbURL != "" {
		overrides = append(overrides, config.WithDBURL(flags.dbURL))
	}
	if flags.logLevel != "" {
		overrides = append(overrides, config.WithLogLevel(flags.logLevel))
	}
	overrides = append(overrides, extra...)

	cfg, err := config.LoadConfig(flags.envFile, overrides...)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openClient loads configuration, configures logging, and builds a Client.
// The caller closes the client.
func openClient(ctx context.Context, flags *globalFlags, extra ...config.AppConfigOption) (config.AppConfig, *colorfinder.Client, error) {
	cfg, err := loadConfig(flags, extra...)
	if err != nil {
		return config.AppConfig{}, nil, err
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return config.AppConfig{}, nil, fmt.Errorf("create data directory: %w", err)
	}

	logger := log.Configure(cfg)

	opts, err := colorfinder.OptionsFromConfig(ctx, cfg, logger)
	if err != nil {
		return config.AppConfig{}, nil, err
	}

	client, err := colorfinder.New(ctx, opts...)
	if err != nil {
		return config.AppConfig{}, nil, fmt.Errorf("create client: %w", err)
	}

	logger.DebugContext(ctx, "client ready",
		slog.String("backend", client.Backend().String()),
		slog.String("db", redactDBURL(cfg.DBURL())),
	)
	return cfg, client, nil
}

func closeClient(client *colorfinder.Client) {
	if err := client.Close(); err != nil {
		client.Logger().Error("failed to close client", slog.Any("error", err))
	}
}

// redactDBURL hides any password in a postgres URL.
func redactDBURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
