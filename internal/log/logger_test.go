package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/yablochko8/color-finder-semantic-search/internal/config"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, config.LogFormatJSON, "DEBUG")

	logger.Debug("embedded", "row", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "embedded" {
		t.Errorf("expected msg=embedded, got %v", entry["msg"])
	}
	if entry["row"] != float64(3) {
		t.Errorf("expected row=3, got %v", entry["row"])
	}
}

func TestNew_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, config.LogFormatJSON, "WARN")

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered, got %q", buf.String())
	}

	logger.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("expected warn output, got %q", buf.String())
	}
}

func TestNew_CorrelationIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, config.LogFormatJSON, "INFO").With("component", "api")

	ctx := WithCorrelationID(context.Background(), "abc-123")
	logger.InfoContext(ctx, "search")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["correlation_id"] != "abc-123" {
		t.Errorf("expected correlation_id, got %v", entry)
	}
	if entry["component"] != "api" {
		t.Errorf("expected component attr to survive, got %v", entry)
	}

	buf.Reset()
	logger.Info("no context")
	if strings.Contains(buf.String(), "correlation_id") {
		t.Errorf("unexpected correlation_id: %q", buf.String())
	}
}

func TestCorrelationID_NotSet(t *testing.T) {
	if id := CorrelationID(context.Background()); id != "" {
		t.Errorf("expected empty, got %q", id)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" ERROR ", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestConfigure(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	cfg := config.NewAppConfig().Apply(config.WithLogLevel("DEBUG"))
	logger := Configure(cfg)

	if logger == nil {
		t.Fatal("Configure returned nil")
	}
	if slog.Default() != logger {
		t.Error("Configure should install the default logger")
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug to be enabled")
	}
}

func TestDiscard(t *testing.T) {
	if Discard().Enabled(context.Background(), slog.LevelError) {
		t.Error("discard logger should not be enabled")
	}
}
