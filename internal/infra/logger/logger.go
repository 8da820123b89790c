package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"meilisearch-mcp/internal/infra/config"
)

// New creates a configured *slog.Logger.
// The returned closer function should be deferred to flush/close file handles.
// Stdout is never used: it carries the MCP protocol stream.
func New(cfg config.LoggerConfig) (*slog.Logger, func() error, error) {
	if strings.EqualFold(cfg.Output, "stdout") {
		return nil, nil, fmt.Errorf("open log output: stdout is reserved for the protocol stream")
	}
	writer, closer, err := openOutput(cfg.LogFile())
	if err != nil {
		return nil, nil, fmt.Errorf("open log output: %w", err)
	}

	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(writer, opts)
	default:
		handler = slog.NewTextHandler(writer, opts)
	}

	return slog.New(handler).With("service", "meilisearch-mcp"), closer, nil
}

// parseLevel converts a string level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openOutput returns stderr for an empty path, otherwise an append-only file.
// The parent directory is created on demand.
func openOutput(path string) (io.Writer, func() error, error) {
	noop := func() error { return nil }

	if path == "" {
		return os.Stderr, noop, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
