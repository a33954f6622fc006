// Package logging configures the structured logger shared by the
// service and the batch runner.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds the logger settings.
type Config struct {
	Level     string `yaml:"level"`  // debug, info, warn, error
	Format    string `yaml:"format"` // json or text
	Service   string `yaml:"service"`
	Component string `yaml:"component"`
	AddSource bool   `yaml:"add_source"`
}

// New builds a slog.Logger per the config, writing to w (os.Stdout when
// nil). Service and component names are attached to every record.
func New(config Config, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     parseLevel(config.Level),
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	switch strings.ToLower(config.Format) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler)
	if config.Service != "" {
		logger = logger.With("service", config.Service)
	}
	if config.Component != "" {
		logger = logger.With("component", config.Component)
	}
	return logger
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
