package app

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// ParseLogLevel parses a level name. Unknown names map to info.
func ParseLogLevel(s string) slog.Level {
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

// LoggerConfig configures the logger.
type LoggerConfig struct {
	// Level is the minimum level name to output.
	Level string
	// Format is "text" or "json".
	Format string
	// Output is where logs are written. Defaults to os.Stderr.
	Output io.Writer
}

// DefaultLoggerConfig returns the default logger configuration.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:  "info",
		Format: LogFormatText,
		Output: os.Stderr,
	}
}

// NewLogger creates a structured logger.
func NewLogger(cfg LoggerConfig) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLogLevel(cfg.Level)}

	var h slog.Handler
	if cfg.Format == LogFormatJSON {
		h = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		h = slog.NewTextHandler(cfg.Output, opts)
	}
	return slog.New(h).With("app", "playercore")
}

// NullLogger discards all output.
var NullLogger = slog.New(slog.DiscardHandler)
