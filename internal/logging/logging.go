// Package logging configures the process-wide slog logger for typetrace.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the log output encoding.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

var level slog.LevelVar

// Setup installs the default logger writing to stderr and returns a logger
// tagged with the given component name. The level can be changed later with
// SetLevel without rebuilding handlers.
func Setup(lvl string, format Format, component string) *slog.Logger {
	return SetupWriter(os.Stderr, lvl, format, component)
}

// SetupWriter is Setup with an explicit destination, used by tests.
func SetupWriter(w io.Writer, lvl string, format Format, component string) *slog.Logger {
	level.Set(ParseLevel(lvl))

	opts := &slog.HandlerOptions{Level: &level}
	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger.With("component", component)
}

// SetLevel changes the minimum level of all loggers built by Setup.
func SetLevel(lvl string) {
	level.Set(ParseLevel(lvl))
}

// ParseLevel maps a config string to a slog level. Unknown strings fall back
// to info.
func ParseLevel(s string) slog.Level {
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

// ParseFormat maps a config string to a Format. Unknown strings fall back to
// text.
func ParseFormat(s string) Format {
	if strings.ToLower(s) == "json" {
		return FormatJSON
	}
	return FormatText
}
