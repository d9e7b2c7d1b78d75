package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	EnvLogLevel = "HOSTSPIPE_LOG_LEVEL"

	// LevelOff is above every level slog emits
	LevelOff = slog.Level(100)
)

// Initialize installs the default logger with the level from HOSTSPIPE_LOG_LEVEL.
// Logging is off if the variable is unset.
func Initialize(appName string) {
	InitializeWithLevel(appName, os.Getenv(EnvLogLevel))
}

// InitializeWithLevel installs the default logger with an explicit level name
func InitializeWithLevel(appName string, level string) {
	slog.SetDefault(NewLogger(appName, os.Stderr, ParseLevel(level)))
}

// NewLogger returns a JSON logger tagged with the app name
func NewLogger(appName string, w io.Writer, level slog.Level) *slog.Logger {
	if level == LevelOff {
		return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	}

	handlerOptions := &slog.HandlerOptions{
		Level: level,
	}
	return slog.New(slog.NewJSONHandler(w, handlerOptions)).With("source", appName)
}

// ParseLevel converts a level name to a slog level. Unknown names turn logging off.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace", "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return LevelOff
	}
}
