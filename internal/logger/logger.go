// Package logger configures the process-wide structured logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	// EnvVarLogLevel is consulted when no level is configured explicitly.
	EnvVarLogLevel = "LOG_LEVEL"
)

// New returns a JSON logger writing to w, tagged with module and version. AddSource is enabled
// at debug level only.
func New(w io.Writer, module, version, level string) *slog.Logger {
	lev := ParseLogLevel(level)
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     lev,
		AddSource: lev <= slog.LevelDebug,
	})).With("module", module, "version", version)
}

// SetDefault installs a stderr logger as slog's default. An empty level falls back to $LOG_LEVEL.
func SetDefault(module, version, level string) *slog.Logger {
	if strings.TrimSpace(level) == "" {
		level = os.Getenv(EnvVarLogLevel)
	}
	l := New(os.Stderr, module, version, level)
	slog.SetDefault(l)
	return l
}

// ParseLogLevel maps debug|info|warn|error to a slog.Level; anything else is info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
