// Package logger builds the process logger of the commands.
// Level and format are read from the LOG_LEVEL and LOG_FORMAT environment variables.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup creates a logger writing to w.
func Setup(w io.Writer) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
