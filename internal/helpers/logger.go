package helpers

import (
	"io"
	"log/slog"
	"os"
)

// NewNoopLogger returns a logger that discards every record.
func NewNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewLogger returns a JSON logger writing to stdout. Each verbosity step lowers the level by one slog level, starting at Warn.
func NewLogger(verbosity int, callerTrace bool) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: callerTrace,
		Level:     slog.LevelWarn - slog.Level(verbosity*4),
	}))
}
