// internal/logging/logger.go
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Logger is the process-wide diagnostic logger. Progress meant for the user is
// rendered by the report package; Logger carries everything else.
var Logger *slog.Logger

var level = new(slog.LevelVar)

func init() {
	Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// SetLogger replaces the package logger, typically from tests.
func SetLogger(l *slog.Logger) {
	Logger = l
}

// SetDebug toggles debug level output on the default handler.
func SetDebug(on bool) {
	if on {
		level.Set(slog.LevelDebug)
		return
	}
	level.Set(slog.LevelInfo)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
