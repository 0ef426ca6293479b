package config

import (
	"log/slog"
	"os"
)

// NewLogger builds the structured logger the CLI collaborator uses for its
// own diagnostics (config errors, file-not-found, cache I/O failures): one
// leveled logger writing key=value pairs to stderr, in the style this
// corpus's CLI wrapper uses for its own diagnostic output.
func NewLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	if level == "debug" {
		lvl = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(h)
}
