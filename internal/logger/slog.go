package logger

import (
	"io"
	"log/slog"
)

// New returns a text logger on w. Verbose enables debug output; otherwise
// only warnings and errors are written so normal runs stay quiet.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Setup builds a logger with New and installs it as the slog default.
func Setup(w io.Writer, verbose bool) *slog.Logger {
	l := New(w, verbose)
	slog.SetDefault(l)
	return l
}
