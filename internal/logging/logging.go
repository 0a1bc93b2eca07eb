// Package logging builds the structured loggers used across listview.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Options configures a logger.
type Options struct {
	// Level is the minimum level written.
	Level slog.Level

	// Output defaults to os.Stderr.
	Output io.Writer

	// NoColor disables ANSI colours, e.g. when the output is not a terminal.
	NoColor bool

	// AddSource adds file:line to every record.
	AddSource bool
}

// New returns a tint-backed slog logger.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return slog.New(tint.NewHandler(out, &tint.Options{
		Level:      opts.Level,
		TimeFormat: time.TimeOnly,
		AddSource:  opts.AddSource,
		NoColor:    opts.NoColor,
	}))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// WithComponent returns a child logger tagged with the component name.
func WithComponent(l *slog.Logger, component string) *slog.Logger {
	if l == nil {
		l = Discard()
	}
	return l.With("component", component)
}

// ParseLevel maps debug, info, warn (or warning) and error, case-insensitively.
// Unknown names yield info and ok == false.
func ParseLevel(s string) (level slog.Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
