// Package logging configures the diagnostic logger. Diagnostics go to stderr
// so that command output on stdout stays clean.
package logging

import (
	"context"
	"io"
	"os"

	"github.com/chainguard-dev/clog"
	"github.com/charmbracelet/log"
)

// L is the process-wide logger. It only shows warnings until Setup enables
// debug output.
var L = log.NewWithOptions(os.Stderr, log.Options{
	Level:  log.WarnLevel,
	Prefix: "awsfree",
})

// Setup replaces L with a logger writing to w
func Setup(w io.Writer, debug bool) *log.Logger {
	level := log.WarnLevel
	if debug {
		level = log.DebugLevel
	}

	L = log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          "awsfree",
		ReportTimestamp: debug,
	})
	return L
}

// WithContext installs l as the slog handler behind clog so that library
// code can log through clog.FromContext(ctx)
func WithContext(ctx context.Context, l *log.Logger) context.Context {
	return clog.WithLogger(ctx, clog.New(l))
}
