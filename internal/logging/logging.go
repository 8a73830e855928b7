// Package logging configures the process-wide slog logger.
//
// User-facing output goes to stdout via fmt; slog is reserved for debug
// tracing (external command invocations, config resolution) and writes to
// stderr so it never interleaves with report output.
package logging

import (
	"io"
	"log/slog"

	"github.com/lmittmann/tint"
)

// Setup installs the default slog logger. When debug is true the level is
// Debug, otherwise Warn so routine runs stay quiet.
func Setup(w io.Writer, debug bool) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	handler := tint.NewHandler(w, &tint.Options{Level: level})
	slog.SetDefault(slog.New(handler))
}
