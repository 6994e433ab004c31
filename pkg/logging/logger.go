// Package logging provides structured logging for the lorekeep engine using zerolog.
// Engine components receive their logger through functional options and default to
// Nop, so library code stays silent unless the caller opts in. The CLI builds its
// logger with NewLoggerFromConfig and installs it with SetDefault.
//
// Example usage:
//
//	log := logging.Default()
//	log.Info().Str("backend", "gemini").Msg("Extracting facts")
//
//	// Carry a logger through a pipeline run
//	ctx := logging.WithRun(context.Background(), report.RunID)
//	logging.FromContext(ctx).Debug().Msg("building changeset")
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Nop discards everything. Engine components fall back to it when no
// logger is configured.
var Nop = zerolog.Nop()

// defaultLogger is the process-wide logger. It starts as a plain JSON
// logger on stderr; the CLI replaces it once configuration is loaded.
var defaultLogger = New(os.Stderr)

// Default returns the process-wide logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process-wide logger. zerolog's own global
// logger follows, so stray log.Info() calls land in the same place.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// New creates a JSON logger writing to w at the current global level.
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Level(zerolog.GlobalLevel()).
		With().
		Timestamp().
		Logger()
}

// Debug starts a debug event on the default logger.
func Debug() *zerolog.Event {
	return defaultLogger.Debug()
}

// Info starts an info event on the default logger.
func Info() *zerolog.Event {
	return defaultLogger.Info()
}

// Warn starts a warning event on the default logger.
func Warn() *zerolog.Event {
	return defaultLogger.Warn()
}

// Error starts an error event on the default logger.
func Error() *zerolog.Event {
	return defaultLogger.Error()
}

// Err starts an event on the default logger at error or info level
// depending on whether err is nil.
func Err(err error) *zerolog.Event {
	return defaultLogger.Err(err)
}
