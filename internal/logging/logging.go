// Package logging wraps zerolog for the responder engine, defaulting to
// silent operation unless verbose mode is requested.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns a logger for component, silent unless verbose is true.
//
// Mirrors the original's log_verbose switch: no output at all in the
// default case, structured output (component + message fields) when
// verbose logging is requested.
func New(component string, verbose bool) zerolog.Logger {
	level := zerolog.Disabled
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(os.Stderr).
		Level(level).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}
