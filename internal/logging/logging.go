// Package logging centralizes the zerolog setup shared by every daemon
// subsystem, per spec.md §6's DEBUG environment variable.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds the process-wide base logger. DEBUG=1 (any non-empty value)
// lowers the level to Debug; otherwise Info, matching §6's stated default.
func New(component string) zerolog.Logger {
	level := zerolog.InfoLevel
	if os.Getenv("DEBUG") != "" {
		level = zerolog.DebugLevel
	}

	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}
