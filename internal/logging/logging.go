// Package logging configures zerolog for the whole process.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns the root logger. Debug mode switches to human-readable console
// output and lowers the level.
func New(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	var out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}

	log := zerolog.New(out).With().Timestamp().Logger().Level(level)
	if debug {
		log = log.Level(zerolog.DebugLevel)
	}
	return log
}

// Component returns a child logger tagged with the component name.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
