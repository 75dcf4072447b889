package mend

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(zerolog.InfoLevel)
}

// Logger returns the package logger.
func Logger() zerolog.Logger {
	return logger
}

// SetLogger replaces the package logger. Intended for embedding programs
// that already own a configured zerolog instance.
func SetLogger(l zerolog.Logger) {
	logger = l
}
