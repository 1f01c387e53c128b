package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. DEV gets a human-readable console writer and
// debug level; anything else logs structured JSON at info.
func New(environment string) zerolog.Logger {
	if environment == "DEV" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	return zerolog.New(os.Stdout).With().
		Timestamp().
		Str("env", environment).
		Logger()
}
