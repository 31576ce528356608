// README: Root zerolog logger construction.
package infra

import (
	"os"

	"github.com/rs/zerolog"
)

// NewLogger returns the process root logger. Pretty output is for local
// development; production emits JSON lines.
func NewLogger(pretty bool) zerolog.Logger {
	if pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
