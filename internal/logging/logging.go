package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New builds the root logger with the configured level. Unknown levels
// fall back to info.
func New(level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = zerolog.InfoLevel
	}

	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(writer).Level(parsed).With().Timestamp().Logger()
}
