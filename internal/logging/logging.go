// internal/logging/logging.go
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger. Development environments get the
// console writer; everything else logs JSON. The level accepts zerolog names
// ("debug", "warn") or the numeric levels used by the older scripts (10-50).
func Setup(environment, level string) {
	SetupWriter(os.Stderr, environment, level)
}

func SetupWriter(out io.Writer, environment, level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "" || environment == "development" {
		out = zerolog.ConsoleWriter{Out: out}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(ParseLevel(level))
}

// ParseLevel maps a level name or numeric level onto zerolog, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	level = strings.TrimSpace(level)
	if level == "" {
		return zerolog.InfoLevel
	}
	if n, err := strconv.Atoi(level); err == nil {
		switch {
		case n <= 10:
			return zerolog.DebugLevel
		case n <= 20:
			return zerolog.InfoLevel
		case n <= 30:
			return zerolog.WarnLevel
		case n <= 40:
			return zerolog.ErrorLevel
		default:
			return zerolog.FatalLevel
		}
	}
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return parsed
}
