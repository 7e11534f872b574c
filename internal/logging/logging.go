package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Service is the service field stamped on every line.
const Service = "waterhealth"

// Options selects level and output format.
type Options struct {
	Level  string
	Format string
}

// New builds the root logger. Format "console" or "pretty" writes human-readable
// lines; anything else writes JSON. A nil writer means stdout.
func New(opts Options, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	switch strings.ToLower(opts.Format) {
	case "console", "pretty":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Str("service", Service).
		Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(value string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}
