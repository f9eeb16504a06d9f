// Package logger builds the service's zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ServiceName is attached to every log line.
const ServiceName = "checkledger"

// Config holds logger configuration.
type Config struct {
	Level  string // trace, debug, info, warn, error
	Format string // json, console
}

// New creates a logger writing to stdout.
func New(cfg Config) zerolog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter creates a logger writing to out. Console output is meant for
// local runs and carries no colour codes so it survives log collectors.
func NewWithWriter(cfg Config, out io.Writer) zerolog.Logger {
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: true}
	}

	return zerolog.New(out).
		Level(parseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", ServiceName).
		Logger()
}

// parseLevel falls back to info for empty or unknown names.
func parseLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}
