// Package obslog builds the structured logger shared by the cryptopan
// command-line surface and its collaborators.
package obslog

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Format selects how log events are rendered.
type Format string

const (
	// FormatJSON writes one JSON object per line (the default; suitable
	// for piping into a log aggregator).
	FormatJSON Format = "json"
	// FormatConsole writes human-readable, colourised lines (suitable for
	// an interactive terminal).
	FormatConsole Format = "console"
)

// Config configures logger construction.
type Config struct {
	// Level is a zerolog level name: "debug", "info", "warn", "error".
	// Defaults to "info" if empty or unrecognised.
	Level string
	// Format selects JSON or console rendering. Defaults to FormatJSON.
	Format Format
	// Output is the destination writer. Defaults to os.Stderr, so stdout
	// stays free for the pcap/JSON streams the CLI reads and writes.
	Output io.Writer
}

// New builds a zerolog.Logger from cfg.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var w io.Writer = out
	if cfg.Format == FormatConsole {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// WithRunID returns a child logger that stamps every event with a run
// correlation identifier.
func WithRunID(l zerolog.Logger, runID fmt.Stringer) zerolog.Logger {
	return l.With().Str("run_id", runID.String()).Logger()
}
