// Package logging wraps zerolog for the tracker commands.
//
// Commands obtain a logger from the context:
//
//	log := logging.FromContext(ctx)
//	log.Info().Str("worksheet", title).Int("rows", n).Msg("Updated worksheet")
//
// Reports meant for the operator (validation summaries, tables) are written to
// stdout by the output package; logs always go to stderr.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var defaultLogger = NewLogger(DefaultConfig(), os.Stderr)

// Nop discards everything.
var Nop = zerolog.Nop()

// Default returns the process-wide logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// Configure builds a logger from cfg writing to stderr and installs it as default.
func Configure(cfg *Config) zerolog.Logger {
	logger := NewLogger(cfg, os.Stderr)
	SetDefault(logger)
	return logger
}

// NewLogger builds a logger from cfg that writes to w.
func NewLogger(cfg *Config, w io.Writer) zerolog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	level := parseLevel(cfg.Level)

	logger := zerolog.New(writerFor(cfg, w)).
		Level(level).
		With().
		Timestamp().
		Logger()
	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

func writerFor(cfg *Config, w io.Writer) io.Writer {
	format := cfg.Format
	if format == "auto" {
		format = "json"
		if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			format = "console"
		}
	}
	if format == "console" {
		return zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.Kitchen,
			NoColor:    cfg.NoColor,
		}
	}
	return w
}
