package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Config holds logger options.
type Config struct {
	// Level is the minimum level: trace, debug, info, warn, error, disabled.
	Level string

	// Format is json, console, or auto (console on a terminal).
	Format string

	// NoColor disables colour in console mode.
	NoColor bool
}

// DefaultConfig reads LOG_LEVEL, LOG_FORMAT and NO_COLOR.
func DefaultConfig() *Config {
	return &Config{
		Level:   envOr("LOG_LEVEL", "info"),
		Format:  envOr("LOG_FORMAT", "auto"),
		NoColor: os.Getenv("NO_COLOR") != "",
	}
}

// WithVerbose returns a copy of c lowered to debug when verbose is set.
func (c Config) WithVerbose(verbose bool) *Config {
	if verbose && parseLevel(c.Level) > zerolog.DebugLevel {
		c.Level = "debug"
	}
	return &c
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "warning":
		return zerolog.WarnLevel
	case "none", "off":
		return zerolog.Disabled
	case "":
		return zerolog.InfoLevel
	}
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
