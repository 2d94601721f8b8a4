// Package logging provides zerolog helpers shared across the engine:
// construction from config, context propagation, and component-scoped
// child loggers.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config controls logger construction.
type Config struct {
	// Level is a zerolog level name ("debug", "info", ...). Invalid or
	// empty values fall back to info.
	Level string
	// Format is "console" for human-readable output or "json" for
	// structured output. Defaults to json.
	Format string
}

// New builds a logger writing to w according to cfg.
func New(cfg Config, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		lvl = zerolog.InfoLevel
	}

	if strings.EqualFold(cfg.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// NewDefault builds an info-level JSON logger on stderr.
func NewDefault() zerolog.Logger {
	return New(Config{}, os.Stderr)
}

// FromContext returns the logger attached to ctx, or a disabled logger
// when none is attached. Engine code derives component loggers from
// this rather than holding globals.
func FromContext(ctx context.Context) zerolog.Logger {
	return *zerolog.Ctx(ctx)
}

// WithContext attaches logger to ctx.
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

// ComponentLogger returns a child logger tagged with a component name.
func ComponentLogger(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}
