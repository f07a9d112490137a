package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config controls logger construction.
type Config struct {
	Level       string // debug | info | warn | error (default info)
	Environment string // "development" enables console output
	ServiceName string
	Version     string
}

// Logger wraps zerolog with service-level fields attached to every event.
type Logger struct {
	zerolog.Logger
}

// New builds the service logger. JSON to stdout in production, console
// writer in development.
func New(cfg Config) *Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var out = zerolog.New(os.Stdout)
	if cfg.Environment == "development" {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	ctx := out.Level(level).With().Timestamp()
	if cfg.ServiceName != "" {
		ctx = ctx.Str("service", cfg.ServiceName)
	}
	if cfg.Version != "" {
		ctx = ctx.Str("version", cfg.Version)
	}

	return &Logger{Logger: ctx.Logger()}
}

// Nop returns a logger that discards everything. Used in tests.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}
