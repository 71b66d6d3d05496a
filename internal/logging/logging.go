// Package logging configures the single process-wide zerolog.Logger used
// across the alerting engine.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds a logger at the given level, console-pretty when env is
// "development" and JSON otherwise.
func New(level, env string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	name := strings.ToLower(level)
	switch name {
	case "warning":
		name = "warn"
	case "critical":
		name = "fatal"
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var w = os.Stdout
	if strings.EqualFold(env, "development") {
		consoleWriter := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		return zerolog.New(consoleWriter).Level(lvl).With().Timestamp().Logger()
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
