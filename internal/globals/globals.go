// Package globals holds the small set of process-wide singletons the
// teacher repo kept in internal/globals: a shared background context and
// (here, in place of the teacher's Kubernetes clients and status
// conditions, which had no equivalent once the engine stopped being a
// Kubernetes operator) the process logger, set once at startup and read
// by every other package.
package globals

import (
	"context"

	"github.com/rs/zerolog"
)

type applicationT struct {
	Context context.Context
	Logger  zerolog.Logger
}

// Application is the process-wide shared singleton, populated by
// cmd/alertingd at startup before any component starts running.
var Application = applicationT{
	Context: context.Background(),
	Logger:  zerolog.Nop(),
}

// Configure installs the process logger, called once from main after
// config has been loaded.
func Configure(logger zerolog.Logger) {
	Application.Logger = logger
}
