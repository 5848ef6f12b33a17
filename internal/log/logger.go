// Package log wraps log/slog with component-scoped loggers so every line
// carries the subsystem it came from.
package log

import (
	"log/slog"
	"os"
)

// Standard component names.
const (
	ComponentApp      = "app"
	ComponentPoller   = "poller"
	ComponentWorkflow = "workflow"
	ComponentEngine   = "engine"
	ComponentStorage  = "storage"
)

// Logger is a slog.Logger bound to one component.
type Logger struct {
	*slog.Logger
	base      slog.Handler
	component string
}

// New creates a component logger on top of the given handler. A nil handler
// falls back to a text handler on stderr.
func New(handler slog.Handler, component string) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{
		Logger:    slog.New(handler).With("component", component),
		base:      handler,
		component: component,
	}
}

// WithComponent returns a logger for a different component sharing the same
// underlying handler.
func (l *Logger) WithComponent(component string) *Logger {
	return New(l.base, component)
}

// Component returns the logger's component name.
func (l *Logger) Component() string {
	return l.component
}
