// Package obs provides the logging and metrics facade shared by every
// component of the pipeline. It mirrors the teacher's thin indirection over
// github.com/luxfi/log: components take a log.Logger through their
// constructor and fall back to a no-op logger when none is supplied.
package obs

import "github.com/luxfi/log"

// Logger is re-exported so callers don't need to import luxfi/log directly.
type Logger = log.Logger

// NewNoOpLogger returns a logger that discards everything, for components
// constructed without an explicit logger (tests, one-off CLI invocations).
func NewNoOpLogger() Logger {
	return log.NewNoOpLogger()
}

// WithComponent returns a child logger tagged with the given component name,
// falling back to a no-op logger if base is nil.
func WithComponent(base Logger, component string) Logger {
	if base == nil {
		base = NewNoOpLogger()
	}
	return base.With("component", component)
}
