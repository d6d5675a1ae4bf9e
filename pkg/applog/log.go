// Package applog provides the Logger interface used across icewright, plus the
// context plumbing every service method uses to retrieve it.
package applog

import "context"

// Logger is the common interface for log implementations used throughout icewright.
type Logger interface {
	Info(args ...any)
	Infof(format string, args ...any)

	Error(args ...any)
	Errorf(format string, args ...any)

	Warn(args ...any)
	Warnf(format string, args ...any)

	Debug(args ...any)
	Debugf(format string, args ...any)

	// WithFields returns a derived Logger that always attaches the given
	// key/value pairs (e.g. "warehouse_id", id, "request_id", rid).
	WithFields(fields ...any) Logger

	Sync() error
}

type loggerContextKey struct{}

// ContextWithLogger returns a context carrying logger as the active Logger.
func ContextWithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// FromContext extracts the Logger attached by ContextWithLogger, falling back to a
// no-op logger so call sites never need a nil check.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerContextKey{}).(Logger); ok {
		return l
	}

	return noopLogger{}
}

type noopLogger struct{}

func (noopLogger) Info(args ...any)             {}
func (noopLogger) Infof(string, ...any)         {}
func (noopLogger) Error(args ...any)            {}
func (noopLogger) Errorf(string, ...any)        {}
func (noopLogger) Warn(args ...any)             {}
func (noopLogger) Warnf(string, ...any)         {}
func (noopLogger) Debug(args ...any)            {}
func (noopLogger) Debugf(string, ...any)        {}
func (n noopLogger) WithFields(...any) Logger   { return n }
func (noopLogger) Sync() error                  { return nil }
