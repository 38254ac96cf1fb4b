// Package log carries the structured-logging conventions shared by the
// server and the worker: a fixed vocabulary of field names and a thin
// slog wrapper that tags every record with the subsystem that wrote it.
package log

import (
	"context"
	"log/slog"
)

// Logger tags every record with a component attribute so interleaved
// output from different subsystems stays attributable. It embeds
// *slog.Logger, keeping the untagged slog API reachable.
type Logger struct {
	*slog.Logger
	component string
}

// ForComponent wraps the process-wide default logger for one subsystem.
// The handler is whatever the binary installed at startup, so component
// loggers never need their own configuration.
func ForComponent(component string) *Logger {
	return &Logger{Logger: slog.Default(), component: component}
}

// With returns a logger carrying extra attributes on every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), component: l.component}
}

// WithComponent rebinds the logger to another component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger, component: component}
}

// Component returns the name records are tagged with.
func (l *Logger) Component() string {
	return l.component
}

func (l *Logger) tag(args []any) []any {
	return append([]any{FieldComponent, l.component}, args...)
}

func (l *Logger) Debug(msg string, args ...any) { l.Logger.Debug(msg, l.tag(args)...) }
func (l *Logger) Info(msg string, args ...any)  { l.Logger.Info(msg, l.tag(args)...) }
func (l *Logger) Warn(msg string, args ...any)  { l.Logger.Warn(msg, l.tag(args)...) }
func (l *Logger) Error(msg string, args ...any) { l.Logger.Error(msg, l.tag(args)...) }

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.Logger.DebugContext(ctx, msg, l.tag(args)...)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.Logger.InfoContext(ctx, msg, l.tag(args)...)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.Logger.WarnContext(ctx, msg, l.tag(args)...)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.Logger.ErrorContext(ctx, msg, l.tag(args)...)
}
