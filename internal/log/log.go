// Package log provides the structured logger used throughout minimcp.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Logger is the logging interface handlers and transports consume. Only
// StdLogger implements it today, but call sites depend on the interface so
// a test double can stand in without touching slog directly.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	DebugContext(ctx context.Context, msg string, keysAndValues ...any)
	InfoContext(ctx context.Context, msg string, keysAndValues ...any)
	WarnContext(ctx context.Context, msg string, keysAndValues ...any)
	ErrorContext(ctx context.Context, msg string, keysAndValues ...any)
}

// StdLogger is the standard logger. Informational messages go to outLogger,
// warnings and errors to errLogger -- stdio transports must never write
// anything but protocol frames to stdout, so every warning/error is routed to
// stderr regardless of which writer the caller passed as "out".
type StdLogger struct {
	outLogger *slog.Logger
	errLogger *slog.Logger
}

var _ Logger = (*StdLogger)(nil)

// NewStdLogger creates a Logger that uses out and err for informational and
// error/warning messages respectively.
func NewStdLogger(outW, errW io.Writer, logLevel string) (*StdLogger, error) {
	var programLevel = new(slog.LevelVar)
	slogLevel, err := severityToLevel(logLevel)
	if err != nil {
		return nil, err
	}
	programLevel.Set(slogLevel)

	handlerOptions := &slog.HandlerOptions{Level: programLevel}
	return &StdLogger{
		outLogger: slog.New(slog.NewJSONHandler(outW, handlerOptions)),
		errLogger: slog.New(slog.NewJSONHandler(errW, handlerOptions)),
	}, nil
}

// NewStderrLogger is a convenience constructor for the stdio transport, which
// must never write anything to stdout besides JSON-RPC frames.
func NewStderrLogger(errW io.Writer, logLevel string) (*StdLogger, error) {
	return NewStdLogger(errW, errW, logLevel)
}

func (sl *StdLogger) Debug(msg string, kv ...any) { sl.outLogger.Debug(msg, kv...) }
func (sl *StdLogger) Info(msg string, kv ...any)  { sl.outLogger.Info(msg, kv...) }
func (sl *StdLogger) Warn(msg string, kv ...any)  { sl.errLogger.Warn(msg, kv...) }
func (sl *StdLogger) Error(msg string, kv ...any) { sl.errLogger.Error(msg, kv...) }

func (sl *StdLogger) DebugContext(ctx context.Context, msg string, kv ...any) {
	sl.outLogger.DebugContext(ctx, msg, kv...)
}
func (sl *StdLogger) InfoContext(ctx context.Context, msg string, kv ...any) {
	sl.outLogger.InfoContext(ctx, msg, kv...)
}
func (sl *StdLogger) WarnContext(ctx context.Context, msg string, kv ...any) {
	sl.errLogger.WarnContext(ctx, msg, kv...)
}
func (sl *StdLogger) ErrorContext(ctx context.Context, msg string, kv ...any) {
	sl.errLogger.ErrorContext(ctx, msg, kv...)
}

const (
	Debug = "DEBUG"
	Info  = "INFO"
	Warn  = "WARN"
	Error = "ERROR"
)

// severityToLevel returns the slog.Level for a severity string.
func severityToLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(s) {
	case Debug:
		return slog.LevelDebug, nil
	case Info:
		return slog.LevelInfo, nil
	case Warn:
		return slog.LevelWarn, nil
	case Error:
		return slog.LevelError, nil
	default:
		return slog.Level(-5), fmt.Errorf("invalid log level %q", s)
	}
}
