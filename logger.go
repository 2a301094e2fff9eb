package redlock

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-logr/logr"
)

// Logger is the interface that wraps the basic logging methods.
type Logger interface {
	// Debug logs a debug message.
	Debug(ctx context.Context, msg string, args ...any)
	// Info logs an info message.
	Info(ctx context.Context, msg string, args ...any)
	// Warn logs a warning message.
	Warn(ctx context.Context, msg string, args ...any)
	// Error logs an error message.
	Error(ctx context.Context, msg string, args ...any)
}

func sprintf(msg string, args []any) string {
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

// defaultLogger is the default implementation of Logger interface.
type defaultLogger struct {
	debug *log.Logger
	info  *log.Logger
	warn  *log.Logger
	error *log.Logger
}

// newDefaultLogger creates a new default logger.
func newDefaultLogger() *defaultLogger {
	return &defaultLogger{
		debug: log.New(os.Stdout, "[DEBUG] ", log.LstdFlags),
		info:  log.New(os.Stdout, "[INFO] ", log.LstdFlags),
		warn:  log.New(os.Stdout, "[WARN] ", log.LstdFlags),
		error: log.New(os.Stderr, "[ERROR] ", log.LstdFlags),
	}
}

func (l *defaultLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.debug.Println(sprintf(msg, args))
}

func (l *defaultLogger) Info(ctx context.Context, msg string, args ...any) {
	l.info.Println(sprintf(msg, args))
}

func (l *defaultLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.warn.Println(sprintf(msg, args))
}

func (l *defaultLogger) Error(ctx context.Context, msg string, args ...any) {
	l.error.Println(sprintf(msg, args))
}

// LogrLogger adapts a logr.Logger. Debug messages are emitted at V(1).
type LogrLogger struct {
	log logr.Logger
}

// NewLogrLogger wraps l.
func NewLogrLogger(l logr.Logger) *LogrLogger {
	return &LogrLogger{log: l}
}

func (l *LogrLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.log.V(1).Info(sprintf(msg, args))
}

func (l *LogrLogger) Info(ctx context.Context, msg string, args ...any) {
	l.log.Info(sprintf(msg, args))
}

func (l *LogrLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.log.Info(sprintf(msg, args), "level", "warn")
}

func (l *LogrLogger) Error(ctx context.Context, msg string, args ...any) {
	l.log.Error(nil, sprintf(msg, args))
}

// NoopLogger is a logger that does nothing.
type NoopLogger struct{}

func (l *NoopLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (l *NoopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (l *NoopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (l *NoopLogger) Error(ctx context.Context, msg string, args ...any) {}
