// Package logging provides structured logging with context propagation for
// the workflow engine, backed by zerolog.
package logging

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
)

type contextKey string

// ContextKeyLogger is the context key under which a Logger travels through
// Run calls that accept a context.Context.
const ContextKeyLogger contextKey = "logger"

// Logger wraps zerolog.Logger with workflow-specific field helpers.
type Logger struct {
	z zerolog.Logger
}

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// Output is where logs are written (default: os.Stdout).
	Output io.Writer
	// Pretty enables human-readable console output instead of JSON.
	Pretty bool
}

// DefaultConfig returns default logging configuration.
func DefaultConfig() Config {
	return Config{Level: "info", Output: os.Stdout}
}

// New creates a new Logger with the given configuration.
func New(cfg Config) *Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}
	z := zerolog.New(output).With().Timestamp().Logger().Level(parseLevel(cfg.Level))
	return &Logger{z: z}
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// WithContext embeds the logger in ctx.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, ContextKeyLogger, l)
}

// FromContext retrieves the logger from ctx, or a default logger if absent.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ContextKeyLogger).(*Logger); ok {
		return l
	}
	return New(DefaultConfig())
}

// WithWorkflowID returns a derived Logger that always includes workflow_id.
func (l *Logger) WithWorkflowID(id string) *Logger {
	return &Logger{z: l.z.With().Str("workflow_id", id).Logger()}
}

// WithExecutionID returns a derived Logger that always includes execution_id.
func (l *Logger) WithExecutionID(id string) *Logger {
	return &Logger{z: l.z.With().Str("execution_id", id).Logger()}
}

// WithNode returns a derived Logger that always includes node_id.
func (l *Logger) WithNode(id string) *Logger {
	return &Logger{z: l.z.With().Str("node_id", id).Logger()}
}

// WithField returns a derived Logger that always includes one extra field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{z: l.z.With().Interface(key, value).Logger()}
}

// Debug logs a debug-level event.
func (l *Logger) Debug() *zerolog.Event { return l.z.Debug() }

// Info logs an info-level event.
func (l *Logger) Info() *zerolog.Event { return l.z.Info() }

// Warn logs a warn-level event.
func (l *Logger) Warn() *zerolog.Event { return l.z.Warn() }

// Error logs an error-level event.
func (l *Logger) Error() *zerolog.Event { return l.z.Error() }

// Zerolog returns the underlying zerolog.Logger for advanced use cases.
func (l *Logger) Zerolog() zerolog.Logger { return l.z }
