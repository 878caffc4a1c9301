// Package logger provides the structured logger used across the engine, wrapping
// charmbracelet/log so the same Logger can be carried on a context.Context.
package logger

import (
	"context"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// LogLevel is the engine's own level enum, kept independent of charmlog's so
// callers never need to import charmbracelet/log directly.
type LogLevel string

const (
	DebugLevel    LogLevel = "debug"
	InfoLevel     LogLevel = "info"
	WarnLevel     LogLevel = "warn"
	ErrorLevel    LogLevel = "error"
	DisabledLevel LogLevel = "disabled"
)

// ToCharmlogLevel converts to the underlying charmbracelet/log level, defaulting
// unknown values to InfoLevel.
func (l LogLevel) ToCharmlogLevel() charmlog.Level {
	switch l {
	case DebugLevel:
		return charmlog.DebugLevel
	case InfoLevel:
		return charmlog.InfoLevel
	case WarnLevel:
		return charmlog.WarnLevel
	case ErrorLevel:
		return charmlog.ErrorLevel
	case DisabledLevel:
		return charmlog.Level(1000)
	default:
		return charmlog.InfoLevel
	}
}

// Logger is the subset of charmbracelet/log's API the engine depends on.
type Logger interface {
	Debug(msg any, keyvals ...any)
	Info(msg any, keyvals ...any)
	Warn(msg any, keyvals ...any)
	Error(msg any, keyvals ...any)
	With(keyvals ...any) Logger
}

type charmLogger struct {
	l *charmlog.Logger
}

func (c *charmLogger) Debug(msg any, keyvals ...any) { c.l.Debug(msg, keyvals...) }
func (c *charmLogger) Info(msg any, keyvals ...any)  { c.l.Info(msg, keyvals...) }
func (c *charmLogger) Warn(msg any, keyvals ...any)  { c.l.Warn(msg, keyvals...) }
func (c *charmLogger) Error(msg any, keyvals ...any) { c.l.Error(msg, keyvals...) }
func (c *charmLogger) With(keyvals ...any) Logger {
	return &charmLogger{l: c.l.With(keyvals...)}
}

// Config controls the behaviour of a Logger built with NewLogger.
type Config struct {
	Level      LogLevel
	Output     io.Writer
	JSON       bool
	TimeFormat string
	Prefix     string
}

// TestConfig returns a Config suitable for unit tests: debug level, discarding
// output unless the caller overrides it.
func TestConfig() *Config {
	return &Config{Level: DebugLevel, Output: io.Discard}
}

// NewLogger builds a Logger from Config, defaulting the output to stderr and
// the level to InfoLevel when unset.
func NewLogger(cfg *Config) Logger {
	if cfg == nil {
		cfg = &Config{}
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := charmlog.Options{
		ReportTimestamp: true,
		Prefix:          cfg.Prefix,
	}
	if cfg.JSON {
		opts.Formatter = charmlog.JSONFormatter
	}
	l := charmlog.NewWithOptions(out, opts)
	level := cfg.Level
	if level == "" {
		level = InfoLevel
	}
	l.SetLevel(level.ToCharmlogLevel())
	return &charmLogger{l: l}
}

// NewForTests returns a Logger that discards output, for use in tests that
// need a non-nil Logger but don't assert on log content.
func NewForTests() Logger {
	return NewLogger(TestConfig())
}

type loggerCtxKey struct{}

// LoggerCtxKey is exported so callers (and tests) can stash a non-Logger value
// under the same key to exercise the FromContext fallback path.
var LoggerCtxKey = loggerCtxKey{}

// ContextWithLogger attaches a Logger to ctx.
func ContextWithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, LoggerCtxKey, l)
}

var defaultLogger = NewLogger(&Config{Level: InfoLevel})

// FromContext returns the Logger attached to ctx, or a default logger when
// none is present (or the stored value isn't a Logger, or is a nil Logger).
func FromContext(ctx context.Context) Logger {
	if ctx == nil {
		return defaultLogger
	}
	v := ctx.Value(LoggerCtxKey)
	l, ok := v.(Logger)
	if !ok || l == nil {
		return defaultLogger
	}
	return l
}
