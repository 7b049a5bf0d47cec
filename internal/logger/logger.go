// Package logger provides the structured, leveled logger used throughout the
// searcher. It wraps log/slog so every component logs with the same shape
// (context-aware, key/value pairs) without reaching for fmt.Println.
package logger

import (
	"context"
	"io"
	"log/slog"
)

// Level mirrors slog's levels under names the rest of the codebase uses.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoggerInterface is the capability every component depends on, allowing
// mocks and child loggers to be swapped in without structural coupling to
// slog.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, kv ...any)
	Info(ctx context.Context, msg string, kv ...any)
	Warn(ctx context.Context, msg string, kv ...any)
	Error(ctx context.Context, msg string, kv ...any)
	With(kv ...any) LoggerInterface
}

// Logger is the concrete LoggerInterface implementation.
type Logger struct {
	sl *slog.Logger
}

var _ LoggerInterface = (*Logger)(nil)

// New builds a Logger writing JSON records to w at the given level, tagged
// with the service name and any additional base attributes.
func New(w io.Writer, level Level, serviceName string, attrs []any) *Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level.slogLevel()})
	base := append([]any{"service", serviceName}, attrs...)
	return &Logger{sl: slog.New(h).With(base...)}
}

func (l *Logger) Debug(ctx context.Context, msg string, kv ...any) { l.sl.DebugContext(ctx, msg, kv...) }
func (l *Logger) Info(ctx context.Context, msg string, kv ...any)  { l.sl.InfoContext(ctx, msg, kv...) }
func (l *Logger) Warn(ctx context.Context, msg string, kv ...any)  { l.sl.WarnContext(ctx, msg, kv...) }
func (l *Logger) Error(ctx context.Context, msg string, kv ...any) { l.sl.ErrorContext(ctx, msg, kv...) }

// With returns a child logger carrying the extra key/value pairs on every
// subsequent record.
func (l *Logger) With(kv ...any) LoggerInterface {
	return &Logger{sl: l.sl.With(kv...)}
}
