// Package logger provides the leveled logger used by the validator.
//
// Messages are printf-formatted and written through log/slog so that callers
// can attach attributes such as a run id.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Level represents the logging level.
type Level int

// Log levels.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelNone
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return ""
	}
}

// ParseLevel parses a level name; unknown names yield LevelInfo and false.
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "debug", "DEBUG":
		return LevelDebug, true
	case "info", "INFO":
		return LevelInfo, true
	case "warn", "WARN", "warning", "WARNING":
		return LevelWarn, true
	case "error", "ERROR":
		return LevelError, true
	case "none", "NONE", "off":
		return LevelNone, true
	default:
		return LevelInfo, false
	}
}

func (l Level) slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	case LevelNone:
		// Above every level passed to the handler.
		return slog.LevelError + 4
	default:
		return slog.LevelInfo
	}
}

// Component is the value of the component attribute on every record.
const Component = "articlecheck"

// Logger provides logging functionality.
type Logger struct {
	mu     sync.Mutex
	level  *slog.LevelVar
	output io.Writer
	slog   *slog.Logger
}

var defaultLogger = New(os.Stderr, LevelInfo)

// Default returns the default logger.
func Default() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger.
func SetDefault(l *Logger) {
	defaultLogger = l
}

// New creates a new logger writing text records to output.
func New(output io.Writer, level Level) *Logger {
	l := &Logger{level: new(slog.LevelVar), output: output}
	l.level.Set(level.slog())
	l.slog = newSlog(output, l.level)
	return l
}

func newSlog(w io.Writer, level *slog.LevelVar) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.TimeOnly))
			}
			return a
		},
	})
	return slog.New(h).With("component", Component)
}

// SetLevel sets the logging level.
func (l *Logger) SetLevel(level Level) {
	l.level.Set(level.slog())
}

// SetOutput sets the output writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
	l.slog = newSlog(w, l.level)
}

// Slog returns the underlying structured logger.
func (l *Logger) Slog() *slog.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slog
}

// With returns a logger that adds attrs to every record. It shares the
// level of l.
func (l *Logger) With(attrs ...any) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{level: l.level, output: l.output, slog: l.slog.With(attrs...)}
}

func (l *Logger) log(level Level, format string, args ...any) {
	s := l.Slog()
	ctx := context.Background()
	if !s.Enabled(ctx, level.slog()) {
		return
	}
	s.Log(ctx, level.slog(), fmt.Sprintf(format, args...))
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	l.log(LevelDebug, format, args...)
}

// Info logs an info message.
func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}

// Package-level convenience functions.

// Debug logs a debug message using the default logger.
func Debug(format string, args ...any) {
	defaultLogger.Debug(format, args...)
}

// Info logs an info message using the default logger.
func Info(format string, args ...any) {
	defaultLogger.Info(format, args...)
}

// Warn logs a warning message using the default logger.
func Warn(format string, args ...any) {
	defaultLogger.Warn(format, args...)
}

// Error logs an error message using the default logger.
func Error(format string, args ...any) {
	defaultLogger.Error(format, args...)
}

// SetLevel sets the level of the default logger.
func SetLevel(level Level) {
	defaultLogger.SetLevel(level)
}

// SetOutput sets the output of the default logger.
func SetOutput(w io.Writer) {
	defaultLogger.SetOutput(w)
}

// Disable disables all logging.
func Disable() {
	defaultLogger.SetLevel(LevelNone)
}
