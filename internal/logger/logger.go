package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var defaultLogger atomic.Pointer[slog.Logger]

// Init installs the global logger. Output is text unless
// CELLGRAV_LOG_FORMAT=json. Logs go to stderr so command output on stdout
// stays clean.
func Init(levelStr string) {
	InitWriter(os.Stderr, levelStr)
}

// InitWriter is Init with an explicit destination.
func InitWriter(w io.Writer, levelStr string) {
	l := newLogger(w, levelStr)
	defaultLogger.Store(l)
	slog.SetDefault(l)
}

func newLogger(w io.Writer, levelStr string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(levelStr)}

	var handler slog.Handler
	if strings.EqualFold(os.Getenv("CELLGRAV_LOG_FORMAT"), "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(levelStr string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Get returns the global logger, installing an info level stderr logger
// on first use. Safe for concurrent use before Init.
func Get() *slog.Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	l := newLogger(os.Stderr, "info")
	if defaultLogger.CompareAndSwap(nil, l) {
		slog.SetDefault(l)
	}
	return defaultLogger.Load()
}

// WithComponent returns a logger with a component label.
func WithComponent(component string) *slog.Logger {
	return Get().With("component", component)
}

func Debug(msg string, args ...any) { Get().Debug(msg, args...) }
func Info(msg string, args ...any)  { Get().Info(msg, args...) }
func Warn(msg string, args ...any)  { Get().Warn(msg, args...) }
func Error(msg string, args ...any) { Get().Error(msg, args...) }
