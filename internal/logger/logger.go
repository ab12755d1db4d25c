// Package logger is the process-wide structured logger for the gocelt
// commands. Library packages never log.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

func init() {
	Setup(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), os.Stdout)
}

// ParseLevel maps debug, info, warn (or warning) and error to a level.
// Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Setup replaces the logger. format "json" selects the JSON handler,
// anything else the text handler.
func Setup(level, format string, w io.Writer) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	current.Store(slog.New(handler))
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return current.Load()
}

// With returns a logger carrying the given attributes.
func With(args ...any) *slog.Logger {
	return current.Load().With(args...)
}

func Debug(msg string, args ...any) {
	current.Load().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	current.Load().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	current.Load().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	current.Load().Error(msg, args...)
}

func Fatal(msg string, args ...any) {
	current.Load().Error(msg, args...)
	os.Exit(1)
}
