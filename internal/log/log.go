// Package log is the daemon's structured logging layer, a thin wrapper
// over slog. Rate limiting stays at the call sites: the control loop
// logs through modulo counters, never per tick.
package log

import (
	"log/slog"
	"os"
	"sync"
)

var (
	base *slog.Logger
	once sync.Once
)

// Init sets the global logger up once. Levels are "debug", "info",
// "warn" and "error"; anything else means info. Production runs
// (ROVER_ENV=production) log JSON for journal shipping, everything else
// stays human-readable.
func Init(level string) {
	once.Do(func() {
		opts := &slog.HandlerOptions{Level: parseLevel(level)}

		if os.Getenv("ROVER_ENV") == "production" {
			base = slog.New(slog.NewJSONHandler(os.Stdout, opts))
		} else {
			base = slog.New(slog.NewTextHandler(os.Stdout, opts))
		}
		slog.SetDefault(base)
	})
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// L returns the global logger, initializing at info level if Init was
// never called.
func L() *slog.Logger {
	if base == nil {
		Init("info")
	}
	return base
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// With returns a logger carrying the given attributes.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}
