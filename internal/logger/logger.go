// Package logger provides the process-wide structured logger.
//
// Call sites use key/value pairs after the message:
//
//	logger.Info("tv show created", "id", show.ID, "name", show.Name)
//
// The backing implementation is go-hclog so the same logger can be handed to
// libraries that accept an hclog.Logger.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

const defaultName = "seasontracker"

var (
	mu     sync.RWMutex
	output io.Writer = os.Stderr
	format           = envOr("LOG_FORMAT", "text")
	base             = build(envOr("LOG_LEVEL", "info"), format, output)
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func build(level, format string, w io.Writer) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       defaultName,
		Level:      ParseLevel(level),
		Output:     w,
		JSONFormat: strings.EqualFold(format, "json"),
	})
}

// ParseLevel converts a level name to an hclog level, falling back to info.
func ParseLevel(level string) hclog.Level {
	l := hclog.LevelFromString(strings.TrimSpace(level))
	if l == hclog.NoLevel {
		return hclog.Info
	}
	return l
}

// Configure rebuilds the logger with the given level and format ("json" or "text").
func Configure(level, logFormat string) {
	mu.Lock()
	defer mu.Unlock()
	format = logFormat
	base = build(level, format, output)
}

// SetOutput redirects log output, keeping the current level and format.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	level := base.GetLevel()
	output = w
	base = build(level.String(), format, output)
}

// SetLevel changes the level without rebuilding the logger.
func SetLevel(level string) {
	mu.RLock()
	defer mu.RUnlock()
	base.SetLevel(ParseLevel(level))
}

// Default returns the root logger.
func Default() hclog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Named returns a sub-logger, e.g. logger.Named("tvshows").
func Named(name string) hclog.Logger {
	return Default().Named(name)
}

// Info logs informational messages
func Info(msg string, args ...interface{}) {
	Default().Info(msg, args...)
}

// Warn logs warning messages
func Warn(msg string, args ...interface{}) {
	Default().Warn(msg, args...)
}

// Error logs error messages
func Error(msg string, args ...interface{}) {
	Default().Error(msg, args...)
}

// Debug logs debug messages
func Debug(msg string, args ...interface{}) {
	Default().Debug(msg, args...)
}
