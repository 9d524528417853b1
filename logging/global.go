// Package logging wraps log/slog for the service: a global logger writing
// text to the console and JSON to a weekly-rotating file, plus the HTTP
// request-logging middleware. Logging is a side channel; no failure is
// ever surfaced to the operator through the log alone.
package logging

import (
	"log/slog"
	"os"
)

var defaultLogger *slog.Logger

// Init installs the global logger writing to the console and to rotating
// files under logDir.
func Init(logDir string, retentionWeeks int) {
	defaultLogger = Setup(logDir, retentionWeeks)
	slog.SetDefault(defaultLogger)
}

// logger returns the configured logger, or a stderr fallback when logging
// is used before Init (early startup, package tests).
func logger() *slog.Logger {
	if defaultLogger != nil {
		return defaultLogger
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// Package-level functions for direct access

func Debug(msg string, args ...any) {
	logger().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	logger().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	logger().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	logger().Error(msg, args...)
}
