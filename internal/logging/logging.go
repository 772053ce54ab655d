// Package logging configures structured logging for the ta CLI and API.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup installs the default slog logger writing to stderr, so that JSON
// command output on stdout stays clean. Dev mode logs human-readable text
// at Debug; otherwise JSON at Info.
func Setup(devMode bool) *slog.Logger {
	return SetupWriter(os.Stderr, devMode)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, devMode bool) *slog.Logger {
	var handler slog.Handler
	if devMode {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	logger := slog.New(handler).With("service", "tax-appeal")
	slog.SetDefault(logger)
	return logger
}
