// Package logging builds the slog JSON loggers used by the api and the
// render worker. Every line carries a service attribute so both binaries can
// share one log stream.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// NewJSONLogger returns a stdout JSON logger at the given level. Unknown
// level names fall back to info.
func NewJSONLogger(service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler).With(slog.String("service", service))
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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
