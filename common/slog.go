package common

import (
	"io"
	"log/slog"
	"strings"
)

// SlogResetLevel returns a function that resets the slog level to the previous level,
// pairs well with defer.
// Use like:
// func Test123(t *testing.T) {
//     defer common.SlogResetLevel(slog.Level(slog.LevelWarn + 1))()
func SlogResetLevel(level slog.Level) (reset func()) {
	oldLevel := slog.SetLogLoggerLevel(level)
	return func() {
		slog.SetLogLoggerLevel(oldLevel)
	}
}

// ParseSlogLevel parses names like "debug", "info", "warn", "error".
// Unknown names fall back to info.
func ParseSlogLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(s)))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewSlogHandler returns a text handler, or a JSON handler when format is "json".
func NewSlogHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
