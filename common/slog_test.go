package common

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseSlogLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"bananas": slog.LevelInfo,
	} {
		if got := ParseSlogLevel(in); got != want {
			t.Errorf("ParseSlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewSlogHandlerJSON(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := slog.New(NewSlogHandler(buf, "json", slog.LevelInfo))
	logger.Debug("hidden")
	logger.Info("shown", "tile", 412)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record should be filtered: %s", out)
	}
	if !strings.Contains(out, `"tile":412`) {
		t.Errorf("expected json attr, got %s", out)
	}
}
