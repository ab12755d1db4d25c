package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetup_JSON(t *testing.T) {
	defer Setup(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), os.Stdout)

	var buf bytes.Buffer
	Setup("warn", "json", &buf)
	Info("hidden")
	With("stream", "abc").Warn("shown", "frames", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["msg"] != "shown" || rec["stream"] != "abc" || rec["frames"] != float64(3) {
		t.Fatalf("record %v", rec)
	}
}

func TestSetup_Text(t *testing.T) {
	defer Setup(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), os.Stdout)

	var buf bytes.Buffer
	Setup("debug", "text", &buf)
	Debug("decoded", "samples", 256)
	if !strings.Contains(buf.String(), "msg=decoded samples=256") {
		t.Fatalf("text output %q", buf.String())
	}
	if Logger() == nil {
		t.Fatal("nil logger")
	}
}
