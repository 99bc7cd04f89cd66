package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/chainguard-dev/clog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"chatty", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWithLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	ctx, err := WithLogger(context.Background(), &buf, "warn", "json")
	if err != nil {
		t.Fatalf("WithLogger() error = %v", err)
	}

	clog.InfoContext(ctx, "hidden")
	clog.FromContext(ctx).Warn("visible", "sections", 2)

	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %s", out)
	}
	var line map[string]any
	if err := json.Unmarshal([]byte(out), &line); err != nil {
		t.Fatalf("output is not a single JSON line: %q", out)
	}
	if line["msg"] != "visible" || line["sections"] != float64(2) {
		t.Errorf("logged %v, want msg=visible sections=2", line)
	}
}

func TestNewLogger_BadFormat(t *testing.T) {
	if _, err := NewLogger(&bytes.Buffer{}, "info", "xml"); err == nil {
		t.Error("NewLogger() expected error for unknown format")
	}
}
