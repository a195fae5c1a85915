package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

// TestNew_JSONFormat verifies JSON output carries the component attribute.
func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	NewComponentLogger(logger, "capture").Info("frame presented", Int("crop_top", 25))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v (%q)", err, buf.String())
	}
	if record[FieldComponent] != "capture" {
		t.Fatalf("expected component=capture, got %#v", record[FieldComponent])
	}
	if record["crop_top"] != float64(25) {
		t.Fatalf("expected crop_top=25, got %#v", record["crop_top"])
	}
}

// TestNew_AutoFallsBackToJSON verifies non-terminal writers get JSON output.
func TestNew_AutoFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "auto", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info("hello")
	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Fatalf("expected json output, got %q", buf.String())
	}
}

// TestNew_RejectsUnknownFormat verifies unsupported formats fail.
func TestNew_RejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

// TestParseLevel verifies level parsing and the info default.
func TestParseLevel(t *testing.T) {
	if ParseLevel("DEBUG") != slog.LevelDebug {
		t.Fatalf("expected debug level")
	}
	if ParseLevel("warning") != slog.LevelWarn {
		t.Fatalf("expected warn level")
	}
	if ParseLevel("bogus") != slog.LevelInfo {
		t.Fatalf("expected info default")
	}
}

// TestNewNop_Discards verifies the no-op logger reports disabled.
func TestNewNop_Discards(t *testing.T) {
	if NewNop().Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("expected nop logger to be disabled")
	}
}
