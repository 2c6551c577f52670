package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWriter(&buf, "warn", "json")
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	log.Info().Msg("dropped")
	clog := Component(log, "scheduler")
	clog.Warn().Str("symbol", "SPX").Msg("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["message"] != "kept" || entry["component"] != "scheduler" || entry["symbol"] != "SPX" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNewWriterConsole(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWriter(&buf, "", "console")
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	log.Info().Msg("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestNewWriterErrors(t *testing.T) {
	if _, err := NewWriter(&bytes.Buffer{}, "loud", "json"); err == nil {
		t.Error("expected level error")
	}
	if _, err := NewWriter(&bytes.Buffer{}, "info", "xml"); err == nil {
		t.Error("expected format error")
	}
}
