package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false, "json")

	l.Info("session created", "session", "abc")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json output, got %q: %v", buf.String(), err)
	}
	if entry["session"] != "abc" {
		t.Errorf("expected session attr, got %v", entry["session"])
	}
}

func TestNewDebugLevel(t *testing.T) {
	var buf bytes.Buffer

	New(&buf, false, "").Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug should be filtered at info level, got %q", buf.String())
	}

	New(&buf, true, "text").Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected debug output, got %q", buf.String())
	}
}

func TestSetDefault(t *testing.T) {
	old := log
	defer func() { log = old }()

	var buf bytes.Buffer
	SetDefault(New(&buf, false, ""))
	Warn("tool failed", "tool", "weather")

	if !strings.Contains(buf.String(), "tool=weather") {
		t.Errorf("expected package logger to be replaced, got %q", buf.String())
	}
}
