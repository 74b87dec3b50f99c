package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func newBufferedLogger() (*EventLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	return NewEventLogger(logger), &buf
}

func parseEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	return entry
}

func TestEventLogger_Debug(t *testing.T) {
	el, buf := newBufferedLogger()

	el.Debug("test message", "key1", "value1", "key2", 42)

	entry := parseEntry(t, buf)
	if entry["level"] != "debug" {
		t.Errorf("expected level 'debug', got %v", entry["level"])
	}
	if entry["message"] != "test message" {
		t.Errorf("expected message 'test message', got %v", entry["message"])
	}
	if entry["key1"] != "value1" {
		t.Errorf("expected key1='value1', got %v", entry["key1"])
	}
	if entry["key2"] != float64(42) { // JSON numbers are float64
		t.Errorf("expected key2=42, got %v", entry["key2"])
	}
}

func TestEventLogger_Info(t *testing.T) {
	el, buf := newBufferedLogger()

	el.Info("info message", "status", "ok")

	entry := parseEntry(t, buf)
	if entry["level"] != "info" {
		t.Errorf("expected level 'info', got %v", entry["level"])
	}
	if entry["status"] != "ok" {
		t.Errorf("expected status='ok', got %v", entry["status"])
	}
}

func TestEventLogger_Error(t *testing.T) {
	el, buf := newBufferedLogger()

	el.Error("error occurred", "code", 500, "reason", "internal")

	entry := parseEntry(t, buf)
	if entry["level"] != "error" {
		t.Errorf("expected level 'error', got %v", entry["level"])
	}
	if entry["code"] != float64(500) {
		t.Errorf("expected code=500, got %v", entry["code"])
	}
	if entry["reason"] != "internal" {
		t.Errorf("expected reason='internal', got %v", entry["reason"])
	}
}

func TestEventLogger_NoKeyValues(t *testing.T) {
	el, buf := newBufferedLogger()

	el.Debug("simple message")

	entry := parseEntry(t, buf)
	if entry["message"] != "simple message" {
		t.Errorf("expected message 'simple message', got %v", entry["message"])
	}
}

func TestEventLogger_OddKeyValuesIgnoresTail(t *testing.T) {
	el, buf := newBufferedLogger()

	el.Info("odd", "key1", "value1", "dangling")

	entry := parseEntry(t, buf)
	if entry["key1"] != "value1" {
		t.Errorf("expected key1='value1', got %v", entry["key1"])
	}
	if _, ok := entry["dangling"]; ok {
		t.Error("dangling key without value must be dropped")
	}
}

func TestEventLogger_ImplementsInterface(t *testing.T) {
	el, _ := newBufferedLogger()

	var _ interface {
		Debug(msg string, keysAndValues ...any)
		Info(msg string, keysAndValues ...any)
		Error(msg string, keysAndValues ...any)
	} = el
}
