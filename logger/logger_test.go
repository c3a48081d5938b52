package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewWithOptionsJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOptions("warn", "json", &buf)

	l.Info().Msg("hidden")
	l.Warn().Str("pot", "Mom surplus").Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 log line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("Expected JSON output, got %q: %v", lines[0], err)
	}
	if entry["message"] != "shown" || entry["pot"] != "Mom surplus" {
		t.Errorf("Unexpected entry: %v", entry)
	}
}

func TestNewWithOptionsBadLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOptions("loud", "json", &buf)
	l.Debug().Msg("debug")
	l.Info().Msg("info")

	if strings.Contains(buf.String(), "debug") {
		t.Errorf("Expected debug to be filtered at default level, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "info") {
		t.Errorf("Expected info entry, got %q", buf.String())
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := WithFields(NewWithWriter(&buf), map[string]interface{}{"request_id": "abc"})
	ctx := WithContext(context.Background(), l)

	fromCtx := FromContext(ctx, Nop())
	fromCtx.Info().Msg("hello")
	if !strings.Contains(buf.String(), `"request_id":"abc"`) {
		t.Errorf("Expected request_id field, got %q", buf.String())
	}

	buf.Reset()
	fallback := FromContext(context.Background(), Nop())
	fallback.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Errorf("Expected fallback logger to be used, got %q", buf.String())
	}
}
