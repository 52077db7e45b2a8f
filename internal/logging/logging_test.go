package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewFanoutWritesTextAndJSON(t *testing.T) {
	t.Cleanup(func() { _ = SetLevel("info") })
	var term, file bytes.Buffer
	l := NewFanout(&term, &file)
	l.Info("diagnostics complete", "run_id", "r1")

	if !strings.Contains(term.String(), "msg=\"diagnostics complete\"") {
		t.Fatalf("unexpected text output %q", term.String())
	}
	var rec map[string]any
	if err := json.Unmarshal(file.Bytes(), &rec); err != nil {
		t.Fatalf("file output is not JSON: %v", err)
	}
	if rec["run_id"] != "r1" {
		t.Fatalf("unexpected JSON record %v", rec)
	}
}

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { _ = SetLevel("info") })
	var buf bytes.Buffer
	l := NewFanout(&buf)
	if err := SetLevel("warn"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	l.Info("hidden")
	l.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("level not applied: %q", buf.String())
	}
	if err := SetLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestContextRoundTrip(t *testing.T) {
	l := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := NewContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Fatalf("logger not carried in context")
	}
	if FromContext(context.Background()) != slog.Default() {
		t.Fatalf("expected default logger")
	}
}
