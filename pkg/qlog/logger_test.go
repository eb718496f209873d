package qlog

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLogger_FormatsAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(slog.LevelInfo, &buf)

	log.With("stage", "fetch").Info("Downloaded artifacts", "component", "acme/site")

	out := buf.String()
	if !strings.Contains(out, "Downloaded artifacts stage=fetch, component=acme/site") {
		t.Fatalf("unexpected output: %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Fatalf("expected trailing newline, got %q", out)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(slog.LevelWarn, &buf)

	log.Info("hidden")
	log.Debug("hidden")
	log.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("info/debug should be filtered: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("warn should pass: %q", buf.String())
	}
}

func TestLogger_OrDiscard(t *testing.T) {
	var l *Logger
	// must not panic
	l.OrDiscard().Info("nothing")
}
