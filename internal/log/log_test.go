package log

import (
	"strings"
	"testing"
)

type lineWriter struct {
	lines []string
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.lines = append(w.lines, string(p))
	return len(p), nil
}

func TestWriterFiltersByLevel(t *testing.T) {
	tw := &lineWriter{}
	w := NewWriter(tw)
	w.SetLevel(Info)

	w.Debugf("should be dropped")
	w.Infof("kept %d", 1)
	w.Warningf("kept %d", 2)

	if len(tw.lines) != 2 {
		t.Fatalf("got %d lines, want 2: %v", len(tw.lines), tw.lines)
	}
	if !strings.Contains(tw.lines[0], "INFO") || !strings.Contains(tw.lines[0], "kept 1") {
		t.Errorf("first line = %q, missing level or message", tw.lines[0])
	}
	if !strings.Contains(tw.lines[1], "WARNING") {
		t.Errorf("second line = %q, missing level", tw.lines[1])
	}
}

func TestIsLoggingTracksLevel(t *testing.T) {
	w := NewWriter(&lineWriter{})
	w.SetLevel(Warning)
	if w.IsLogging(Info) {
		t.Error("IsLogging(Info) should be false at Warning level")
	}
	w.SetLevel(Debug)
	if !w.IsLogging(Debug) {
		t.Error("IsLogging(Debug) should be true at Debug level")
	}
}

func TestLevelString(t *testing.T) {
	if got := Warning.String(); got != "WARNING" {
		t.Errorf("Warning.String() = %q", got)
	}
	if got := Level(99).String(); got != "Level(99)" {
		t.Errorf("Level(99).String() = %q", got)
	}
}
