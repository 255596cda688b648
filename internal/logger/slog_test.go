package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew_LevelFollowsVerbose(t *testing.T) {
	var quiet bytes.Buffer
	l := New(&quiet, false)
	l.Debug("placing task", "task", "A")
	l.Warn("capacity conflict", "task", "C", "resource", "dev")

	out := quiet.String()
	if strings.Contains(out, "placing task") {
		t.Errorf("debug output must be suppressed without verbose: %q", out)
	}
	if !strings.Contains(out, "capacity conflict") || !strings.Contains(out, "resource=dev") {
		t.Errorf("expected warning with attributes, got %q", out)
	}

	var loud bytes.Buffer
	New(&loud, true).Debug("placing task", "task", "A")
	if !strings.Contains(loud.String(), "task=A") {
		t.Errorf("expected debug output in verbose mode, got %q", loud.String())
	}
}
