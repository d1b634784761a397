package orchestration

import "testing"

func TestIsTerminal(t *testing.T) {
	terminal := []Status{StatusCompleted, StatusFailed, StatusCancelled}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Fatalf("expected %s to be terminal", s)
		}
	}

	active := []Status{StatusPlanning, StatusClarifying, StatusExecuting, StatusIterating}
	for _, s := range active {
		if s.IsTerminal() {
			t.Fatalf("expected %s to be non-terminal", s)
		}
	}
}

func TestMapStatus_KnownValues(t *testing.T) {
	for _, s := range []string{"planning", "clarifying", "executing", "iterating", "completed", "failed", "cancelled"} {
		if got := MapStatus(s); got != Status(s) {
			t.Fatalf("expected %s to map to itself, got %s", s, got)
		}
	}
}

func TestMapStatus_UnknownFallsBackToExecuting(t *testing.T) {
	for _, s := range []string{"", "compacting", "EXECUTING", "done"} {
		if got := MapStatus(s); got != StatusExecuting {
			t.Fatalf("expected %q to map to executing, got %s", s, got)
		}
	}
}
