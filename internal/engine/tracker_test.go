package engine

import (
	"testing"

	"github.com/agentdeck/agentdeck/internal/domain/orchestration"
	"github.com/agentdeck/agentdeck/internal/domain/stream"
)

func TestTracker_ObserveFiltersDelegates(t *testing.T) {
	tr := &tracker{store: NewStore()}

	started := tr.observe("o1", []stream.ToolInvocation{
		{ID: "t1", Name: "Read"},
		{ID: "t2", Name: DelegateToolName, Input: map[string]any{"description": "write tests", "subagent_type": "test"}},
		{ID: "t3", Name: "Bash"},
	})
	if len(started) != 1 {
		t.Fatalf("expected 1 subtask, got %d", len(started))
	}
	st := started[0]
	if st.ID != "t2" || st.Name != "write tests" || st.Type != "test" {
		t.Fatalf("unexpected subtask: %+v", st)
	}
	if st.Status != orchestration.SubtaskRunning {
		t.Fatalf("expected running, got %s", st.Status)
	}
}

func TestTracker_ObserveDefaults(t *testing.T) {
	tr := &tracker{store: NewStore()}

	started := tr.observe("o1", []stream.ToolInvocation{
		{ID: "t1", Name: DelegateToolName},
	})
	if len(started) != 1 {
		t.Fatalf("expected 1 subtask, got %d", len(started))
	}
	if started[0].Name != orchestration.DefaultSubtaskName {
		t.Fatalf("expected default name, got %q", started[0].Name)
	}
	if started[0].Type != orchestration.SubtaskTypeUnknown {
		t.Fatalf("expected unknown type, got %q", started[0].Type)
	}
}

func TestTracker_ObserveUnknownTypeCarriedVerbatim(t *testing.T) {
	tr := &tracker{store: NewStore()}

	started := tr.observe("o1", []stream.ToolInvocation{
		{ID: "t1", Name: DelegateToolName, Input: map[string]any{"subagent_type": "security-audit"}},
	})
	if started[0].Type != "security-audit" {
		t.Fatalf("expected verbatim type, got %q", started[0].Type)
	}
}

func TestTracker_ReobservationIsNoOp(t *testing.T) {
	tr := &tracker{store: NewStore()}
	invs := []stream.ToolInvocation{{ID: "t1", Name: DelegateToolName}}

	if started := tr.observe("o1", invs); len(started) != 1 {
		t.Fatalf("expected first observation to create, got %d", len(started))
	}
	if started := tr.observe("o1", invs); len(started) != 0 {
		t.Fatalf("expected re-observation to create nothing, got %d", len(started))
	}
}

func TestTracker_CompleteCorrelatesByID(t *testing.T) {
	tr := &tracker{store: NewStore()}
	tr.observe("o1", []stream.ToolInvocation{
		{ID: "t1", Name: DelegateToolName},
		{ID: "t2", Name: DelegateToolName},
	})

	done := tr.complete("o1", []stream.ToolResult{
		{ToolUseID: "t2", IsError: true, CostUSD: 0.3},
		{ToolUseID: "ghost"},
	})
	if len(done) != 1 {
		t.Fatalf("expected 1 transition, got %d", len(done))
	}
	if done[0].ID != "t2" || done[0].Status != orchestration.SubtaskFailed {
		t.Fatalf("unexpected completion: %+v", done[0])
	}
	if done[0].CostUSD != 0.3 {
		t.Fatalf("expected cost 0.3, got %v", done[0].CostUSD)
	}

	// Duplicate completion signals do not transition again.
	if done := tr.complete("o1", []stream.ToolResult{{ToolUseID: "t2"}}); len(done) != 0 {
		t.Fatalf("expected duplicate signal to be a no-op, got %+v", done)
	}
}
