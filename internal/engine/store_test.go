package engine

import (
	"testing"
	"time"

	"github.com/agentdeck/agentdeck/internal/domain/orchestration"
)

func TestStore_AppendMessage_DedupesIdenticalTail(t *testing.T) {
	s := NewStore()

	if _, appended := s.AppendMessage("o1", orchestration.RoleAssistant, "hello"); !appended {
		t.Fatal("first append should succeed")
	}
	if _, appended := s.AppendMessage("o1", orchestration.RoleAssistant, "hello"); appended {
		t.Fatal("identical tail message should be deduplicated")
	}
	if got := len(s.Messages("o1")); got != 1 {
		t.Fatalf("expected 1 message, got %d", got)
	}
}

func TestStore_AppendMessage_RoleBreaksDedup(t *testing.T) {
	s := NewStore()
	s.AppendMessage("o1", orchestration.RoleAssistant, "hello")
	if _, appended := s.AppendMessage("o1", orchestration.RoleUser, "hello"); !appended {
		t.Fatal("same content under a different role is a new message")
	}
}

func TestStore_AppendMessage_CaseSensitive(t *testing.T) {
	s := NewStore()
	s.AppendMessage("o1", orchestration.RoleAssistant, "Hello")
	if _, appended := s.AppendMessage("o1", orchestration.RoleAssistant, "hello"); !appended {
		t.Fatal("dedup comparison must be case-sensitive")
	}
}

func TestStore_AppendMessage_OnlyTailConsidered(t *testing.T) {
	s := NewStore()
	s.AppendMessage("o1", orchestration.RoleAssistant, "a")
	s.AppendMessage("o1", orchestration.RoleAssistant, "b")
	if _, appended := s.AppendMessage("o1", orchestration.RoleAssistant, "a"); !appended {
		t.Fatal("a message equal to a non-tail entry must still append")
	}
	if got := len(s.Messages("o1")); got != 3 {
		t.Fatalf("expected 3 messages, got %d", got)
	}
}

func TestStore_MessageIDsMonotonic(t *testing.T) {
	s := NewStore()
	m1, _ := s.AppendMessage("o1", orchestration.RoleUser, "a")
	m2, _ := s.AppendMessage("o1", orchestration.RoleUser, "b")
	if m2.ID <= m1.ID {
		t.Fatalf("expected increasing IDs, got %d then %d", m1.ID, m2.ID)
	}
}

func TestStore_List_NewestFirstWithProjectFilter(t *testing.T) {
	s := NewStore()
	base := time.Now().UTC()
	s.Put(&orchestration.Orchestration{ID: "a", Project: "p1", CreatedAt: base.Add(-2 * time.Minute)})
	s.Put(&orchestration.Orchestration{ID: "b", Project: "p2", CreatedAt: base.Add(-time.Minute)})
	s.Put(&orchestration.Orchestration{ID: "c", Project: "p1", CreatedAt: base})

	all := s.List("")
	if len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
		t.Fatalf("expected newest-first order, got %+v", all)
	}

	p1 := s.List("p1")
	if len(p1) != 2 || p1[0].ID != "c" || p1[1].ID != "a" {
		t.Fatalf("expected filtered newest-first order, got %+v", p1)
	}
}

func TestStore_Update_ReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Put(&orchestration.Orchestration{ID: "o1", Status: orchestration.StatusPlanning})

	got, ok := s.Update("o1", func(o *orchestration.Orchestration) {
		o.Status = orchestration.StatusExecuting
	})
	if !ok || got.Status != orchestration.StatusExecuting {
		t.Fatalf("unexpected update result: %+v ok=%v", got, ok)
	}

	// Mutating the returned copy must not affect the stored entity.
	got.Status = orchestration.StatusFailed
	stored, _ := s.Get("o1")
	if stored.Status != orchestration.StatusExecuting {
		t.Fatalf("store leaked internal state: %+v", stored)
	}
}

func TestStore_CreateSubtask_IdempotentPerID(t *testing.T) {
	s := NewStore()
	first, created := s.CreateSubtask("o1", "t1", "build", "code")
	if !created || first.Status != orchestration.SubtaskRunning {
		t.Fatalf("unexpected first create: %+v created=%v", first, created)
	}
	_, created = s.CreateSubtask("o1", "t1", "other name", "test")
	if created {
		t.Fatal("re-observing a known subtask ID must not create a new one")
	}
	subs := s.Subtasks("o1")
	if len(subs) != 1 || subs[0].Name != "build" {
		t.Fatalf("original subtask should be untouched: %+v", subs)
	}
}

func TestStore_CompleteSubtask_TerminalIsSticky(t *testing.T) {
	s := NewStore()
	s.CreateSubtask("o1", "t1", "build", "code")

	done, ok := s.CompleteSubtask("o1", "t1", false, 0.5)
	if !ok || done.Status != orchestration.SubtaskCompleted || done.CompletedAt == nil {
		t.Fatalf("unexpected completion: %+v ok=%v", done, ok)
	}
	if done.CostUSD != 0.5 {
		t.Fatalf("expected cost 0.5, got %v", done.CostUSD)
	}

	// A duplicate completion signal must be a no-op.
	if _, ok := s.CompleteSubtask("o1", "t1", true, 1.0); ok {
		t.Fatal("duplicate completion should be rejected")
	}
	subs := s.Subtasks("o1")
	if subs[0].Status != orchestration.SubtaskCompleted || subs[0].CostUSD != 0.5 {
		t.Fatalf("terminal subtask mutated by duplicate signal: %+v", subs[0])
	}
}

func TestStore_CompleteSubtask_UnknownID(t *testing.T) {
	s := NewStore()
	if _, ok := s.CompleteSubtask("o1", "ghost", false, 0); ok {
		t.Fatal("unknown subtask completion should be a no-op")
	}
}

func TestStore_AnyRunning(t *testing.T) {
	s := NewStore()
	if s.AnyRunning("o1") {
		t.Fatal("no subtasks yet")
	}
	s.CreateSubtask("o1", "t1", "a", "code")
	s.CreateSubtask("o1", "t2", "b", "test")
	if !s.AnyRunning("o1") {
		t.Fatal("expected running subtasks")
	}
	s.CompleteSubtask("o1", "t1", false, 0)
	if !s.AnyRunning("o1") {
		t.Fatal("one subtask still running")
	}
	s.CompleteSubtask("o1", "t2", true, 0)
	if s.AnyRunning("o1") {
		t.Fatal("all subtasks terminal")
	}
}
