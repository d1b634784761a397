package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/agentdeck/agentdeck/internal/domain/orchestration"
)

// Store is the engine's authoritative in-memory state: orchestrations, their
// append-only transcripts and their subtasks. Volume per orchestration is
// bounded (one agent run), so transcripts are held whole.
type Store struct {
	mu        sync.RWMutex
	orchs     map[string]*orchestration.Orchestration
	messages  map[string][]orchestration.Message
	subtasks  map[string][]orchestration.Subtask
	nextMsgID map[string]int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		orchs:     make(map[string]*orchestration.Orchestration),
		messages:  make(map[string][]orchestration.Message),
		subtasks:  make(map[string][]orchestration.Subtask),
		nextMsgID: make(map[string]int64),
	}
}

// Put inserts or replaces an orchestration.
func (s *Store) Put(o *orchestration.Orchestration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *o
	s.orchs[o.ID] = &cp
}

// Get returns a copy of the orchestration, or false when unknown.
func (s *Store) Get(id string) (orchestration.Orchestration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orchs[id]
	if !ok {
		return orchestration.Orchestration{}, false
	}
	return *o, true
}

// Update applies fn to the orchestration under the store lock and returns
// the updated copy. Returns false when the orchestration is unknown.
func (s *Store) Update(id string, fn func(*orchestration.Orchestration)) (orchestration.Orchestration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orchs[id]
	if !ok {
		return orchestration.Orchestration{}, false
	}
	fn(o)
	return *o, true
}

// List returns orchestrations newest first, optionally filtered by project.
func (s *Store) List(project string) []orchestration.Orchestration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]orchestration.Orchestration, 0, len(s.orchs))
	for _, o := range s.orchs {
		if project != "" && o.Project != project {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// AppendMessage appends one transcript turn unless the tail message already
// holds an identical (role, content) pair. Equality is exact and
// case-sensitive; the check guards against the driving process re-emitting
// an already-delivered chunk. Returns the stored message and whether a new
// one was appended.
func (s *Store) AppendMessage(orchestrationID string, role orchestration.Role, content string) (orchestration.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.messages[orchestrationID]
	if n := len(msgs); n > 0 {
		tail := msgs[n-1]
		if tail.Role == role && tail.Content == content {
			return tail, false
		}
	}

	s.nextMsgID[orchestrationID]++
	m := orchestration.Message{
		ID:              s.nextMsgID[orchestrationID],
		OrchestrationID: orchestrationID,
		Role:            role,
		Content:         content,
		CreatedAt:       time.Now().UTC(),
	}
	s.messages[orchestrationID] = append(msgs, m)
	return m, true
}

// RestoreMessages seeds an orchestration's transcript from archived turns,
// keeping the monotonic ID counter ahead of the restored IDs so later
// appends do not collide.
func (s *Store) RestoreMessages(orchestrationID string, msgs []orchestration.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]orchestration.Message, len(msgs))
	copy(cp, msgs)
	s.messages[orchestrationID] = cp
	for _, m := range cp {
		if m.ID > s.nextMsgID[orchestrationID] {
			s.nextMsgID[orchestrationID] = m.ID
		}
	}
}

// RestoreSubtasks seeds an orchestration's subtasks from archived records.
func (s *Store) RestoreSubtasks(orchestrationID string, subs []orchestration.Subtask) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]orchestration.Subtask, len(subs))
	copy(cp, subs)
	s.subtasks[orchestrationID] = cp
}

// Messages returns the ordered transcript of an orchestration.
func (s *Store) Messages(orchestrationID string) []orchestration.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[orchestrationID]
	out := make([]orchestration.Message, len(msgs))
	copy(out, msgs)
	return out
}

// CreateSubtask records a newly observed subtask in running state. When the
// ID was already seen for this orchestration the existing subtask is
// returned and created is false.
func (s *Store) CreateSubtask(orchestrationID, id, name, subtaskType string) (orchestration.Subtask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range s.subtasks[orchestrationID] {
		if st.ID == id {
			return st, false
		}
	}

	st := orchestration.Subtask{
		ID:              id,
		OrchestrationID: orchestrationID,
		Name:            name,
		Type:            subtaskType,
		Status:          orchestration.SubtaskRunning,
		StartedAt:       time.Now().UTC(),
	}
	s.subtasks[orchestrationID] = append(s.subtasks[orchestrationID], st)
	return st, true
}

// CompleteSubtask transitions a running subtask to completed or failed,
// setting completedAt and accumulating the reported cost. A completion
// signal for an unknown or already-terminal subtask is a no-op (ok false).
func (s *Store) CompleteSubtask(orchestrationID, id string, failed bool, costUSD float64) (orchestration.Subtask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.subtasks[orchestrationID]
	for i := range list {
		if list[i].ID != id {
			continue
		}
		if list[i].Status != orchestration.SubtaskRunning && list[i].Status != orchestration.SubtaskPending {
			return list[i], false
		}
		now := time.Now().UTC()
		list[i].Status = orchestration.SubtaskCompleted
		if failed {
			list[i].Status = orchestration.SubtaskFailed
		}
		list[i].CompletedAt = &now
		list[i].CostUSD += costUSD
		return list[i], true
	}
	return orchestration.Subtask{}, false
}

// Subtasks returns the subtasks of an orchestration in observation order.
func (s *Store) Subtasks(orchestrationID string) []orchestration.Subtask {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.subtasks[orchestrationID]
	out := make([]orchestration.Subtask, len(list))
	copy(out, list)
	return out
}

// AnyRunning reports whether the orchestration still has a non-terminal subtask.
func (s *Store) AnyRunning(orchestrationID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.subtasks[orchestrationID] {
		if st.Status == orchestration.SubtaskRunning || st.Status == orchestration.SubtaskPending {
			return true
		}
	}
	return false
}
