// Package engine implements the orchestration engine: it owns orchestration
// lifecycles, drives the external agent CLI process behind the agentproc
// port, interprets its event stream, tracks sub-agent subtasks, accumulates
// the transcript and running cost, and fans orchestrator events out to
// subscribers.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentdeck/agentdeck/internal/config"
	"github.com/agentdeck/agentdeck/internal/domain"
	"github.com/agentdeck/agentdeck/internal/domain/orchestration"
	"github.com/agentdeck/agentdeck/internal/port/agentproc"
	"github.com/agentdeck/agentdeck/internal/port/database"
)

const maxNameLen = 80

// Engine is the orchestration session manager. Each live orchestration is
// driven by its own worker goroutine which exclusively owns that
// orchestration's mutable state; callers observe progress only through
// events.
type Engine struct {
	log      *slog.Logger
	launcher agentproc.Launcher
	store    *Store
	track    *tracker
	broker   *Broker
	archive  database.Store
	metrics  *metrics
	cfg      config.Engine

	mu       sync.Mutex
	sessions map[string]*session
}

// New creates an Engine. archive may be nil to disable write-through
// persistence.
func New(log *slog.Logger, launcher agentproc.Launcher, archive database.Store, cfg config.Engine) (*Engine, error) {
	m, err := newMetrics()
	if err != nil {
		return nil, fmt.Errorf("engine metrics: %w", err)
	}

	store := NewStore()
	return &Engine{
		log:      log,
		launcher: launcher,
		store:    store,
		track:    &tracker{store: store},
		broker:   NewBroker(cfg.EventBuffer),
		archive:  archive,
		metrics:  m,
		cfg:      cfg,
		sessions: make(map[string]*session),
	}, nil
}

// Subscribe registers an event subscriber on the engine's broadcast channel.
func (e *Engine) Subscribe() *Subscription {
	return e.broker.Subscribe()
}

// Hydrate loads archived orchestrations into the in-memory store. Runs once
// at startup, before any orchestration is created. A driving process does
// not survive a restart of this service, so orchestrations that were live
// when the previous instance died are marked failed, along with their
// still-running subtasks.
func (e *Engine) Hydrate(ctx context.Context) error {
	if e.archive == nil {
		return nil
	}

	orchs, err := e.archive.ListOrchestrations(ctx, "")
	if err != nil {
		return fmt.Errorf("list archived orchestrations: %w", err)
	}

	for i := range orchs {
		o := orchs[i]
		if !o.Status.IsTerminal() {
			o.Status = orchestration.StatusFailed
			now := time.Now().UTC()
			o.CompletedAt = &now
			e.archiveUpdate(ctx, &o)
		}
		e.store.Put(&o)

		msgs, err := e.archive.ListMessages(ctx, o.ID)
		if err != nil {
			return fmt.Errorf("list archived messages for %s: %w", o.ID, err)
		}
		e.store.RestoreMessages(o.ID, msgs)

		subs, err := e.archive.ListSubtasks(ctx, o.ID)
		if err != nil {
			return fmt.Errorf("list archived subtasks for %s: %w", o.ID, err)
		}
		for j := range subs {
			st := &subs[j]
			if st.Status == orchestration.SubtaskRunning || st.Status == orchestration.SubtaskPending {
				st.Status = orchestration.SubtaskFailed
				now := time.Now().UTC()
				st.CompletedAt = &now
				e.archiveSubtask(ctx, st)
			}
		}
		e.store.RestoreSubtasks(o.ID, subs)
	}

	if len(orchs) > 0 {
		e.log.Info("restored archived orchestrations", "count", len(orchs))
	}
	return nil
}

// Create allocates an orchestration in planning and asynchronously spawns
// the driving process with the task as its initial instruction. It returns
// before the process produces output.
func (e *Engine) Create(ctx context.Context, req orchestration.CreateRequest) (*orchestration.Orchestration, error) {
	if strings.TrimSpace(req.Task) == "" {
		return nil, fmt.Errorf("task is required: %w", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(req.Project) == "" {
		return nil, fmt.Errorf("project is required: %w", domain.ErrInvalidArgument)
	}

	o := &orchestration.Orchestration{
		ID:           uuid.NewString(),
		Name:         taskName(req.Task),
		Project:      req.Project,
		OriginalTask: req.Task,
		Status:       orchestration.StatusPlanning,
		CreatedAt:    time.Now().UTC(),
	}
	e.store.Put(o)
	e.archiveCreate(ctx, o)

	if m, appended := e.store.AppendMessage(o.ID, orchestration.RoleUser, req.Task); appended {
		e.archiveMessage(ctx, &m)
		e.broker.Publish(messageEvent(&m))
	}

	s := &session{engine: e, id: o.ID}
	e.mu.Lock()
	e.sessions[o.ID] = s
	e.mu.Unlock()

	go s.run(agentproc.SpawnRequest{Prompt: req.Task, WorkDir: req.ProjectPath})

	e.metrics.started.Add(ctx, 1)
	e.log.Info("orchestration created",
		"orchestration_id", o.ID, "project", o.Project)

	cp := *o
	return &cp, nil
}

// Resume appends a follow-up user message and either feeds it to the still
// live process or spawns a fresh process continuing from the persisted
// transcript. The orchestration transitions to executing.
func (e *Engine) Resume(ctx context.Context, id, message string) error {
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("message is required: %w", domain.ErrInvalidArgument)
	}

	o, ok := e.store.Get(id)
	if !ok {
		return fmt.Errorf("orchestration %s: %w", id, domain.ErrNotFound)
	}
	if o.Status.IsTerminal() {
		return fmt.Errorf("orchestration %s is %s: %w", id, o.Status, domain.ErrInvalidState)
	}

	if m, appended := e.store.AppendMessage(id, orchestration.RoleUser, message); appended {
		e.archiveMessage(ctx, &m)
		e.broker.Publish(messageEvent(&m))
	}

	e.mu.Lock()
	s := e.sessions[id]
	e.mu.Unlock()

	if s != nil && s.alive() {
		if err := s.send(ctx, message); err == nil {
			e.transition(id, orchestration.StatusExecuting)
			return nil
		}
		// The process died under us; fall through to a fresh spawn.
		e.log.Warn("resume: send to live process failed, respawning",
			"orchestration_id", id)
	}

	fresh := &session{engine: e, id: id}
	e.mu.Lock()
	e.sessions[id] = fresh
	e.mu.Unlock()

	go fresh.run(agentproc.SpawnRequest{
		Prompt:          message,
		ResumeSessionID: o.SessionID,
	})

	e.transition(id, orchestration.StatusExecuting)
	return nil
}

// Cancel terminates a live orchestration's process tree and marks it
// cancelled. Idempotent: cancelling an unknown or already-terminal
// orchestration returns false and changes nothing.
func (e *Engine) Cancel(ctx context.Context, id string) bool {
	o, ok := e.store.Get(id)
	if !ok || o.Status.IsTerminal() {
		return false
	}

	e.mu.Lock()
	s := e.sessions[id]
	e.mu.Unlock()

	if s == nil {
		return false
	}
	if !e.finalizeState(ctx, id, orchestration.StatusCancelled) {
		return false
	}

	// The worker may still be inside Spawn; cancel marks the session so a
	// late-arriving process is killed as soon as it exists.
	s.cancel()
	e.log.Info("orchestration cancelled", "orchestration_id", id)
	return true
}

// Get returns one orchestration.
func (e *Engine) Get(_ context.Context, id string) (*orchestration.Orchestration, error) {
	o, ok := e.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("orchestration %s: %w", id, domain.ErrNotFound)
	}
	return &o, nil
}

// List returns orchestrations newest first, optionally filtered by project.
func (e *Engine) List(_ context.Context, project string) []orchestration.Orchestration {
	return e.store.List(project)
}

// Messages returns the ordered transcript of an orchestration.
func (e *Engine) Messages(_ context.Context, id string) ([]orchestration.Message, error) {
	if _, ok := e.store.Get(id); !ok {
		return nil, fmt.Errorf("orchestration %s: %w", id, domain.ErrNotFound)
	}
	return e.store.Messages(id), nil
}

// Subtasks returns the subtasks of an orchestration in observation order.
func (e *Engine) Subtasks(_ context.Context, id string) ([]orchestration.Subtask, error) {
	if _, ok := e.store.Get(id); !ok {
		return nil, fmt.Errorf("orchestration %s: %w", id, domain.ErrNotFound)
	}
	return e.store.Subtasks(id), nil
}

// Shutdown cancels every live orchestration and closes the broadcast channel.
func (e *Engine) Shutdown(ctx context.Context) {
	e.mu.Lock()
	ids := make([]string, 0, len(e.sessions))
	for id := range e.sessions {
		ids = append(ids, id)
	}
	e.mu.Unlock()

	for _, id := range ids {
		e.Cancel(ctx, id)
	}
	e.broker.Close()
}

// transition moves an orchestration to a non-terminal status, publishing a
// status-change event. Same-status and terminal orchestrations are left
// untouched.
func (e *Engine) transition(id string, to orchestration.Status) {
	if to.IsTerminal() {
		return
	}
	changed := false
	o, ok := e.store.Update(id, func(o *orchestration.Orchestration) {
		if o.Status.IsTerminal() || o.Status == to {
			return
		}
		o.Status = to
		changed = true
	})
	if !ok || !changed {
		return
	}
	e.archiveUpdate(context.Background(), &o)
	e.broker.Publish(statusEvent(id, to))
}

// finalizeState moves an orchestration to a terminal status, setting
// completedAt exactly once. The terminal status-change event itself is
// published by the worker as the orchestration's last event. Returns false
// when the orchestration was already terminal.
func (e *Engine) finalizeState(ctx context.Context, id string, to orchestration.Status) bool {
	changed := false
	o, ok := e.store.Update(id, func(o *orchestration.Orchestration) {
		if o.Status.IsTerminal() {
			return
		}
		o.Status = to
		now := time.Now().UTC()
		o.CompletedAt = &now
		changed = true
	})
	if !ok || !changed {
		return false
	}
	e.archiveUpdate(ctx, &o)
	return true
}

// addCost raises the orchestration's monotonically non-decreasing cost
// accumulator by delta (ignored when non-positive).
func (e *Engine) addCost(id string, delta float64) {
	if delta <= 0 {
		return
	}
	o, ok := e.store.Update(id, func(o *orchestration.Orchestration) {
		o.TotalCostUSD += delta
	})
	if ok {
		e.archiveUpdate(context.Background(), &o)
	}
}

// setCost replaces the accumulator with an authoritative total reported by
// the process, guarded so the value never decreases.
func (e *Engine) setCost(id string, total float64) {
	if total <= 0 {
		return
	}
	o, ok := e.store.Update(id, func(o *orchestration.Orchestration) {
		if total > o.TotalCostUSD {
			o.TotalCostUSD = total
		}
	})
	if ok {
		e.archiveUpdate(context.Background(), &o)
	}
}

func (e *Engine) archiveCreate(ctx context.Context, o *orchestration.Orchestration) {
	if e.archive == nil {
		return
	}
	if err := e.archive.CreateOrchestration(ctx, o); err != nil {
		e.log.Warn("archive create failed", "orchestration_id", o.ID, "error", err)
	}
}

func (e *Engine) archiveUpdate(ctx context.Context, o *orchestration.Orchestration) {
	if e.archive == nil {
		return
	}
	if err := e.archive.UpdateOrchestration(ctx, o); err != nil {
		e.log.Warn("archive update failed", "orchestration_id", o.ID, "error", err)
	}
}

func (e *Engine) archiveMessage(ctx context.Context, m *orchestration.Message) {
	if e.archive == nil {
		return
	}
	if err := e.archive.AppendMessage(ctx, m); err != nil {
		e.log.Warn("archive message failed", "orchestration_id", m.OrchestrationID, "error", err)
	}
}

func (e *Engine) archiveSubtask(ctx context.Context, st *orchestration.Subtask) {
	if e.archive == nil {
		return
	}
	if err := e.archive.UpsertSubtask(ctx, st); err != nil {
		e.log.Warn("archive subtask failed", "orchestration_id", st.OrchestrationID, "error", err)
	}
}

// taskName derives the human label of an orchestration from its initiating
// instruction.
func taskName(task string) string {
	name := strings.TrimSpace(task)
	if i := strings.IndexByte(name, '\n'); i >= 0 {
		name = name[:i]
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	return name
}
