package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentdeck/agentdeck/internal/domain/orchestration"
	"github.com/agentdeck/agentdeck/internal/domain/stream"
	"github.com/agentdeck/agentdeck/internal/port/agentproc"
)

const tracerName = "agentdeck"

// session is the per-orchestration worker. It exclusively owns one
// orchestration's mutable state for the lifetime of its driving process and
// applies every event in emission order: parse, track, append, publish.
type session struct {
	engine *Engine
	id     string

	procMu    sync.Mutex
	proc      agentproc.Process
	live      atomic.Bool
	cancelled atomic.Bool
}

func (s *session) alive() bool { return s.live.Load() }

func (s *session) cancel() {
	s.cancelled.Store(true)
	s.procMu.Lock()
	proc := s.proc
	s.procMu.Unlock()
	if proc != nil {
		if err := proc.Kill(); err != nil {
			s.engine.log.Warn("kill failed", "orchestration_id", s.id, "error", err)
		}
	}
}

func (s *session) send(ctx context.Context, message string) error {
	s.procMu.Lock()
	proc := s.proc
	s.procMu.Unlock()
	if proc == nil {
		return agentproc.ErrNotRunning
	}
	return proc.Send(ctx, message)
}

// run drives one process from spawn to exit. It is the only goroutine that
// mutates this orchestration's state.
func (s *session) run(req agentproc.SpawnRequest) {
	e := s.engine

	ctx, span := otel.Tracer(tracerName).Start(context.Background(), "orchestration",
		trace.WithAttributes(attribute.String("orchestration.id", s.id)))
	defer span.End()

	defer func() {
		s.live.Store(false)
		e.mu.Lock()
		if e.sessions[s.id] == s {
			delete(e.sessions, s.id)
		}
		e.mu.Unlock()
	}()

	proc, err := e.launcher.Spawn(ctx, req)
	if err != nil {
		e.log.Error("spawn failed", "orchestration_id", s.id, "error", err)
		if o, ok := e.store.Get(s.id); ok && !o.Status.IsTerminal() {
			e.broker.Publish(Event{OrchestrationID: s.id, Type: EventError})
			e.finalizeState(ctx, s.id, orchestration.StatusFailed)
		}
		s.finish(ctx)
		return
	}

	s.procMu.Lock()
	s.proc = proc
	s.procMu.Unlock()
	s.live.Store(true)

	if s.cancelled.Load() {
		// Cancel arrived during the spawn window, before cancel() could see
		// the process. Kill it now; the event loop below ends immediately.
		if err := proc.Kill(); err != nil {
			e.log.Warn("kill failed", "orchestration_id", s.id, "error", err)
		}
	}

	first := true
	for ev := range proc.Events() {
		if s.cancelled.Load() {
			break
		}
		if o, ok := e.store.Get(s.id); ok && o.Status.IsTerminal() {
			break
		}
		if first {
			// Process spawned and produced its first output.
			e.transition(s.id, orchestration.StatusExecuting)
			first = false
		}
		s.handle(ctx, ev)
	}

	exitErr := proc.Wait()

	if o, ok := e.store.Get(s.id); !ok || !o.Status.IsTerminal() {
		if exitErr != nil {
			e.log.Error("process exited abnormally",
				"orchestration_id", s.id, "error", exitErr)
			e.broker.Publish(Event{OrchestrationID: s.id, Type: EventError})
			e.finalizeState(ctx, s.id, orchestration.StatusFailed)
		} else {
			// Clean exit without an explicit result event still counts as
			// task completion.
			o, _ := e.store.Get(s.id)
			e.broker.Publish(Event{
				OrchestrationID: s.id,
				Type:            EventCompleted,
				TotalCostUSD:    o.TotalCostUSD,
			})
			e.finalizeState(ctx, s.id, orchestration.StatusCompleted)
		}
	}

	s.finish(ctx)
}

// finish publishes the terminal status-change — always the orchestration's
// last event — and records final metrics.
func (s *session) finish(ctx context.Context) {
	e := s.engine
	o, ok := e.store.Get(s.id)
	if !ok {
		return
	}

	e.broker.Publish(statusEvent(s.id, o.Status))

	switch o.Status {
	case orchestration.StatusCompleted:
		e.metrics.completed.Add(ctx, 1)
	case orchestration.StatusFailed:
		e.metrics.failed.Add(ctx, 1)
	case orchestration.StatusCancelled:
		e.metrics.cancelled.Add(ctx, 1)
	}
	e.metrics.cost.Record(ctx, o.TotalCostUSD)

	e.log.Info("orchestration finished",
		"orchestration_id", s.id, "status", o.Status, "total_cost_usd", o.TotalCostUSD)
}

// handle applies one raw process event. Malformed events degrade to empty
// projections and are absorbed here; they never abort the orchestration.
func (s *session) handle(ctx context.Context, ev stream.Envelope) {
	e := s.engine

	if ev.SessionID != "" {
		o, ok := e.store.Update(s.id, func(o *orchestration.Orchestration) {
			o.SessionID = ev.SessionID
		})
		if ok {
			e.archiveUpdate(ctx, &o)
		}
	}

	switch ev.Type {
	case stream.EventAssistant:
		s.handleAssistant(ctx, ev)
	case stream.EventUser:
		s.handleUser(ctx, ev)
	case stream.EventStatus:
		mapped := orchestration.MapStatus(ev.Status)
		if mapped.IsTerminal() {
			s.handleTerminalStatus(ctx, mapped, ev.TotalCostUSD)
		} else {
			e.transition(s.id, mapped)
		}
	case stream.EventResult:
		e.setCost(s.id, ev.TotalCostUSD)
		if ev.IsError {
			s.handleTerminalStatus(ctx, orchestration.StatusFailed, 0)
		} else {
			s.handleTerminalStatus(ctx, orchestration.StatusCompleted, 0)
		}
	}
	// Unknown event types are skipped, not errors.
}

func (s *session) handleAssistant(ctx context.Context, ev stream.Envelope) {
	e := s.engine
	if ev.Message == nil {
		return
	}

	if content := stream.EncodeBlocks(stream.Blocks(ev.Message.Content)); content != "" {
		if m, appended := e.store.AppendMessage(s.id, orchestration.RoleAssistant, content); appended {
			e.archiveMessage(ctx, &m)
			e.broker.Publish(messageEvent(&m))
		}
	}

	invs := stream.ExtractToolInvocations(ev.Message.Content)
	started := e.track.observe(s.id, invs)
	for i := range started {
		e.archiveSubtask(ctx, &started[i])
		e.broker.Publish(subtaskEvent(EventSubtaskStarted, &started[i]))
		e.metrics.subtasks.Add(ctx, 1)
	}
	if len(started) > 0 {
		// Waiting on sub-agent completions.
		e.transition(s.id, orchestration.StatusIterating)
	}
}

func (s *session) handleUser(ctx context.Context, ev stream.Envelope) {
	e := s.engine
	if ev.Message == nil {
		return
	}

	if text := stream.ExtractText(ev.Message.Content); text != "" {
		if m, appended := e.store.AppendMessage(s.id, orchestration.RoleUser, text); appended {
			e.archiveMessage(ctx, &m)
			e.broker.Publish(messageEvent(&m))
		}
	}

	results := stream.ExtractToolResults(ev.Message.Content)
	done := e.track.complete(s.id, results)
	for i := range done {
		e.archiveSubtask(ctx, &done[i])
		e.broker.Publish(subtaskEvent(EventSubtaskCompleted, &done[i]))
		e.addCost(s.id, done[i].CostUSD)
	}

	if len(done) > 0 && !e.store.AnyRunning(s.id) {
		if o, ok := e.store.Get(s.id); ok && o.Status == orchestration.StatusIterating {
			e.transition(s.id, orchestration.StatusExecuting)
		}
	}
}

// handleTerminalStatus finalizes the orchestration from within the event
// stream. The completed/error event precedes the terminal status-change,
// which the worker publishes on exit.
func (s *session) handleTerminalStatus(ctx context.Context, to orchestration.Status, reportedCost float64) {
	e := s.engine
	e.setCost(s.id, reportedCost)

	switch to {
	case orchestration.StatusCompleted:
		o, _ := e.store.Get(s.id)
		e.broker.Publish(Event{
			OrchestrationID: s.id,
			Type:            EventCompleted,
			TotalCostUSD:    o.TotalCostUSD,
		})
	case orchestration.StatusFailed:
		e.broker.Publish(Event{OrchestrationID: s.id, Type: EventError})
	}

	e.finalizeState(ctx, s.id, to)
}
