package engine

import (
	"github.com/agentdeck/agentdeck/internal/domain/orchestration"
	"github.com/agentdeck/agentdeck/internal/domain/stream"
)

// DelegateToolName is the tool invocation convention that spawns a
// sub-agent. Any other tool name is not a subtask.
const DelegateToolName = "Task"

// tracker recognizes delegate tool invocations as sub-agent creation and
// drives each subtask's lifecycle against the store.
type tracker struct {
	store *Store
}

// observe filters invocations to delegates and records each not-yet-tracked
// one as a running subtask. Returns the newly created subtasks in order.
func (t *tracker) observe(orchestrationID string, invs []stream.ToolInvocation) []orchestration.Subtask {
	var started []orchestration.Subtask
	for _, inv := range invs {
		if inv.Name != DelegateToolName {
			continue
		}
		name := inv.InputString("description", orchestration.DefaultSubtaskName)
		subtaskType := inv.InputString("subagent_type", orchestration.SubtaskTypeUnknown)

		st, created := t.store.CreateSubtask(orchestrationID, inv.ID, name, subtaskType)
		if created {
			started = append(started, st)
		}
	}
	return started
}

// complete applies tool-result completion signals, correlated by the
// invocation ID. Duplicate signals for terminal subtasks are no-ops.
// Returns the subtasks that transitioned.
func (t *tracker) complete(orchestrationID string, results []stream.ToolResult) []orchestration.Subtask {
	var done []orchestration.Subtask
	for _, res := range results {
		st, ok := t.store.CompleteSubtask(orchestrationID, res.ToolUseID, res.IsError, res.CostUSD)
		if ok {
			done = append(done, st)
		}
	}
	return done
}
