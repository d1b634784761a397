package orchestration

import "time"

// SubtaskStatus represents the current state of a subtask.
type SubtaskStatus string

const (
	SubtaskPending   SubtaskStatus = "pending"
	SubtaskRunning   SubtaskStatus = "running"
	SubtaskCompleted SubtaskStatus = "completed"
	SubtaskFailed    SubtaskStatus = "failed"
)

// Well-known subtask types inferred from the delegate invocation's
// subagent_type input. Unrecognized types are carried through verbatim
// ("unknown" when absent) rather than coerced; persistence stores the type
// as free text.
const (
	SubtaskTypeCode    = "code"
	SubtaskTypeTest    = "test"
	SubtaskTypeReview  = "review"
	SubtaskTypeFix     = "fix"
	SubtaskTypeUnknown = "unknown"
)

// DefaultSubtaskName labels a delegate invocation that carries no
// description input.
const DefaultSubtaskName = "Sub-agent"

// Subtask is one sub-agent's unit of work, discovered from a delegate tool
// invocation inside an assistant message. Its ID is the invocation's own
// identifier and is unique within the orchestration; once observed a subtask
// only transitions, it is never re-created.
type Subtask struct {
	ID              string        `json:"id"`
	OrchestrationID string        `json:"orchestration_id"`
	Name            string        `json:"name"`
	Type            string        `json:"type"`
	Status          SubtaskStatus `json:"status"`
	CostUSD         float64       `json:"cost_usd"`
	StartedAt       time.Time     `json:"started_at"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
}
