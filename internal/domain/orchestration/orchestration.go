// Package orchestration defines the Orchestration domain entity: one
// top-level task worked by an AI agent process, tracked from planning
// through a terminal outcome.
package orchestration

import "time"

// Status represents the current state of an orchestration.
type Status string

const (
	StatusPlanning   Status = "planning"
	StatusClarifying Status = "clarifying"
	StatusExecuting  Status = "executing"
	StatusIterating  Status = "iterating"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether no further transitions occur from s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// MapStatus converts a status string received from the driving process to a
// known Status. Unrecognized values map to executing rather than being
// rejected, so new upstream status names do not break the engine.
func MapStatus(s string) Status {
	switch Status(s) {
	case StatusPlanning, StatusClarifying, StatusExecuting, StatusIterating,
		StatusCompleted, StatusFailed, StatusCancelled:
		return Status(s)
	default:
		return StatusExecuting
	}
}

// Orchestration represents one top-level task being worked by an agent.
type Orchestration struct {
	ID           string     `json:"id"`
	SessionID    string     `json:"session_id,omitempty"`
	Name         string     `json:"name"`
	Project      string     `json:"project"`
	OriginalTask string     `json:"original_task"`
	Status       Status     `json:"status"`
	TotalCostUSD float64    `json:"total_cost_usd"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// CreateRequest holds the fields needed to start a new orchestration.
type CreateRequest struct {
	Task        string `json:"task"`
	Project     string `json:"project"`
	ProjectPath string `json:"project_path"`
}

// ResumeRequest holds the follow-up instruction for a live or resumable
// orchestration.
type ResumeRequest struct {
	Message string `json:"message"`
}
