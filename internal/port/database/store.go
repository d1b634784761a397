// Package database defines the archive store port. The engine's in-memory
// state stays authoritative for a live orchestration; the archive provides
// durability and survives restarts.
package database

import (
	"context"

	"github.com/agentdeck/agentdeck/internal/domain/orchestration"
)

// Store is the port interface for durable orchestration records.
type Store interface {
	// CreateOrchestration persists a newly created orchestration.
	CreateOrchestration(ctx context.Context, o *orchestration.Orchestration) error

	// UpdateOrchestration persists status, cost and completion changes.
	UpdateOrchestration(ctx context.Context, o *orchestration.Orchestration) error

	// ListOrchestrations returns orchestrations newest first, optionally
	// filtered by project (empty string means all).
	ListOrchestrations(ctx context.Context, project string) ([]orchestration.Orchestration, error)

	// AppendMessage persists one transcript turn.
	AppendMessage(ctx context.Context, m *orchestration.Message) error

	// ListMessages returns the ordered transcript of an orchestration.
	ListMessages(ctx context.Context, orchestrationID string) ([]orchestration.Message, error)

	// UpsertSubtask persists a subtask creation or transition.
	UpsertSubtask(ctx context.Context, st *orchestration.Subtask) error

	// ListSubtasks returns the subtasks of an orchestration ordered by start time.
	ListSubtasks(ctx context.Context, orchestrationID string) ([]orchestration.Subtask, error)
}
