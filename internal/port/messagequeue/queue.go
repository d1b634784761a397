// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Queue is the port interface for publishing messages. This service only
// produces; consumers live in other services and attach to the stream
// directly.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Close shuts down the queue connection.
	Close() error
}

// Subject constants for NATS subjects used by AgentDeck.
const (
	// SubjectOrchestrationEvents is the prefix for mirrored orchestrator
	// events; the orchestration ID is appended as the final token
	// (orchestrations.events.{id}).
	SubjectOrchestrationEvents = "orchestrations.events"
)

// EventSubject returns the mirror subject for one orchestration.
func EventSubject(orchestrationID string) string {
	return SubjectOrchestrationEvents + "." + orchestrationID
}
