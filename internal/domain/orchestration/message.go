package orchestration

import "time"

// Role identifies who produced a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript turn of an orchestration. Content is the
// serialized ordered sequence of content blocks (plain text fragments and
// tool invocation records). The transcript is append-only; IDs are monotonic
// per orchestration.
type Message struct {
	ID              int64     `json:"id"`
	OrchestrationID string    `json:"orchestration_id"`
	Role            Role      `json:"role"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"created_at"`
}
