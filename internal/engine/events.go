package engine

import "github.com/agentdeck/agentdeck/internal/domain/orchestration"

// Event type constants for orchestrator events.
const (
	EventStatusChange     = "status-change"
	EventMessage          = "message"
	EventSubtaskStarted   = "subtask-started"
	EventSubtaskCompleted = "subtask-completed"
	EventCompleted        = "completed"
	EventError            = "error"
)

// MessageEvent is the transcript turn carried by a message event.
type MessageEvent struct {
	Role    orchestration.Role `json:"role"`
	Content string             `json:"content"`
}

// SubtaskEvent is the subtask snapshot carried by subtask events.
type SubtaskEvent struct {
	ID     string                      `json:"id"`
	Name   string                      `json:"name"`
	Type   string                      `json:"type"`
	Status orchestration.SubtaskStatus `json:"status"`
}

// Event is one orchestrator event published to the broadcast channel. Every
// event carries the orchestration ID; subscribers interested in a single
// orchestration filter on it themselves.
type Event struct {
	OrchestrationID string               `json:"orchestration_id"`
	Type            string               `json:"type"`
	Status          orchestration.Status `json:"status,omitempty"`
	Message         *MessageEvent        `json:"message,omitempty"`
	Subtask         *SubtaskEvent        `json:"subtask,omitempty"`
	TotalCostUSD    float64              `json:"total_cost_usd,omitempty"`
}

func statusEvent(id string, status orchestration.Status) Event {
	return Event{OrchestrationID: id, Type: EventStatusChange, Status: status}
}

func messageEvent(m *orchestration.Message) Event {
	return Event{
		OrchestrationID: m.OrchestrationID,
		Type:            EventMessage,
		Message:         &MessageEvent{Role: m.Role, Content: m.Content},
	}
}

func subtaskEvent(eventType string, st *orchestration.Subtask) Event {
	return Event{
		OrchestrationID: st.OrchestrationID,
		Type:            eventType,
		Subtask: &SubtaskEvent{
			ID:     st.ID,
			Name:   st.Name,
			Type:   st.Type,
			Status: st.Status,
		},
	}
}
