package stream

import "encoding/json"

// Event type discriminants emitted by the agent CLI.
const (
	EventSystem    = "system"
	EventAssistant = "assistant"
	EventUser      = "user"
	EventStatus    = "status"
	EventResult    = "result"
)

// MessagePayload is the message body carried by assistant and user events.
// Content is deliberately untyped: its shape is not trusted and is only
// inspected through the extractors in this package.
type MessagePayload struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// Envelope is one raw event from the driving process. Fields are populated
// per event type; absent fields stay at their zero values.
type Envelope struct {
	Type         string          `json:"type"`
	Subtype      string          `json:"subtype,omitempty"`
	SessionID    string          `json:"session_id,omitempty"`
	Status       string          `json:"status,omitempty"`
	Message      *MessagePayload `json:"message,omitempty"`
	Result       string          `json:"result,omitempty"`
	IsError      bool            `json:"is_error,omitempty"`
	TotalCostUSD float64         `json:"total_cost_usd,omitempty"`
}

// Decode parses one raw line from the process stream into an Envelope.
// A line that is not a JSON object decodes to a zero Envelope and false;
// per the tolerance contract this is a skip, not an error.
func Decode(line []byte) (Envelope, bool) {
	var ev Envelope
	if err := json.Unmarshal(line, &ev); err != nil {
		return Envelope{}, false
	}
	return ev, true
}
