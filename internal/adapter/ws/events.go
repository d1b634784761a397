package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/agentdeck/agentdeck/internal/engine"
)

// BroadcastEvent is a convenience method that marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}

// Relay forwards orchestrator events from the subscription to all connected
// clients until the subscription channel closes or ctx is cancelled. The
// event's type doubles as the WebSocket message type.
func (h *Hub) Relay(ctx context.Context, sub *engine.Subscription) {
	defer sub.Cancel()
	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			h.BroadcastEvent(ctx, ev.Type, ev)
		case <-ctx.Done():
			return
		}
	}
}
