package nats

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/agentdeck/agentdeck/internal/engine"
	"github.com/agentdeck/agentdeck/internal/port/messagequeue"
)

// Mirror republishes orchestrator events from the subscription to JetStream,
// one subject per orchestration, until the subscription channel closes or
// ctx is cancelled. Publish failures are logged and skipped; the mirror is
// an observer, not part of the delivery guarantee.
func Mirror(ctx context.Context, q messagequeue.Queue, sub *engine.Subscription) {
	defer sub.Cancel()
	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				slog.Error("marshal mirrored event", "type", ev.Type, "error", err)
				continue
			}
			subject := messagequeue.EventSubject(ev.OrchestrationID)
			if err := q.Publish(ctx, subject, data); err != nil {
				slog.Warn("mirror publish failed", "subject", subject, "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
