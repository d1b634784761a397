package engine

import (
	"log/slog"
	"sync"
)

// Subscription is one live subscriber of the broker. Events are received on
// C, which is closed when the subscription is cancelled or dropped.
type Subscription struct {
	C <-chan Event

	broker *Broker
	ch     chan Event
}

// Cancel removes the subscription and closes its channel. Safe to call more
// than once and safe to race with Publish.
func (s *Subscription) Cancel() {
	s.broker.remove(s)
}

// Broker fans orchestrator events out to any number of subscribers. Each
// subscriber has a bounded queue; a subscriber that falls behind is dropped
// rather than allowed to back-pressure the engine.
type Broker struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	buffer int
	closed bool
}

// NewBroker creates a broker whose subscribers buffer up to buffer events.
func NewBroker(buffer int) *Broker {
	if buffer < 1 {
		buffer = 1
	}
	return &Broker{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber. On a closed broker the returned
// subscription's channel is already closed.
func (b *Broker) Subscribe() *Subscription {
	sub := &Subscription{broker: b, ch: make(chan Event, b.buffer)}
	sub.C = sub.ch

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(sub.ch)
		return sub
	}
	b.subs[sub] = struct{}{}
	return sub
}

// Publish delivers the event to every subscriber without ever blocking the
// caller. Subscribers whose queue is full are dropped.
func (b *Broker) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		select {
		case sub.ch <- ev:
		default:
			slog.Warn("dropping slow event subscriber",
				"orchestration_id", ev.OrchestrationID, "buffered", len(sub.ch))
			delete(b.subs, sub)
			close(sub.ch)
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close drops all subscribers and rejects future ones.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		delete(b.subs, sub)
		close(sub.ch)
	}
}

func (b *Broker) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s]; ok {
		delete(b.subs, s)
		close(s.ch)
	}
}
