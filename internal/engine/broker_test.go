package engine

import "testing"

func TestBroker_FanOut(t *testing.T) {
	b := NewBroker(4)
	s1 := b.Subscribe()
	s2 := b.Subscribe()

	b.Publish(Event{OrchestrationID: "o1", Type: EventStatusChange})

	for _, sub := range []*Subscription{s1, s2} {
		ev, ok := <-sub.C
		if !ok || ev.OrchestrationID != "o1" {
			t.Fatalf("subscriber missed event: %+v ok=%v", ev, ok)
		}
	}
}

func TestBroker_SlowSubscriberDropped(t *testing.T) {
	b := NewBroker(1)
	slow := b.Subscribe()
	fast := b.Subscribe()

	// Fill the slow subscriber's queue, then overflow it.
	b.Publish(Event{OrchestrationID: "o1"})
	<-fast.C
	b.Publish(Event{OrchestrationID: "o2"})

	if got := b.SubscriberCount(); got != 1 {
		t.Fatalf("expected slow subscriber to be dropped, %d remain", got)
	}

	// The slow subscriber keeps its buffered event, then sees a closed channel.
	if ev := <-slow.C; ev.OrchestrationID != "o1" {
		t.Fatalf("unexpected buffered event: %+v", ev)
	}
	if _, ok := <-slow.C; ok {
		t.Fatal("expected closed channel after drop")
	}

	// The fast subscriber is unaffected.
	if ev := <-fast.C; ev.OrchestrationID != "o2" {
		t.Fatalf("fast subscriber missed event: %+v", ev)
	}
}

func TestBroker_CancelIsIdempotent(t *testing.T) {
	b := NewBroker(1)
	sub := b.Subscribe()
	sub.Cancel()
	sub.Cancel()

	if got := b.SubscriberCount(); got != 0 {
		t.Fatalf("expected 0 subscribers, got %d", got)
	}
	if _, ok := <-sub.C; ok {
		t.Fatal("expected closed channel")
	}
}

func TestBroker_SubscribeAfterClose(t *testing.T) {
	b := NewBroker(1)
	b.Close()
	sub := b.Subscribe()
	if _, ok := <-sub.C; ok {
		t.Fatal("subscription on closed broker must start closed")
	}
	// Publishing after close must not panic.
	b.Publish(Event{OrchestrationID: "o1"})
}
