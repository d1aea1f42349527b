package events

import (
	"testing"

	"mintgate/core/types"
)

func evt(kind string) *types.Event {
	return &types.Event{Type: kind, Attributes: map[string]string{}}
}

func TestBufferBacklogCursor(t *testing.T) {
	buf := NewBuffer(8)
	buf.Emit(evt("a"))
	buf.Emit(evt("b"))
	buf.Emit(evt("c"))

	_, cancel, backlog := buf.Subscribe(1)
	defer cancel()

	if len(backlog) != 2 {
		t.Fatalf("expected 2 backlog events after cursor 1, got %d", len(backlog))
	}
	if backlog[0].Event.Type != "b" || backlog[1].Event.Type != "c" {
		t.Fatalf("unexpected backlog order: %v %v", backlog[0].Event.Type, backlog[1].Event.Type)
	}
}

func TestBufferLiveDelivery(t *testing.T) {
	buf := NewBuffer(8)
	ch, cancel, backlog := buf.Subscribe(0)
	defer cancel()
	if len(backlog) != 0 {
		t.Fatalf("expected empty backlog, got %d", len(backlog))
	}

	buf.Emit(evt("minted"))
	stored := <-ch
	if stored.Event.Type != "minted" {
		t.Fatalf("unexpected event type %q", stored.Event.Type)
	}
	if stored.Sequence != 1 {
		t.Fatalf("unexpected sequence %d", stored.Sequence)
	}
}

func TestBufferDropsOldest(t *testing.T) {
	buf := NewBuffer(2)
	buf.Emit(evt("a"))
	buf.Emit(evt("b"))
	buf.Emit(evt("c"))

	_, cancel, backlog := buf.Subscribe(0)
	defer cancel()
	if len(backlog) != 2 {
		t.Fatalf("expected bounded backlog of 2, got %d", len(backlog))
	}
	if backlog[0].Event.Type != "b" {
		t.Fatalf("oldest retained event should be b, got %q", backlog[0].Event.Type)
	}
}

func TestBufferSlowSubscriberDoesNotBlockEmit(t *testing.T) {
	buf := NewBuffer(4)
	_, cancel, _ := buf.Subscribe(0)
	defer cancel()

	// Fill well past the subscriber channel capacity without draining.
	for i := 0; i < subscriberBuffer*2; i++ {
		buf.Emit(evt("spam"))
	}
	if buf.Sequence() != uint64(subscriberBuffer*2) {
		t.Fatalf("emission blocked: sequence %d", buf.Sequence())
	}
}
