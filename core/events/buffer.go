package events

import (
	"sync"

	"mintgate/core/types"
)

// Stored pairs an event with its position in the stream so subscribers can
// resume from a cursor.
type Stored struct {
	Sequence uint64       `json:"sequence"`
	Event    *types.Event `json:"event"`
}

const subscriberBuffer = 64

// Buffer retains a bounded backlog of emitted events and fans them out to
// subscribers. Emission never blocks: subscribers that fall behind miss
// events and are expected to resync from the backlog cursor.
type Buffer struct {
	mu       sync.Mutex
	capacity int
	seq      uint64
	backlog  []Stored
	subs     map[uint64]chan Stored
	nextSub  uint64
}

// NewBuffer constructs a buffer retaining at most capacity events.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Buffer{
		capacity: capacity,
		subs:     make(map[uint64]chan Stored),
	}
}

// Emit implements the Emitter interface.
func (b *Buffer) Emit(evt *types.Event) {
	if b == nil || evt == nil {
		return
	}
	b.mu.Lock()
	b.seq++
	stored := Stored{Sequence: b.seq, Event: evt}
	b.backlog = append(b.backlog, stored)
	if len(b.backlog) > b.capacity {
		b.backlog = b.backlog[len(b.backlog)-b.capacity:]
	}
	for _, ch := range b.subs {
		select {
		case ch <- stored:
		default:
		}
	}
	b.mu.Unlock()
}

// Subscribe registers a new subscriber and returns the live channel, a cancel
// function, and the backlog of events recorded after the supplied cursor.
func (b *Buffer) Subscribe(cursor uint64) (<-chan Stored, func(), []Stored) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var backlog []Stored
	for _, stored := range b.backlog {
		if stored.Sequence > cursor {
			backlog = append(backlog, stored)
		}
	}

	id := b.nextSub
	b.nextSub++
	ch := make(chan Stored, subscriberBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		if existing, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(existing)
		}
		b.mu.Unlock()
	}
	return ch, cancel, backlog
}

// Sequence returns the sequence number of the most recently emitted event.
func (b *Buffer) Sequence() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq
}
