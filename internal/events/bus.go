package events

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
)

const defaultBufferSize = 100

// Types lists every event type in the order a run emits them
func Types() []EventType {
	return []EventType{
		EventKindElided,
		EventEndpointProvisioned,
		EventWorkloadInitialized,
		EventProvisionFailed,
		EventAllocationCompleted,
	}
}

// ParseType returns the event type named s
func ParseType(s string) (EventType, error) {
	for _, t := range Types() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown event type %q (want one of %v)", s, Types())
}

// subscription is one subscriber channel and the event types it accepts.
// An empty filter accepts everything.
type subscription struct {
	ch     chan Event
	filter []EventType
}

func (s *subscription) accepts(t EventType) bool {
	return len(s.filter) == 0 || slices.Contains(s.filter, t)
}

// Bus fans events out to subscribers without ever blocking the publisher
type Bus struct {
	mu         sync.RWMutex
	subs       []*subscription
	bufferSize int
	dropped    atomic.Uint64
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return NewBusWithBuffer(defaultBufferSize)
}

// NewBusWithBuffer creates a bus whose subscribers buffer size events each
func NewBusWithBuffer(size int) *Bus {
	if size <= 0 {
		size = defaultBufferSize
	}
	return &Bus{bufferSize: size}
}

// Subscribe returns a channel receiving the given event types, or all of them when none are given
func (b *Bus) Subscribe(types ...EventType) <-chan Event {
	sub := &subscription{
		ch:     make(chan Event, b.bufferSize),
		filter: slices.Clone(types),
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	return sub.ch
}

// Unsubscribe removes a subscriber channel and closes it
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := slices.IndexFunc(b.subs, func(s *subscription) bool { return s.ch == ch })
	if i < 0 {
		return
	}
	close(b.subs[i].ch)
	b.subs = slices.Delete(b.subs, i, i+1)
}

// Publish delivers event to every subscriber that accepts its type.
// Deliveries to a full buffer are skipped and counted by Dropped.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if !sub.accepts(event.Type) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped returns how many deliveries were skipped because a buffer was full
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// SubscriberCount returns the number of active subscribers
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every subscriber channel; later Publish calls are no-ops
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		close(sub.ch)
	}
	b.subs = nil
}
