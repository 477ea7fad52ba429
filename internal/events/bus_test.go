package events

import (
	"errors"
	"testing"
	"time"
)

func TestNewBus(t *testing.T) {
	bus := NewBus()
	if bus == nil {
		t.Fatal("expected non-nil bus")
	}
	if bus.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", bus.SubscriberCount())
	}
}

func TestBusSubscribeUnsubscribe(t *testing.T) {
	bus := NewBus()

	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	if bus.SubscriberCount() != 2 {
		t.Errorf("expected 2 subscribers, got %d", bus.SubscriberCount())
	}

	bus.Unsubscribe(ch1)
	if bus.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber, got %d", bus.SubscriberCount())
	}
	if _, ok := <-ch1; ok {
		t.Error("expected unsubscribed channel to be closed")
	}

	bus.Unsubscribe(ch1) // unknown channel is ignored
	if bus.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber, got %d", bus.SubscriberCount())
	}
	bus.Unsubscribe(ch2)
}

func TestBusPublishMultipleSubscribers(t *testing.T) {
	bus := NewBus()

	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()

	bus.Publish(NewEndpointProvisionedEvent("ep-1", 2, 30))

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case received := <-ch:
			if received.Type != EventEndpointProvisioned {
				t.Errorf("subscriber %d: expected type %s, got %s", i, EventEndpointProvisioned, received.Type)
			}
			if received.EndpointID != "ep-1" {
				t.Errorf("subscriber %d: expected ep-1, got %s", i, received.EndpointID)
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("subscriber %d: timeout waiting for event", i)
		}
	}
}

func TestBusPublishDropsWhenFull(t *testing.T) {
	bus := NewBusWithBuffer(1)
	ch := bus.Subscribe()

	bus.Publish(NewWorkloadInitializedEvent("ep-1", "shared_counter"))
	bus.Publish(NewWorkloadInitializedEvent("ep-2", "shared_counter"))
	bus.Publish(NewWorkloadInitializedEvent("ep-3", "shared_counter"))

	if got := bus.Dropped(); got != 2 {
		t.Errorf("expected 2 dropped deliveries, got %d", got)
	}

	received := <-ch
	if received.EndpointID != "ep-1" {
		t.Errorf("expected first event to be kept, got %s", received.EndpointID)
	}
}

func TestBusSubscribeFiltersTypes(t *testing.T) {
	bus := NewBus()
	failures := bus.Subscribe(EventProvisionFailed, EventAllocationCompleted)
	all := bus.Subscribe()

	bus.Publish(NewEndpointProvisionedEvent("ep-1", 0, 4))
	bus.Publish(NewProvisionFailedEvent("ep-2", errors.New("boom")))
	bus.Publish(NewAllocationCompletedEvent("disjoint", 2, 0))
	bus.Close()

	var got []EventType
	for e := range failures {
		got = append(got, e.Type)
	}
	want := []EventType{EventProvisionFailed, EventAllocationCompleted}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected %v, got %v", want, got)
	}

	count := 0
	for range all {
		count++
	}
	if count != 3 {
		t.Errorf("expected unfiltered subscriber to get 3 events, got %d", count)
	}
	if bus.Dropped() != 0 {
		t.Errorf("filtered events must not count as dropped, got %d", bus.Dropped())
	}
}

func TestParseType(t *testing.T) {
	for _, typ := range Types() {
		got, err := ParseType(string(typ))
		if err != nil || got != typ {
			t.Errorf("ParseType(%q) = %q, %v", typ, got, err)
		}
	}
	if _, err := ParseType("node_killed"); err == nil {
		t.Error("expected error for unknown event type")
	}
}

func TestBusClose(t *testing.T) {
	bus := NewBus()

	ch := bus.Subscribe()
	bus.Close()

	if bus.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers after close, got %d", bus.SubscriberCount())
	}
	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed")
	}
}

func TestEventCreation(t *testing.T) {
	t.Run("KindElided", func(t *testing.T) {
		event := NewKindElidedEvent("disjoint", "delegation", "zero weight")
		if event.Type != EventKindElided {
			t.Errorf("expected %s, got %s", EventKindElided, event.Type)
		}
		if event.Data.Kind != "delegation" || event.Data.Mode != "disjoint" {
			t.Errorf("unexpected data: %+v", event.Data)
		}
		if event.Data.Reason != "zero weight" {
			t.Errorf("expected reason, got %q", event.Data.Reason)
		}
	})

	t.Run("EndpointProvisioned", func(t *testing.T) {
		event := NewEndpointProvisionedEvent("ep-2", 5, 100)
		if event.Data.InitTokens != 5 || event.Data.PayloadTokens != 100 {
			t.Errorf("unexpected token counts: %+v", event.Data)
		}
	})

	t.Run("ProvisionFailed", func(t *testing.T) {
		event := NewProvisionFailedEvent("ep-1", errors.New("insufficient funds"))
		if event.Type != EventProvisionFailed {
			t.Errorf("expected %s, got %s", EventProvisionFailed, event.Type)
		}
		if event.Data.Error != "insufficient funds" {
			t.Errorf("expected error message, got %q", event.Data.Error)
		}

		empty := NewProvisionFailedEvent("ep-1", nil)
		if empty.Data.Error != "" {
			t.Errorf("expected empty error, got %q", empty.Data.Error)
		}
	})

	t.Run("AllocationCompleted", func(t *testing.T) {
		event := NewAllocationCompletedEvent("combined", 3, 3)
		if event.Data.Endpoints != 3 || event.Data.Instances != 3 {
			t.Errorf("unexpected data: %+v", event.Data)
		}
		if event.Timestamp.IsZero() {
			t.Error("expected timestamp to be set")
		}
	})
}
