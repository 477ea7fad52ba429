// Package events provides an event system for allocation and provisioning notifications.
package events

import "time"

// EventType represents the type of event
type EventType string

const (
	// EventKindElided is emitted when a workload kind gets no quota for the run
	EventKindElided EventType = "kind_elided"
	// EventEndpointProvisioned is emitted after an endpoint's tokens are minted
	EventEndpointProvisioned EventType = "endpoint_provisioned"
	// EventWorkloadInitialized is emitted after a workload instance is initialized on its endpoint
	EventWorkloadInitialized EventType = "workload_initialized"
	// EventProvisionFailed is emitted when minting fails and the run is aborted
	EventProvisionFailed EventType = "provision_failed"
	// EventAllocationCompleted is emitted once every endpoint has been assembled
	EventAllocationCompleted EventType = "allocation_completed"
)

// Event represents an allocation event
type Event struct {
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	EndpointID string    `json:"endpoint_id,omitempty"`
	Data       EventData `json:"data,omitempty"`
}

// EventData contains event-specific data
type EventData struct {
	Mode          string `json:"mode,omitempty"`
	Kind          string `json:"kind,omitempty"`
	Reason        string `json:"reason,omitempty"`
	InitTokens    int    `json:"init_tokens,omitempty"`
	PayloadTokens int    `json:"payload_tokens,omitempty"`
	Endpoints     int    `json:"endpoints,omitempty"`
	Instances     int    `json:"instances,omitempty"`
	Error         string `json:"error,omitempty"`
}

// NewKindElidedEvent creates an event for a kind dropped from the run
func NewKindElidedEvent(mode, kind, reason string) Event {
	return Event{
		Type:      EventKindElided,
		Timestamp: time.Now(),
		Data: EventData{
			Mode:   mode,
			Kind:   kind,
			Reason: reason,
		},
	}
}

// NewEndpointProvisionedEvent creates an event for a provisioned endpoint
func NewEndpointProvisionedEvent(endpointID string, initTokens, payloadTokens int) Event {
	return Event{
		Type:       EventEndpointProvisioned,
		Timestamp:  time.Now(),
		EndpointID: endpointID,
		Data: EventData{
			InitTokens:    initTokens,
			PayloadTokens: payloadTokens,
		},
	}
}

// NewWorkloadInitializedEvent creates an event for an initialized workload
func NewWorkloadInitializedEvent(endpointID, kind string) Event {
	return Event{
		Type:       EventWorkloadInitialized,
		Timestamp:  time.Now(),
		EndpointID: endpointID,
		Data:       EventData{Kind: kind},
	}
}

// NewProvisionFailedEvent creates an event for a failed provisioning call
func NewProvisionFailedEvent(endpointID string, err error) Event {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	return Event{
		Type:       EventProvisionFailed,
		Timestamp:  time.Now(),
		EndpointID: endpointID,
		Data:       EventData{Error: errMsg},
	}
}

// NewAllocationCompletedEvent creates an event for a finished allocation
func NewAllocationCompletedEvent(mode string, endpoints, instances int) Event {
	return Event{
		Type:      EventAllocationCompleted,
		Timestamp: time.Now(),
		Data: EventData{
			Mode:      mode,
			Endpoints: endpoints,
			Instances: instances,
		},
	}
}
