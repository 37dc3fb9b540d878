// Package logic contains the pure control logic for the pairing button.
// This package has NO external dependencies (no GPIO, serial, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Level is the raw electrical level of a digital input line.
type Level uint8

const (
	Low  Level = 0
	High Level = 1
)

// PairingState is the state of the provisioning toggle.
type PairingState string

const (
	PairingDisabled PairingState = "DISABLED"
	PairingStarting PairingState = "STARTING"
	PairingActive   PairingState = "ACTIVE"
)

// EventType identifies a toggle transition or completion.
type EventType string

const (
	EventStarted       EventType = "STARTED"
	EventEnableFailed  EventType = "ENABLE_FAILED"
	EventStartFailed   EventType = "START_FAILED"
	EventBusy          EventType = "BUSY"
	EventDisabled      EventType = "DISABLED"
	EventSucceeded     EventType = "SUCCEEDED"
	EventFailed        EventType = "FAILED"
	EventStaleComplete EventType = "STALE_COMPLETION"
)

// Event describes one toggle attempt or one asynchronous completion.
type Event struct {
	Timestamp time.Time
	Type      EventType
	// Attempt identifies the pairing session the event belongs to.
	Attempt string
	// State is the toggle state after the event was applied.
	State PairingState
	// Status is only meaningful for completion events.
	Status Status
	Err    error
}

// Active reports whether the toggle was left in the Active state.
func (e Event) Active() bool {
	return e.State == PairingActive
}

// IsCompletion reports whether the event came from the pairing subsystem's
// completion callback rather than from Flip.
func (e Event) IsCompletion() bool {
	switch e.Type {
	case EventSucceeded, EventFailed, EventStaleComplete:
		return true
	}
	return false
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	Gestures     int
	Started      int
	EnableFailed int
	StartFailed  int
	Disabled     int
	Succeeded    int
	Failed       int
}

// BoardState is a point-in-time view of the coordinator.
type BoardState struct {
	ButtonDown bool
	LongPress  bool
	Pairing    PairingState
	Attempt    string
	Indicator  bool
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
