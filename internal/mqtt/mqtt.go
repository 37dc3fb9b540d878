// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/wps-button/internal/logic"
)

// Topic is the MQTT topic for pairing events.
const Topic = "home/wps-button/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/wps-button/system"

// ClientID identifies the daemon to the broker.
const ClientID = "wps-button"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a pairing event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT", "RECONNECTED"
	Reason     string // e.g., "SIGTERM", "SIGINT", "MQTT_DISCONNECT"
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Pairing PairingPayload `json:"pairing"`
}

// PairingPayload contains the pairing event details.
type PairingPayload struct {
	Timestamp  string `json:"timestamp"`
	Event      string `json:"event"`
	Attempt    string `json:"attempt,omitempty"`
	State      string `json:"state"`
	Status     string `json:"status,omitempty"`
	StatusCode *int   `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

// FormatPayload creates the JSON payload for a pairing event.
// Completion events carry the subsystem's status; failures carry the error text.
func FormatPayload(event logic.Event) ([]byte, error) {
	p := PairingPayload{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(event.Type),
		Attempt:   event.Attempt,
		State:     string(event.State),
	}
	if event.IsCompletion() {
		code := int(event.Status)
		p.Status = event.Status.String()
		p.StatusCode = &code
	}
	if event.Err != nil {
		p.Error = event.Err.Error()
	}
	return json.Marshal(Payload{Pairing: p})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
