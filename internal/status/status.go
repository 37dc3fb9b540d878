// Package status provides a thread-safe status tracker for the wps-button daemon.
// It is read by the HTTP handlers and the websocket stream.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/wps-button/internal/logic"
)

// NetworkInfo contains network state as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	HoldMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPPort    string
	Radio       string
	PinButton   int
	PinLED      int
}

// Completion records the most recent asynchronous pairing outcome.
type Completion struct {
	At      time.Time
	Type    logic.EventType
	Status  logic.Status
	Attempt string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Board          logic.BoardState
	Counts         logic.EventCounts
	LastCompletion *Completion
	StartTime      time.Time
	Now            time.Time
	MQTTConnected  bool
	Network        *NetworkInfo
	Config         Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Board:     logic.BoardState{Pairing: logic.PairingDisabled},
			Config:    cfg,
		},
	}
}

// Update sets the board state and event counts.
// Called from runLoop on every tick.
func (t *Tracker) Update(board logic.BoardState, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.Board = board
	t.snap.Counts = counts
	t.mu.Unlock()
}

// RecordCompletion stores the latest completion event.
func (t *Tracker) RecordCompletion(ev logic.Event) {
	c := &Completion{
		At:      ev.Timestamp,
		Type:    ev.Type,
		Status:  ev.Status,
		Attempt: ev.Attempt,
	}
	t.mu.Lock()
	t.snap.LastCompletion = c
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	if s.LastCompletion != nil {
		c := *s.LastCompletion
		s.LastCompletion = &c
	}
	if s.Network != nil {
		n := *s.Network
		s.Network = &n
	}
	s.Now = time.Now()
	return s
}
