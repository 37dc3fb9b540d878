package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event          string          `json:"event,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	Button         ButtonJSON      `json:"button"`
	Pairing        PairingJSON     `json:"pairing"`
	Indicator      bool            `json:"indicator"`
	UptimeSeconds  int64           `json:"uptime_seconds"`
	StartTime      string          `json:"start_time"`
	Timestamp      string          `json:"timestamp"`
	MQTT           MQTTStatus      `json:"mqtt"`
	Counts         CountsJSON      `json:"event_counts"`
	LastCompletion *CompletionJSON `json:"last_completion,omitempty"`
	Network        *NetworkJSON    `json:"network,omitempty"`
	Config         ConfigJSON      `json:"config"`
}

// ButtonJSON reports the debounced button state.
type ButtonJSON struct {
	Down      bool `json:"down"`
	LongPress bool `json:"long_press"`
}

// PairingJSON reports the provisioning toggle.
type PairingJSON struct {
	State   string `json:"state"`
	Attempt string `json:"attempt,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Gestures     int `json:"gestures"`
	Started      int `json:"started"`
	EnableFailed int `json:"enable_failed"`
	StartFailed  int `json:"start_failed"`
	Disabled     int `json:"disabled"`
	Succeeded    int `json:"succeeded"`
	Failed       int `json:"failed"`
}

// CompletionJSON is the JSON representation of the last completion.
type CompletionJSON struct {
	Timestamp  string `json:"timestamp"`
	Event      string `json:"event"`
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
	Attempt    string `json:"attempt,omitempty"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	HoldMs      int64  `json:"hold_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPPort    string `json:"http_port"`
	Radio       string `json:"radio"`
	PinButton   int    `json:"pin_button"`
	PinLED      int    `json:"pin_led"`
}

func buildInner(snap Snapshot) StatusInner {
	pairing := string(snap.Board.Pairing)
	if pairing == "" {
		pairing = "UNKNOWN"
	}

	c := snap.Counts
	inner := StatusInner{
		Button:        ButtonJSON{Down: snap.Board.ButtonDown, LongPress: snap.Board.LongPress},
		Pairing:       PairingJSON{State: pairing, Attempt: snap.Board.Attempt},
		Indicator:     snap.Board.Indicator,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Gestures:     c.Gestures,
			Started:      c.Started,
			EnableFailed: c.EnableFailed,
			StartFailed:  c.StartFailed,
			Disabled:     c.Disabled,
			Succeeded:    c.Succeeded,
			Failed:       c.Failed,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			HoldMs:      snap.Config.HoldMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPPort:    snap.Config.HTTPPort,
			Radio:       snap.Config.Radio,
			PinButton:   snap.Config.PinButton,
			PinLED:      snap.Config.PinLED,
		},
	}

	if lc := snap.LastCompletion; lc != nil {
		inner.LastCompletion = &CompletionJSON{
			Timestamp:  lc.At.UTC().Format(time.RFC3339),
			Event:      string(lc.Type),
			Status:     lc.Status.String(),
			StatusCode: int(lc.Status),
			Attempt:    lc.Attempt,
		}
	}

	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatCompactJSON returns the same document as FormatJSON on one line,
// for streaming over the websocket.
func FormatCompactJSON(snap Snapshot) []byte {
	data, _ := json.Marshal(StatusJSON{Status: buildInner(snap)})
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
