package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/wps-button/internal/logic"
)

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{PollMs: 10, HoldMs: 5000, Broker: "tcp://localhost:1883", HTTPPort: ":80"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.PollMs != 10 {
		t.Errorf("Config.PollMs: got %d, want 10", snap.Config.PollMs)
	}
	if snap.Config.HTTPPort != ":80" {
		t.Errorf("Config.HTTPPort: got %q, want %q", snap.Config.HTTPPort, ":80")
	}
	if snap.Board.Pairing != logic.PairingDisabled {
		t.Errorf("Board.Pairing: got %q, want DISABLED", snap.Board.Pairing)
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
	if snap.LastCompletion != nil {
		t.Error("expected no completion initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.Update(logic.BoardState{
		ButtonDown: true,
		LongPress:  true,
		Pairing:    logic.PairingActive,
		Attempt:    "a1",
		Indicator:  true,
	}, logic.EventCounts{Gestures: 3, Started: 2, Failed: 1})

	snap := tr.Snapshot()
	if !snap.Board.ButtonDown || !snap.Board.LongPress || !snap.Board.Indicator {
		t.Errorf("Board: got %+v", snap.Board)
	}
	if snap.Board.Pairing != logic.PairingActive || snap.Board.Attempt != "a1" {
		t.Errorf("Board pairing: got %q/%q", snap.Board.Pairing, snap.Board.Attempt)
	}
	if snap.Counts.Gestures != 3 || snap.Counts.Started != 2 || snap.Counts.Failed != 1 {
		t.Errorf("Counts: got %+v", snap.Counts)
	}
}

func TestRecordCompletion(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	at := time.Date(2026, 1, 1, 0, 5, 0, 0, time.UTC)

	tr.RecordCompletion(logic.Event{Timestamp: at, Type: logic.EventFailed, Status: logic.StatusTimeout, Attempt: "a1"})

	snap := tr.Snapshot()
	lc := snap.LastCompletion
	if lc == nil {
		t.Fatal("expected LastCompletion")
	}
	if !lc.At.Equal(at) || lc.Type != logic.EventFailed || lc.Status != logic.StatusTimeout || lc.Attempt != "a1" {
		t.Errorf("LastCompletion: got %+v", *lc)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSetNetwork(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.50", Status: "connected", SSID: "Home"})

	snap := tr.Snapshot()
	if snap.Network == nil {
		t.Fatal("expected Network to be set")
	}
	if snap.Network.SSID != "Home" {
		t.Errorf("Network.SSID: got %q, want Home", snap.Network.SSID)
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Now().Add(-5 * time.Minute)
	tr := NewTracker(start, Config{})

	snap := tr.Snapshot()
	uptime := snap.Uptime()
	if uptime < 5*time.Minute || uptime > 5*time.Minute+time.Second {
		t.Errorf("Uptime: got %v, want ~5m", uptime)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.SetNetwork(&NetworkInfo{SSID: "Home"})
	tr.RecordCompletion(logic.Event{Type: logic.EventSucceeded, Attempt: "a1"})

	snap := tr.Snapshot()
	snap.Network.SSID = "Changed"
	snap.LastCompletion.Attempt = "changed"
	snap.Board.Pairing = logic.PairingActive

	again := tr.Snapshot()
	if again.Network.SSID != "Home" {
		t.Error("modifying snapshot network affected tracker")
	}
	if again.LastCompletion.Attempt != "a1" {
		t.Error("modifying snapshot completion affected tracker")
	}
	if again.Board.Pairing != logic.PairingDisabled {
		t.Error("modifying snapshot board affected tracker")
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Board:         logic.BoardState{ButtonDown: true, Pairing: logic.PairingActive, Attempt: "a1", Indicator: true},
		Counts:        logic.EventCounts{Gestures: 2, Started: 1, StartFailed: 1},
		StartTime:     start,
		Now:           start.Add(90 * time.Second),
		MQTTConnected: true,
		Config:        Config{PollMs: 10, HoldMs: 5000, Broker: "tcp://b:1883", Radio: "/dev/ttyUSB0", PinButton: 17, PinLED: 27},
	}

	var sj StatusJSON
	if err := json.Unmarshal(FormatJSON(snap), &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	s := sj.Status
	if !s.Button.Down || s.Button.LongPress {
		t.Errorf("Button: got %+v", s.Button)
	}
	if s.Pairing.State != "ACTIVE" || s.Pairing.Attempt != "a1" {
		t.Errorf("Pairing: got %+v", s.Pairing)
	}
	if !s.Indicator {
		t.Error("expected Indicator=true")
	}
	if s.UptimeSeconds != 90 {
		t.Errorf("UptimeSeconds: got %d, want 90", s.UptimeSeconds)
	}
	if s.StartTime != "2026-01-01T00:00:00Z" {
		t.Errorf("StartTime: got %s", s.StartTime)
	}
	if s.Counts.Gestures != 2 || s.Counts.StartFailed != 1 {
		t.Errorf("Counts: got %+v", s.Counts)
	}
	if !s.MQTT.Connected || s.MQTT.Broker != "tcp://b:1883" {
		t.Errorf("MQTT: got %+v", s.MQTT)
	}
	if s.Config.Radio != "/dev/ttyUSB0" || s.Config.PinButton != 17 || s.Config.HoldMs != 5000 {
		t.Errorf("Config: got %+v", s.Config)
	}
	if s.Event != "" || s.Reason != "" {
		t.Error("web JSON must not carry event/reason")
	}
	if s.LastCompletion != nil || s.Network != nil {
		t.Error("optional sections should be omitted")
	}
}

func TestFormatJSONUnknownPairing(t *testing.T) {
	var sj StatusJSON
	json.Unmarshal(FormatJSON(Snapshot{}), &sj)
	if sj.Status.Pairing.State != "UNKNOWN" {
		t.Errorf("Pairing.State: got %q, want UNKNOWN", sj.Status.Pairing.State)
	}
}

func TestFormatJSONWithCompletionAndNetwork(t *testing.T) {
	snap := Snapshot{
		LastCompletion: &Completion{
			At:      time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC),
			Type:    logic.EventFailed,
			Status:  logic.StatusWEP,
			Attempt: "a2",
		},
		Network: &NetworkInfo{Type: "wifi", SSID: "Home"},
	}

	var sj StatusJSON
	json.Unmarshal(FormatJSON(snap), &sj)
	lc := sj.Status.LastCompletion
	if lc == nil {
		t.Fatal("expected last_completion")
	}
	if lc.Event != "FAILED" || lc.Status != "WEP" || lc.StatusCode != 3 || lc.Attempt != "a2" {
		t.Errorf("LastCompletion: got %+v", *lc)
	}
	if lc.Timestamp != "2026-01-01T00:01:00Z" {
		t.Errorf("LastCompletion.Timestamp: got %s", lc.Timestamp)
	}
	if sj.Status.Network == nil || sj.Status.Network.SSID != "Home" {
		t.Errorf("Network: got %+v", sj.Status.Network)
	}
}

func TestFormatCompactJSONMatchesIndented(t *testing.T) {
	snap := Snapshot{Board: logic.BoardState{Pairing: logic.PairingDisabled}}

	var a, b StatusJSON
	json.Unmarshal(FormatJSON(snap), &a)
	json.Unmarshal(FormatCompactJSON(snap), &b)
	if a != b {
		t.Errorf("compact and indented documents differ:\n%+v\n%+v", a, b)
	}
	for _, c := range FormatCompactJSON(snap) {
		if c == '\n' {
			t.Fatal("compact JSON contains a newline")
		}
	}
}

func TestFormatStatusEvent(t *testing.T) {
	snap := Snapshot{Board: logic.BoardState{Pairing: logic.PairingDisabled}}

	var sj StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM"), &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if sj.Status.Event != "SHUTDOWN" || sj.Status.Reason != "SIGTERM" {
		t.Errorf("event/reason: got %q/%q", sj.Status.Event, sj.Status.Reason)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	data := FormatStatusEvent(Snapshot{}, "HEARTBEAT", "")

	var raw map[string]map[string]interface{}
	json.Unmarshal(data, &raw)
	if _, ok := raw["status"]["reason"]; ok {
		t.Error("reason should be omitted when empty")
	}
	if raw["status"]["event"] != "HEARTBEAT" {
		t.Errorf("event: got %v", raw["status"]["event"])
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(3)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.Update(logic.BoardState{Pairing: logic.PairingActive}, logic.EventCounts{Gestures: n})
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.RecordCompletion(logic.Event{Type: logic.EventSucceeded})
				tr.SetMQTTConnected(j%2 == 0)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = FormatJSON(tr.Snapshot())
			}
		}()
	}
	wg.Wait()
}
