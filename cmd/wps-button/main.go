// Command wps-button watches a push button and toggles WPS pairing on the
// radio when the button is held and released. Pairing events go to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/uuid"
	"github.com/sweeney/wps-button/internal/gpio"
	"github.com/sweeney/wps-button/internal/logic"
	"github.com/sweeney/wps-button/internal/mqtt"
	"github.com/sweeney/wps-button/internal/pairing"
	"github.com/sweeney/wps-button/internal/status"
	"github.com/sweeney/wps-button/internal/web"
)

type options struct {
	poll         time.Duration
	hold         time.Duration
	chip         string
	pinButton    int
	pinLED       int
	radio        string
	radioBaud    int
	radioTimeout time.Duration
	broker       string
	heartbeat    time.Duration
	httpAddr     string
	printState   bool
}

func main() {
	var o options
	flag.DurationVar(&o.poll, "poll", 10*time.Millisecond, "Button sampling interval")
	flag.DurationVar(&o.hold, "hold", logic.HoldThreshold, "Hold time that makes a press a long press")
	flag.StringVar(&o.chip, "chip", gpio.DefaultChip, "GPIO chip name")
	flag.IntVar(&o.pinButton, "pin-button", gpio.DefaultPinButton, "BCM pin number for the push button")
	flag.IntVar(&o.pinLED, "pin-led", gpio.DefaultPinLED, "BCM pin number for the indicator LED")
	flag.StringVar(&o.radio, "radio", "/dev/serial0", "Serial device of the radio modem")
	flag.IntVar(&o.radioBaud, "radio-baud", pairing.DefaultBaud, "Radio modem baud rate")
	flag.DurationVar(&o.radioTimeout, "radio-timeout", pairing.DefaultCommandTimeout, "Radio command response timeout")
	flag.StringVar(&o.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	flag.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&o.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.BoolVar(&o.printState, "print-state", false, "Print current button state and exit")

	flag.Parse()

	if err := run(o); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(o options) error {
	// Initialize GPIO
	reader, err := gpio.NewRealReader(o.chip, o.pinButton)
	if err != nil {
		return fmt.Errorf("init button gpio: %w", err)
	}
	defer reader.Close()

	// Print state mode
	if o.printState {
		level, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Printf("BUTTON: %s\n", buttonString(level))
		return nil
	}

	writer, err := gpio.NewRealWriter(o.chip, o.pinLED)
	if err != nil {
		return fmt.Errorf("init indicator gpio: %w", err)
	}
	defer writer.Close()

	// Initialize radio
	port, err := pairing.OpenSerial(o.radio, o.radioBaud)
	if err != nil {
		return fmt.Errorf("init radio: %w", err)
	}
	modem := pairing.NewModem(port, o.radioTimeout)
	defer modem.Close()

	toggle := logic.NewToggle(modem, logic.ModePBC, time.Now, newAttemptID)

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(o.broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      o.poll.Milliseconds(),
		HoldMs:      o.hold.Milliseconds(),
		HeartbeatMs: o.heartbeat.Milliseconds(),
		Broker:      o.broker,
		HTTPPort:    o.httpAddr,
		Radio:       o.radio,
		PinButton:   o.pinButton,
		PinLED:      o.pinLED,
	})
	tracker.SetMQTTConnected(publisher.IsConnected())
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if o.httpAddr != "" {
		srv := web.New(o.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", o.httpAddr)
	}

	log.Printf("started: poll=%v hold=%v pin=%d led=%d radio=%s broker=%s heartbeat=%v",
		o.poll, o.hold, o.pinButton, o.pinLED, o.radio, o.broker, o.heartbeat)

	ticker := time.NewTicker(o.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(reader, writer, toggle, publisher, publisher, tracker, o.pinButton, o.hold, o.heartbeat, time.Now, ticker.C, sigCh)
}

// newAttemptID names a pairing session. An empty id makes the toggle fall
// back to its sequential ids.
func newAttemptID() string {
	id, err := uuid.NewV4()
	if err != nil {
		log.Printf("attempt id: %v", err)
		return ""
	}
	return id.String()
}

func runLoop(reader gpio.Reader, writer gpio.Writer, toggle *logic.Toggle, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, pin int, hold, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	board := logic.NewBoard(logic.NewButton(pin, hold), toggle, startTime)

	// The indicator is written every tick; a failing line is logged once
	// until it recovers.
	writeFailing := false
	setIndicator := func(on bool) {
		if err := writer.Write(on); err != nil {
			if !writeFailing {
				log.Printf("indicator write error: %v", err)
			}
			writeFailing = true
			return
		}
		if writeFailing {
			log.Printf("indicator write recovered")
		}
		writeFailing = false
	}
	setIndicator(false)

	updateTracker := func() {
		if tracker == nil {
			return
		}
		tracker.Update(board.State(), board.Counts())
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
	}

	publish := func(ev logic.Event) {
		if ev.Err != nil {
			log.Printf("event: %s attempt=%s state=%s err=%v", ev.Type, ev.Attempt, ev.State, ev.Err)
		} else {
			log.Printf("event: %s attempt=%s state=%s", ev.Type, ev.Attempt, ev.State)
		}
		if err := publisher.Publish(ev); err != nil {
			log.Printf("publish error: %v", err)
			// Don't crash on publish failure
		}
	}

	complete := func(ev logic.Event) {
		board.RecordCompletion(ev)
		if tracker != nil {
			tracker.RecordCompletion(ev)
		}
		publish(ev)
	}

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)

			// Completions already delivered still get reported.
		drain:
			for {
				select {
				case ev := <-board.Completions():
					complete(ev)
				default:
					break drain
				}
			}

			setIndicator(false)

			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				updateTracker()
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case ev := <-board.Completions():
			complete(ev)
			updateTracker()

		case <-tick:
			t := now()
			level, err := reader.Read()
			if err != nil {
				log.Printf("gpio read error: %v", err)
				continue
			}

			out := board.Tick(t, level)
			if out.Gesture {
				log.Printf("gesture: long press released")
			}
			for _, ev := range out.Events {
				publish(ev)
			}

			setIndicator(out.Indicator)

			// Check for heartbeat
			if hbData := board.CheckHeartbeat(t, heartbeat); hbData != nil {
				c := hbData.Counts
				log.Printf("heartbeat: uptime=%v gestures=%d started=%d succeeded=%d failed=%d",
					hbData.Uptime, c.Gestures, c.Started, c.Succeeded, c.Failed)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					updateTracker()
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			// Update status tracker for HTTP consumers
			updateTracker()
		}
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

// buttonString maps the active-low button line to a label.
func buttonString(level logic.Level) string {
	if level == logic.Low {
		return "PRESSED"
	}
	return "RELEASED"
}
