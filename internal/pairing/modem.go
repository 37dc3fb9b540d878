// Package pairing drives the wireless radio that performs WPS push-button
// pairing. The radio is an AT-command modem reached over a serial line.
package pairing

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sweeney/wps-button/internal/logic"
)

// AT commands understood by the radio firmware.
const (
	cmdStationMode = "AT+CWMODE=1"
	cmdWPSStart    = "AT+WPS=1"
	cmdWPSStop     = "AT+WPS=0"
	cmdJoin        = "AT+CWJAP"

	// urcWPS prefixes the unsolicited result line "+WPS:<code>" that reports
	// the end of negotiation.
	urcWPS = "+WPS:"
)

// DefaultCommandTimeout bounds the wait for a command's final result line.
// Enable and Start run on the control loop's tick, so it stays short.
const DefaultCommandTimeout = time.Second

// joinTimeout bounds AT+CWJAP, which answers only once the station has
// associated. Connect runs on the completion goroutine, never on a tick.
const joinTimeout = 20 * time.Second

var errClosed = errors.New("modem closed")

// Modem implements logic.Pairer on top of an AT-command radio.
//
// A reader goroutine owns the port's read side. Final result lines (OK,
// ERROR, FAIL) answer the command in flight, but only after its echo has been
// seen, so a late result for a command that already timed out is discarded.
// This relies on command echo (ATE1), the firmware default. "+WPS:" lines are
// dispatched to the completion callback on their own goroutine, so the
// callback may issue further commands.
type Modem struct {
	port        io.ReadWriteCloser
	timeout     time.Duration
	joinTimeout time.Duration

	cmdMu  sync.Mutex // one command in flight
	result chan string
	done   chan struct{}

	// inflight is the command awaiting its result; echoed is set when the
	// reader sees it echoed back.
	stateMu  sync.Mutex
	inflight string
	echoed   bool

	cbMu sync.Mutex
	cb   func(logic.Status)

	closeOnce sync.Once
}

// NewModem starts reading from port. A non-positive timeout selects
// DefaultCommandTimeout.
func NewModem(port io.ReadWriteCloser, timeout time.Duration) *Modem {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	m := &Modem{
		port:        port,
		timeout:     timeout,
		joinTimeout: joinTimeout,
		result:      make(chan string, 1),
		done:        make(chan struct{}),
	}
	go m.readLoop()
	return m
}

func (m *Modem) readLoop() {
	defer close(m.done)

	sc := bufio.NewScanner(m.port)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
		case line == "OK" || line == "ERROR" || line == "FAIL":
			if !m.takeEchoed() {
				log.Printf("pairing: discarding result %q with no command in flight", line)
				continue
			}
			select {
			case m.result <- line:
			default:
				log.Printf("pairing: unexpected result %q", line)
			}
		case strings.HasPrefix(line, urcWPS):
			status, err := parseStatus(strings.TrimPrefix(line, urcWPS))
			if err != nil {
				log.Printf("pairing: bad completion line %q: %v", line, err)
				continue
			}
			m.dispatch(status)
		default:
			// Command echo and informational lines.
			m.stateMu.Lock()
			if m.inflight != "" && line == m.inflight {
				m.echoed = true
			}
			m.stateMu.Unlock()
		}
	}
	if err := sc.Err(); err != nil {
		log.Printf("pairing: read error: %v", err)
	}
}

// takeEchoed reports whether the command in flight has been echoed, and
// consumes the echo so a second result line is not accepted for it.
func (m *Modem) takeEchoed() bool {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	if m.inflight == "" || !m.echoed {
		return false
	}
	m.echoed = false
	return true
}

func (m *Modem) setInflight(cmd string) {
	m.stateMu.Lock()
	m.inflight = cmd
	m.echoed = false
	m.stateMu.Unlock()
}

func parseStatus(s string) (logic.Status, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse status: %w", err)
	}
	return logic.Status(n), nil
}

func (m *Modem) dispatch(status logic.Status) {
	m.cbMu.Lock()
	cb := m.cb
	m.cbMu.Unlock()
	if cb == nil {
		log.Printf("pairing: completion %s with no callback registered", status)
		return
	}
	go cb(status)
}

// command sends one AT command and waits up to timeout for its final result
// line.
func (m *Modem) command(cmd string, timeout time.Duration) error {
	m.cmdMu.Lock()
	defer m.cmdMu.Unlock()

	select {
	case <-m.result:
	default:
	}

	m.setInflight(cmd)
	defer m.setInflight("")

	if _, err := io.WriteString(m.port, cmd+"\r\n"); err != nil {
		return fmt.Errorf("%s: write: %w", cmd, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-m.result:
		if r != "OK" {
			return fmt.Errorf("%s: %s", cmd, r)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("%s: no response after %v", cmd, timeout)
	case <-m.done:
		return fmt.Errorf("%s: %w", cmd, errClosed)
	}
}

// Enable switches the radio to station mode, ready for pairing.
// Only push-button configuration is supported.
func (m *Modem) Enable(mode logic.Mode) bool {
	if mode != logic.ModePBC {
		log.Printf("pairing: unsupported mode %q", mode)
		return false
	}
	if err := m.command(cmdStationMode, m.timeout); err != nil {
		log.Printf("pairing: enable: %v", err)
		return false
	}
	return true
}

// Start begins WPS negotiation.
func (m *Modem) Start() bool {
	if err := m.command(cmdWPSStart, m.timeout); err != nil {
		log.Printf("pairing: start: %v", err)
		return false
	}
	return true
}

// Disable stops WPS negotiation.
func (m *Modem) Disable() {
	if err := m.command(cmdWPSStop, m.timeout); err != nil {
		log.Printf("pairing: disable: %v", err)
	}
}

// Connect joins the access point stored by the last successful negotiation.
func (m *Modem) Connect() {
	if err := m.command(cmdJoin, m.joinTimeout); err != nil {
		log.Printf("pairing: connect: %v", err)
	}
}

// SetCompletionCallback registers the negotiation completion callback.
func (m *Modem) SetCompletionCallback(cb func(logic.Status)) {
	m.cbMu.Lock()
	m.cb = cb
	m.cbMu.Unlock()
}

// Close closes the port and waits briefly for the reader goroutine to exit.
// Some serial drivers do not interrupt a blocked read on close.
func (m *Modem) Close() error {
	var err error
	m.closeOnce.Do(func() {
		err = m.port.Close()
		select {
		case <-m.done:
		case <-time.After(time.Second):
		}
	})
	return err
}
