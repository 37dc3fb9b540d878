package logic

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Mode selects how the pairing subsystem negotiates credentials.
type Mode string

const (
	// ModePBC is push-button configuration.
	ModePBC Mode = "PBC"
)

// Status is the completion code reported by the pairing subsystem.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailed
	StatusTimeout
	StatusWEP
	StatusScanError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusFailed:
		return "FAILED"
	case StatusTimeout:
		return "TIMEOUT"
	case StatusWEP:
		return "WEP"
	case StatusScanError:
		return "SCAN_ERROR"
	}
	return "STATUS_" + strconv.Itoa(int(s))
}

// Pairer is the wireless pairing subsystem driven by the Toggle.
type Pairer interface {
	// Enable puts the subsystem into pairing mode.
	Enable(mode Mode) bool
	// Start begins negotiation.
	Start() bool
	// Disable leaves pairing mode.
	Disable()
	// Connect joins the network using the provisioned credentials.
	Connect()
	// SetCompletionCallback registers the function called when negotiation
	// ends. It may be invoked from any goroutine.
	SetCompletionCallback(cb func(Status))
}

var (
	ErrEnableFailed = errors.New("pairing mode could not be enabled")
	ErrStartFailed  = errors.New("pairing negotiation could not be started")
	ErrInProgress   = errors.New("pairing attempt already in progress")
)

// NegotiationError reports a non-success completion status.
type NegotiationError struct {
	Status Status
}

func (e *NegotiationError) Error() string {
	return fmt.Sprintf("pairing failed with status code %d (%s)", int(e.Status), e.Status)
}

const completionInboxSize = 8

// Toggle owns the enable/disable state of the pairing subsystem.
//
// Flip runs on the tick goroutine; the completion callback may run on any
// goroutine. Every state transition happens under mu, and calls into the
// Pairer are made with mu released.
type Toggle struct {
	pairer       Pairer
	mode         Mode
	clock        func() time.Time
	newAttemptID func() string

	mu      sync.Mutex
	state   PairingState
	attempt string
	seq     int
	// started is set once Start has been issued for the current attempt.
	// Before that, no completion can belong to it.
	started bool

	completions chan Event
}

// NewToggle creates a disabled toggle. clock stamps completion events and
// newAttemptID names each pairing session; nil selects time.Now and a
// sequential id respectively.
func NewToggle(p Pairer, mode Mode, clock func() time.Time, newAttemptID func() string) *Toggle {
	t := &Toggle{
		pairer:       p,
		mode:         mode,
		clock:        clock,
		newAttemptID: newAttemptID,
		state:        PairingDisabled,
		completions:  make(chan Event, completionInboxSize),
	}
	if t.clock == nil {
		t.clock = time.Now
	}
	return t
}

// Flip enables pairing when disabled and disables it when active.
// The returned event's Active method reports the resulting state; the error
// is one of ErrEnableFailed, ErrStartFailed or ErrInProgress.
func (t *Toggle) Flip(now time.Time) (Event, error) {
	t.mu.Lock()
	switch t.state {
	case PairingStarting:
		ev := Event{Timestamp: now, Type: EventBusy, Attempt: t.attempt, State: t.state, Err: ErrInProgress}
		t.mu.Unlock()
		return ev, ErrInProgress

	case PairingActive:
		attempt := t.attempt
		t.resetLocked()
		t.mu.Unlock()

		t.pairer.Disable()
		return Event{Timestamp: now, Type: EventDisabled, Attempt: attempt, State: PairingDisabled}, nil
	}

	attempt := t.nextAttemptLocked()
	t.state = PairingStarting
	t.attempt = attempt
	t.started = false
	t.mu.Unlock()

	if !t.pairer.Enable(t.mode) {
		t.abort(attempt)
		return Event{Timestamp: now, Type: EventEnableFailed, Attempt: attempt, State: PairingDisabled, Err: ErrEnableFailed}, ErrEnableFailed
	}

	// Registered before Start so a fast completion is not lost.
	t.pairer.SetCompletionCallback(t.complete)

	t.mu.Lock()
	if t.attempt == attempt {
		t.started = true
	}
	t.mu.Unlock()

	if !t.pairer.Start() {
		t.pairer.Disable()
		t.abort(attempt)
		return Event{Timestamp: now, Type: EventStartFailed, Attempt: attempt, State: PairingDisabled, Err: ErrStartFailed}, ErrStartFailed
	}

	t.mu.Lock()
	if t.state == PairingStarting && t.attempt == attempt {
		t.state = PairingActive
	}
	state := t.state
	t.mu.Unlock()

	return Event{Timestamp: now, Type: EventStarted, Attempt: attempt, State: state}, nil
}

// abort returns a starting attempt to Disabled unless a completion got there first.
func (t *Toggle) abort(attempt string) {
	t.mu.Lock()
	if t.attempt == attempt {
		t.resetLocked()
	}
	t.mu.Unlock()
}

func (t *Toggle) resetLocked() {
	t.state = PairingDisabled
	t.attempt = ""
	t.started = false
}

func (t *Toggle) nextAttemptLocked() string {
	t.seq++
	if t.newAttemptID != nil {
		if id := t.newAttemptID(); id != "" {
			return id
		}
	}
	return "attempt-" + strconv.Itoa(t.seq)
}

// complete is the completion callback handed to the Pairer. The Pairer keeps
// the callback across attempts, so a completion that arrives while disabled,
// or while a new attempt is still enabling, belongs to an earlier session.
func (t *Toggle) complete(status Status) {
	now := t.clock()

	t.mu.Lock()
	if t.state == PairingDisabled || !t.started {
		state := t.state
		t.mu.Unlock()
		t.deliver(Event{Timestamp: now, Type: EventStaleComplete, State: state, Status: status})
		return
	}
	attempt := t.attempt
	t.resetLocked()
	t.mu.Unlock()

	t.pairer.Disable()
	if status == StatusSuccess {
		t.pairer.Connect()
		t.deliver(Event{Timestamp: now, Type: EventSucceeded, Attempt: attempt, State: PairingDisabled, Status: status})
		return
	}
	t.deliver(Event{
		Timestamp: now,
		Type:      EventFailed,
		Attempt:   attempt,
		State:     PairingDisabled,
		Status:    status,
		Err:       &NegotiationError{Status: status},
	})
}

// deliver never blocks the pairing subsystem's goroutine; with a full inbox
// the event is dropped but the state transition has already been applied.
func (t *Toggle) deliver(ev Event) {
	select {
	case t.completions <- ev:
	default:
	}
}

// Completions delivers one event per asynchronous completion.
func (t *Toggle) Completions() <-chan Event {
	return t.completions
}

// State returns the current toggle state.
func (t *Toggle) State() PairingState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// IsActive reports whether pairing negotiation is running.
func (t *Toggle) IsActive() bool {
	return t.State() == PairingActive
}

// Attempt returns the id of the current pairing session, or "" when disabled.
func (t *Toggle) Attempt() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempt
}
