package logic

import "time"

// Output is the result of one control-loop tick.
type Output struct {
	// Indicator is the level to drive the indicator line to.
	Indicator bool
	// Gesture is true when a long hold ended on this tick.
	Gesture bool
	// Events holds the toggle transition caused by the gesture, if any.
	Events []Event
}

// Board coordinates the button and the toggle. It shares both with its
// caller and keeps only counters and heartbeat bookkeeping of its own.
// Tick and RecordCompletion must be called from the same goroutine.
type Board struct {
	button *Button
	toggle *Toggle

	indicator     bool
	startTime     time.Time
	lastHeartbeat time.Time
	eventCounts   EventCounts
}

// NewBoard composes a button and a toggle.
func NewBoard(button *Button, toggle *Toggle, startTime time.Time) *Board {
	return &Board{
		button:        button,
		toggle:        toggle,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Tick feeds one raw sample to the debouncer, flips the toggle when a long
// press is released, and computes the indicator level.
//
// Only the gesture tick calls into the Pairer, synchronously: at most Enable
// and Start, or a single Disable. Tick is therefore bounded by two pairer
// calls, which for the radio modem is two command timeouts.
func (b *Board) Tick(now time.Time, level Level) Output {
	b.button.Sample(level, now)

	var out Output
	if b.button.IsLongPress() && b.button.JustReleased() {
		out.Gesture = true
		b.eventCounts.Gestures++

		ev, _ := b.toggle.Flip(now)
		b.count(ev)
		out.Events = append(out.Events, ev)
	}

	b.indicator = b.button.IsLongPress() || b.toggle.IsActive()
	out.Indicator = b.indicator
	return out
}

// RecordCompletion counts an event drained from the toggle's completion inbox.
func (b *Board) RecordCompletion(ev Event) {
	b.count(ev)
}

func (b *Board) count(ev Event) {
	switch ev.Type {
	case EventStarted:
		b.eventCounts.Started++
	case EventEnableFailed:
		b.eventCounts.EnableFailed++
	case EventStartFailed:
		b.eventCounts.StartFailed++
	case EventDisabled:
		b.eventCounts.Disabled++
	case EventSucceeded:
		b.eventCounts.Succeeded++
	case EventFailed:
		b.eventCounts.Failed++
	}
}

// Completions exposes the toggle's completion inbox.
func (b *Board) Completions() <-chan Event {
	return b.toggle.Completions()
}

// State returns the current button, toggle and indicator state.
func (b *Board) State() BoardState {
	return BoardState{
		ButtonDown: b.button.IsDown(),
		LongPress:  b.button.IsLongPress(),
		Pairing:    b.toggle.State(),
		Attempt:    b.toggle.Attempt(),
		Indicator:  b.indicator,
	}
}

// Counts returns a copy of the event counters.
func (b *Board) Counts() EventCounts {
	return b.eventCounts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (b *Board) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(b.lastHeartbeat) < interval {
		return nil
	}

	b.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(b.startTime),
		Counts:    b.eventCounts,
	}
}
