package logic

import "time"

const (
	// HistoryIdle is the register value of a released button under pull-up wiring.
	HistoryIdle uint16 = 0xFFFF

	// PressThreshold: the button is down once the register drops below it.
	// The oldest eight samples must all be low; the newest eight may carry noise.
	PressThreshold uint16 = 0x00FF

	// ReleaseThreshold: a down button is released once the register exceeds it.
	ReleaseThreshold uint16 = 0xFF00

	// HoldThreshold is the held duration that qualifies as a long press.
	HoldThreshold = 5 * time.Second
)

// Button debounces a single active-low push button sampled once per tick.
//
// Samples are shifted into a 16-bit register, newest in bit 0. The two
// thresholds form a hysteresis band: inside it the debounced state holds,
// so an isolated bounce sample can never flip it.
type Button struct {
	pin  int
	hold time.Duration

	history        uint16
	down           bool
	justReleased   bool
	longPress      bool
	pressStartedAt time.Time
}

// NewButton creates a debouncer for the given pin. A non-positive hold
// selects HoldThreshold.
func NewButton(pin int, hold time.Duration) *Button {
	if hold <= 0 {
		hold = HoldThreshold
	}
	b := &Button{pin: pin, hold: hold}
	b.Init()
	return b
}

// Init resets the register to the idle pattern and clears all derived flags.
func (b *Button) Init() {
	b.history = HistoryIdle
	b.down = false
	b.justReleased = false
	b.longPress = false
	b.pressStartedAt = time.Time{}
}

// Sample shifts one raw level into the register and recomputes the flags.
//
// Edge and duration flags are derived from the previous tick's down state
// first; the down state for this tick is updated afterwards.
func (b *Button) Sample(level Level, now time.Time) {
	b.history = b.history<<1 | uint16(level&1)

	wasDown := b.down
	b.justReleased = wasDown && b.history > ReleaseThreshold
	b.longPress = wasDown && now.Sub(b.pressStartedAt) >= b.hold

	switch {
	case !wasDown && b.history < PressThreshold:
		b.down = true
		b.pressStartedAt = now
	case b.justReleased:
		b.down = false
		b.pressStartedAt = time.Time{}
	}
}

// Pin returns the input line this button is sampled from.
func (b *Button) Pin() int { return b.pin }

// History returns the raw sample register.
func (b *Button) History() uint16 { return b.history }

// IsDown reports the debounced pressed state.
func (b *Button) IsDown() bool { return b.down }

// JustReleased is true only on the tick the button was released.
func (b *Button) JustReleased() bool { return b.justReleased }

// IsLongPress is true while the button has been held for at least the hold
// threshold, and on the release tick that ends such a hold.
func (b *Button) IsLongPress() bool { return b.longPress }

// PressStartedAt returns when the current press began. ok is false when the
// button is not down.
func (b *Button) PressStartedAt() (t time.Time, ok bool) {
	return b.pressStartedAt, b.down
}
