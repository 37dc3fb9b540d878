package logic

import (
	"math/rand"
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

const tickPeriod = 10 * time.Millisecond

// feed samples level n times at tickPeriod spacing starting at *now,
// advancing *now past the last sample.
func feed(b *Button, level Level, n int, now *time.Time) {
	for i := 0; i < n; i++ {
		b.Sample(level, *now)
		*now = now.Add(tickPeriod)
	}
}

func TestNewButton(t *testing.T) {
	b := NewButton(17, 0)
	if b.Pin() != 17 {
		t.Errorf("Pin: got %d, want 17", b.Pin())
	}
	if b.History() != HistoryIdle {
		t.Errorf("History: got %#04x, want %#04x", b.History(), HistoryIdle)
	}
	if b.hold != HoldThreshold {
		t.Errorf("hold: got %v, want %v", b.hold, HoldThreshold)
	}
	if b.IsDown() || b.JustReleased() || b.IsLongPress() {
		t.Error("new button should have all flags cleared")
	}
	if _, ok := b.PressStartedAt(); ok {
		t.Error("new button should have no press start")
	}
}

func TestButtonInitResets(t *testing.T) {
	b := NewButton(17, 0)
	now := t0
	feed(b, Low, 20, &now)
	if !b.IsDown() {
		t.Fatal("expected button down after 20 low samples")
	}

	b.Init()
	if b.History() != HistoryIdle {
		t.Errorf("History after Init: got %#04x", b.History())
	}
	if b.IsDown() {
		t.Error("expected button up after Init")
	}
	if _, ok := b.PressStartedAt(); ok {
		t.Error("expected press start cleared after Init")
	}
}

func TestButtonShiftOrder(t *testing.T) {
	b := NewButton(17, 0)
	b.Sample(Low, t0)
	if b.History() != 0xFFFE {
		t.Errorf("after one low: got %#04x, want 0xfffe", b.History())
	}
	b.Sample(High, t0)
	if b.History() != 0xFFFD {
		t.Errorf("after low,high: got %#04x, want 0xfffd", b.History())
	}
}

func TestButtonPressNeedsFullRun(t *testing.T) {
	b := NewButton(17, 0)
	now := t0

	feed(b, Low, 15, &now)
	if b.IsDown() {
		t.Fatalf("down after 15 low samples (history %#04x)", b.History())
	}

	pressAt := now
	feed(b, Low, 1, &now)
	if !b.IsDown() {
		t.Fatalf("not down after 16 low samples (history %#04x)", b.History())
	}
	started, ok := b.PressStartedAt()
	if !ok || !started.Equal(pressAt) {
		t.Errorf("PressStartedAt: got (%v, %v), want (%v, true)", started, ok, pressAt)
	}
	if b.JustReleased() || b.IsLongPress() {
		t.Error("press tick must not report release or long press")
	}
}

func TestButtonReleaseNeedsFullRun(t *testing.T) {
	b := NewButton(17, 0)
	now := t0
	feed(b, Low, 16, &now)

	feed(b, High, 15, &now)
	if !b.IsDown() {
		t.Fatalf("released after 15 high samples (history %#04x)", b.History())
	}
	if b.JustReleased() {
		t.Fatal("JustReleased before release")
	}

	feed(b, High, 1, &now)
	if b.IsDown() {
		t.Fatalf("still down after 16 high samples (history %#04x)", b.History())
	}
	if !b.JustReleased() {
		t.Error("expected JustReleased on release tick")
	}
	if _, ok := b.PressStartedAt(); ok {
		t.Error("press start should be cleared on release")
	}

	feed(b, High, 1, &now)
	if b.JustReleased() {
		t.Error("JustReleased must last exactly one tick")
	}
}

func TestButtonBounceWhileIdle(t *testing.T) {
	b := NewButton(17, 0)
	now := t0

	for i := 0; i < 4; i++ {
		feed(b, Low, 1, &now)
		feed(b, High, 20, &now)
		if b.IsDown() {
			t.Fatalf("bounce %d registered as press", i)
		}
	}
}

func TestButtonBounceWhileHeld(t *testing.T) {
	b := NewButton(17, 0)
	now := t0
	feed(b, Low, 16, &now)

	for i := 0; i < 40; i++ {
		level := Low
		if i%7 == 0 {
			level = High
		}
		feed(b, level, 1, &now)
		if !b.IsDown() {
			t.Fatalf("sample %d: bounce released the button (history %#04x)", i, b.History())
		}
		if b.JustReleased() {
			t.Fatalf("sample %d: bounce reported release", i)
		}
	}
}

func TestButtonLongPressBoundary(t *testing.T) {
	b := NewButton(17, 0)
	for i := 0; i < 16; i++ {
		b.Sample(Low, t0)
	}
	if !b.IsDown() {
		t.Fatal("expected button down")
	}

	b.Sample(Low, t0.Add(HoldThreshold-time.Microsecond))
	if b.IsLongPress() {
		t.Error("long press reported before hold threshold")
	}

	b.Sample(Low, t0.Add(HoldThreshold))
	if !b.IsLongPress() {
		t.Error("long press not reported at hold threshold")
	}

	b.Sample(Low, t0.Add(HoldThreshold+time.Second))
	if !b.IsLongPress() {
		t.Error("long press should persist while held")
	}
}

func TestButtonLongPressOnReleaseTick(t *testing.T) {
	b := NewButton(17, 0)
	now := t0
	feed(b, Low, 16, &now)
	now = now.Add(HoldThreshold)

	feed(b, High, 15, &now)
	if !b.IsLongPress() {
		t.Fatal("expected long press while still debounced down")
	}

	feed(b, High, 1, &now)
	if !b.JustReleased() || !b.IsLongPress() {
		t.Errorf("release tick: JustReleased=%v IsLongPress=%v, want both true", b.JustReleased(), b.IsLongPress())
	}

	feed(b, High, 1, &now)
	if b.IsLongPress() {
		t.Error("long press must clear on the tick after release")
	}
}

func TestButtonShortPressNeverLong(t *testing.T) {
	b := NewButton(17, 0)
	now := t0
	feed(b, Low, 200, &now)
	for i := 0; i < 32; i++ {
		feed(b, High, 1, &now)
		if b.IsLongPress() {
			t.Fatalf("short press reported long at release sample %d", i)
		}
	}
}

func TestButtonCustomHold(t *testing.T) {
	b := NewButton(17, time.Second)
	for i := 0; i < 16; i++ {
		b.Sample(Low, t0)
	}
	b.Sample(Low, t0.Add(time.Second))
	if !b.IsLongPress() {
		t.Error("expected long press after custom 1s hold")
	}
}

// TestButtonInvariantsRandom drives random sample sequences and checks the
// press-start and long-press invariants on every tick.
func TestButtonInvariantsRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for run := 0; run < 50; run++ {
		b := NewButton(17, 200*time.Millisecond)
		now := t0
		var recent []Level
		level := High

		for i := 0; i < 2000; i++ {
			// Mostly stable runs with occasional bounces.
			if rng.Intn(40) == 0 {
				level ^= 1
			}
			s := level
			if rng.Intn(10) == 0 {
				s ^= 1
			}

			wasDown := b.IsDown()
			b.Sample(s, now)
			recent = append(recent, s)
			now = now.Add(tickPeriod)

			started, ok := b.PressStartedAt()
			if ok != b.IsDown() {
				t.Fatalf("run %d tick %d: press start set=%v but down=%v", run, i, ok, b.IsDown())
			}
			if !b.IsDown() && !started.IsZero() {
				t.Fatalf("run %d tick %d: press start %v kept while up", run, i, started)
			}
			if b.IsLongPress() && !b.IsDown() && !b.JustReleased() {
				t.Fatalf("run %d tick %d: long press while up", run, i)
			}
			if b.JustReleased() && (!wasDown || b.IsDown()) {
				t.Fatalf("run %d tick %d: JustReleased without a down->up edge", run, i)
			}

			if !wasDown && b.IsDown() {
				// The eight oldest samples of the window must all be low.
				if len(recent) < 16 {
					t.Fatalf("run %d tick %d: press after only %d samples", run, i, len(recent))
				}
				for _, old := range recent[len(recent)-16 : len(recent)-8] {
					if old != Low {
						t.Fatalf("run %d tick %d: press without a full low run", run, i)
					}
				}
			}
			if wasDown && !b.IsDown() {
				for _, old := range recent[len(recent)-16 : len(recent)-8] {
					if old != High {
						t.Fatalf("run %d tick %d: release without a full high run", run, i)
					}
				}
			}
		}
	}
}
