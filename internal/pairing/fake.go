package pairing

import (
	"sync"

	"github.com/sweeney/wps-button/internal/logic"
)

// FakePairer is a test double for the radio. It records every call and lets
// tests deliver completions from their own goroutine. Safe for concurrent use.
type FakePairer struct {
	mu sync.Mutex

	// EnableOK and StartOK script the results of Enable and Start.
	EnableOK bool
	StartOK  bool

	modes    []logic.Mode
	starts   int
	disables int
	connects int
	cb       func(logic.Status)
}

// NewFakePairer creates a FakePairer whose Enable and Start succeed.
func NewFakePairer() *FakePairer {
	return &FakePairer{EnableOK: true, StartOK: true}
}

// Enable records the mode and returns EnableOK.
func (f *FakePairer) Enable(mode logic.Mode) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modes = append(f.modes, mode)
	return f.EnableOK
}

// Start records the call and returns StartOK.
func (f *FakePairer) Start() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return f.StartOK
}

// Disable records the call.
func (f *FakePairer) Disable() {
	f.mu.Lock()
	f.disables++
	f.mu.Unlock()
}

// Connect records the call.
func (f *FakePairer) Connect() {
	f.mu.Lock()
	f.connects++
	f.mu.Unlock()
}

// SetCompletionCallback stores cb for Complete.
func (f *FakePairer) SetCompletionCallback(cb func(logic.Status)) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

// Complete invokes the registered callback synchronously on the caller's
// goroutine. It reports false if no callback is registered.
func (f *FakePairer) Complete(status logic.Status) bool {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	if cb == nil {
		return false
	}
	cb(status)
	return true
}

// Calls returns how many times each operation was invoked.
func (f *FakePairer) Calls() (enables, starts, disables, connects int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.modes), f.starts, f.disables, f.connects
}

// Modes returns the modes passed to Enable, oldest first.
func (f *FakePairer) Modes() []logic.Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]logic.Mode(nil), f.modes...)
}
