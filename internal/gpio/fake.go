package gpio

import (
	"errors"
	"sync"

	"github.com/sweeney/wps-button/internal/logic"
)

// FakeReader is a test double that returns scripted button levels.
type FakeReader struct {
	// Samples contains scripted raw levels to return.
	// Each call to Read() consumes the next sample.
	Samples []logic.Level

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []logic.Level) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (logic.Level, error) {
	if f.ReadError != nil {
		return logic.High, f.ReadError
	}

	if len(f.Samples) == 0 {
		return logic.High, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeWriter records indicator writes. It is safe for concurrent use so
// tests can inspect it while a run loop is writing.
type FakeWriter struct {
	mu     sync.Mutex
	writes []bool
	closed bool

	// WriteError, if set, will be returned by Write()
	WriteError error
}

// NewFakeWriter creates an empty FakeWriter.
func NewFakeWriter() *FakeWriter {
	return &FakeWriter{}
}

// Write records the level.
func (f *FakeWriter) Write(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteError != nil {
		return f.WriteError
	}
	f.writes = append(f.writes, on)
	return nil
}

// Writes returns a copy of every recorded level, oldest first.
func (f *FakeWriter) Writes() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.writes...)
}

// Last returns the most recent level, or false if nothing was written.
func (f *FakeWriter) Last() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.writes) == 0 {
		return false
	}
	return f.writes[len(f.writes)-1]
}

// Close marks the writer as closed.
func (f *FakeWriter) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (f *FakeWriter) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
