package mqtt

import (
	"sync"

	"github.com/sweeney/wps-button/internal/logic"
)

// Message is one message as it would have reached the broker.
type Message struct {
	Topic    string
	Payload  []byte
	Retained bool
}

// FakePublisher is a Publisher for tests. Pairing and system events are kept
// per kind, and Messages keeps the interleaved stream as it would appear
// across both topics. Methods are safe for concurrent use; read the exported
// fields only once the publisher is idle.
type FakePublisher struct {
	mu sync.Mutex

	Events         []logic.Event
	Payloads       [][]byte
	SystemEvents   []SystemEvent
	SystemPayloads [][]byte
	Messages       []Message

	// PublishError and PublishSystemError make the matching call fail
	// without recording anything.
	PublishError       error
	PublishSystemError error

	Closed    bool
	Connected bool
}

// NewFakePublisher returns an empty, disconnected FakePublisher.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

func (f *FakePublisher) Publish(event logic.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Payloads = append(f.Payloads, payload)
	f.Messages = append(f.Messages, Message{Topic: Topic, Payload: payload})
	return nil
}

func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	f.Messages = append(f.Messages, Message{Topic: TopicSystem, Payload: payload, Retained: event.Retained})
	return nil
}

// EventTypes lists published pairing event types in order.
func (f *FakePublisher) EventTypes() []logic.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]logic.EventType, len(f.Events))
	for i, e := range f.Events {
		types[i] = e.Type
	}
	return types
}

// SystemEventNames lists published system event names in order.
func (f *FakePublisher) SystemEventNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.SystemEvents))
	for i, e := range f.SystemEvents {
		names[i] = e.Event
	}
	return names
}

// Topics lists the topic of every recorded message in publish order.
func (f *FakePublisher) Topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	topics := make([]string, len(f.Messages))
	for i, m := range f.Messages {
		topics[i] = m.Topic
	}
	return topics
}

// LastSystemEvent returns the most recent system event with the given name.
func (f *FakePublisher) LastSystemEvent(name string) (SystemEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.SystemEvents) - 1; i >= 0; i-- {
		if f.SystemEvents[i].Event == name {
			return f.SystemEvents[i], true
		}
	}
	return SystemEvent{}, false
}

func (f *FakePublisher) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Reset forgets everything recorded and clears scripted errors.
func (f *FakePublisher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Events, f.Payloads = nil, nil
	f.SystemEvents, f.SystemPayloads = nil, nil
	f.Messages = nil
	f.PublishError, f.PublishSystemError = nil, nil
	f.Closed, f.Connected = false, false
}
