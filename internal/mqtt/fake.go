package mqtt

import (
	"time"

	"github.com/sweeney/whack-a-mole/internal/game"
)

// FakePublisher records what would have been sent to the broker.
// Failed publishes are not recorded.
type FakePublisher struct {
	Events   []game.Event
	Payloads [][]byte // Payloads[i] is the JSON for Events[i]

	SystemEvents   []SystemEvent
	SystemPayloads [][]byte

	PublishError       error
	PublishSystemError error

	Closed    bool
	Connected bool // returned by IsConnected

	// Now stamps game event payloads; time.Now if nil.
	Now func() time.Time
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

func (f *FakePublisher) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

// Publish records the game event and its payload.
func (f *FakePublisher) Publish(event game.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(event, f.now())
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishSystem records the system event and its payload.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// EventTypes returns the types of the recorded game events in order.
func (f *FakePublisher) EventTypes() []game.EventType {
	out := make([]game.EventType, len(f.Events))
	for i, e := range f.Events {
		out[i] = e.Type
	}
	return out
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected returns Connected.
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recordings, injected errors and flags. Now is kept.
func (f *FakePublisher) Reset() {
	now := f.Now
	*f = FakePublisher{Now: now}
}
