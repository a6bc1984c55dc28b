package mqtt

import (
	"sync"

	"github.com/sweeney/burner-controller/internal/logic"
)

// FakePublisher records published messages for test assertions. Safe for
// concurrent use.
type FakePublisher struct {
	mu sync.Mutex

	transitions  []logic.TransitionEvent
	cycleIDs     []string
	telemetry    []Telemetry
	systemEvents []SystemEvent
	payloads     map[string][][]byte
	commands     func(payload []byte)
	closed       bool

	// PublishError, if set, is returned by every publish call.
	PublishError error

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{payloads: make(map[string][][]byte)}
}

func (f *FakePublisher) record(topic string, payload []byte) {
	f.payloads[topic] = append(f.payloads[topic], payload)
}

// PublishTransition records the transition.
func (f *FakePublisher) PublishTransition(ev logic.TransitionEvent, cycleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatTransitionPayload(ev, cycleID)
	if err != nil {
		return err
	}
	f.transitions = append(f.transitions, ev)
	f.cycleIDs = append(f.cycleIDs, cycleID)
	f.record(TopicEvents, payload)
	return nil
}

// PublishTelemetry records the sample.
func (f *FakePublisher) PublishTelemetry(t Telemetry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatTelemetryPayload(t)
	if err != nil {
		return err
	}
	f.telemetry = append(f.telemetry, t)
	f.record(TopicTelemetry, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.systemEvents = append(f.systemEvents, event)
	f.record(TopicSystem, payload)
	return nil
}

// SubscribeCommands stores handler for Deliver.
func (f *FakePublisher) SubscribeCommands(handler func(payload []byte)) error {
	f.mu.Lock()
	f.commands = handler
	f.mu.Unlock()
	return nil
}

// Deliver simulates a message arriving on TopicCommand. It reports whether a
// handler was subscribed.
func (f *FakePublisher) Deliver(payload []byte) bool {
	f.mu.Lock()
	handler := f.commands
	f.mu.Unlock()
	if handler == nil {
		return false
	}
	handler(payload)
	return true
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Transitions returns a copy of the recorded transitions.
func (f *FakePublisher) Transitions() []logic.TransitionEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]logic.TransitionEvent(nil), f.transitions...)
}

// CycleIDs returns the cycle id sent with each transition.
func (f *FakePublisher) CycleIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cycleIDs...)
}

// Telemetry returns a copy of the recorded telemetry samples.
func (f *FakePublisher) Telemetry() []Telemetry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Telemetry(nil), f.telemetry...)
}

// SystemEvents returns a copy of the recorded system events.
func (f *FakePublisher) SystemEvents() []SystemEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SystemEvent(nil), f.systemEvents...)
}

// Payloads returns the JSON payloads published to topic.
func (f *FakePublisher) Payloads(topic string) [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.payloads[topic]...)
}

// Closed reports whether Close was called.
func (f *FakePublisher) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
