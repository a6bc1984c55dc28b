// Package mqtt publishes controller events and telemetry over MQTT and
// receives operator commands, with a fake for tests.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/burner-controller/internal/logic"
	"github.com/sweeney/burner-controller/internal/status"
)

// Topics.
const (
	TopicEvents    = "energy/burner/controller/events"
	TopicTelemetry = "energy/burner/controller/telemetry"
	TopicSystem    = "energy/burner/controller/system"
	TopicCommand   = "energy/burner/controller/command"
)

// Publisher publishes controller activity. Errors are reported to the
// caller and must not stop the control loop.
type Publisher interface {
	// PublishTransition sends a macro-state transition.
	PublishTransition(ev logic.TransitionEvent, cycleID string) error

	// PublishTelemetry sends the current state and outputs.
	PublishTelemetry(t Telemetry) error

	// PublishSystem sends a system lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// CommandSubscriber delivers raw command payloads from TopicCommand.
type CommandSubscriber interface {
	SubscribeCommands(handler func(payload []byte)) error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Telemetry is one periodic sample of the controller.
type Telemetry struct {
	Timestamp time.Time
	State     logic.MacroState
	Stage     string
	CycleID   string
	Outputs   logic.HardwareOutputs
	Inputs    logic.Snapshot
}

// SystemEvent represents a system lifecycle event (STARTUP, SHUTDOWN, OFFLINE).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string // e.g. "SIGTERM" (shutdown only)
	RawPayload []byte // pre-formatted JSON; if set, FormatSystemPayload returns it directly
	Retained   bool
}

// TransitionPayload is the MQTT message for a transition.
type TransitionPayload struct {
	Burner TransitionInner `json:"burner"`
}

// TransitionInner contains the transition details.
type TransitionInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	From      string `json:"from"`
	To        string `json:"to"`
	Reason    string `json:"reason"`
	CycleID   string `json:"cycle_id,omitempty"`
}

// FormatTransitionPayload creates the JSON payload for a transition.
func FormatTransitionPayload(ev logic.TransitionEvent, cycleID string) ([]byte, error) {
	return json.Marshal(TransitionPayload{Burner: TransitionInner{
		Timestamp: ev.Timestamp.UTC().Format(time.RFC3339Nano),
		Event:     "TRANSITION",
		From:      string(ev.From),
		To:        string(ev.To),
		Reason:    string(ev.Reason),
		CycleID:   cycleID,
	}})
}

// TelemetryPayload is the MQTT message for a telemetry sample.
type TelemetryPayload struct {
	Telemetry TelemetryInner `json:"telemetry"`
}

// TelemetryInner contains the telemetry details.
type TelemetryInner struct {
	Timestamp string             `json:"timestamp"`
	State     string             `json:"state"`
	Stage     string             `json:"stage,omitempty"`
	CycleID   string             `json:"cycle_id,omitempty"`
	Outputs   status.OutputsJSON `json:"outputs"`
	Inputs    status.InputsJSON  `json:"inputs"`
}

// FormatTelemetryPayload creates the JSON payload for a telemetry sample.
func FormatTelemetryPayload(t Telemetry) ([]byte, error) {
	return json.Marshal(TelemetryPayload{Telemetry: TelemetryInner{
		Timestamp: t.Timestamp.UTC().Format(time.RFC3339Nano),
		State:     string(t.State),
		Stage:     t.Stage,
		CycleID:   t.CycleID,
		Outputs:   status.Outputs(t.Outputs),
		Inputs:    status.Inputs(t.Inputs),
	}})
}

// SystemPayload is the MQTT message for simple system events (LWT) that
// don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{System: SystemPayloadInner{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     event.Event,
		Reason:    event.Reason,
	}})
}
