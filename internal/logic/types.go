// Package logic contains the burner controller's sequencing core.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always read from an injected clock.Clock; the engines are
// synchronous step functions driven by an external tick loop.
package logic

import (
	"math"
	"time"
)

// MacroState is the top-level operating mode of the controller.
type MacroState string

// Staged control states.
const (
	StateIdle     MacroState = "IDLE"
	StateStart    MacroState = "START"
	StateHigh     MacroState = "HIGH"
	StateLow      MacroState = "LOW"
	StateShutdown MacroState = "SHUTDOWN"
)

// Ignition sequence states. IDLE is shared with the staged variant.
const (
	StateFanStart      MacroState = "FAN_START"
	StateFuelPumpStart MacroState = "FUEL_PUMP_START"
	StateBurnerStart   MacroState = "BURNER_START"
	StateBurnerRun     MacroState = "BURNER_RUN"
)

var knownStates = map[MacroState]bool{
	StateIdle:          true,
	StateStart:         true,
	StateHigh:          true,
	StateLow:           true,
	StateShutdown:      true,
	StateFanStart:      true,
	StateFuelPumpStart: true,
	StateBurnerStart:   true,
	StateBurnerRun:     true,
}

// Valid reports whether s is one of the closed set of macro-states.
func (s MacroState) Valid() bool {
	return knownStates[s]
}

// ParseMacroState converts a name such as "BURNER_RUN" into a MacroState.
func ParseMacroState(name string) (MacroState, bool) {
	s := MacroState(name)
	return s, s.Valid()
}

// ControlSignals are written by the operator or an upstream controller.
type ControlSignals struct {
	Run       bool
	WaterTemp float64 // °C
}

// SensorReadings are written by the sensor source. NaN means no reading.
type SensorReadings struct {
	FlameTemperature float64 // °C
}

// HardwareOutputs are owned and written exclusively by an engine.
type HardwareOutputs struct {
	FanSpeed      float64
	GlowVolts     float64
	FuelPumpSpeed float64
	WaterPumpOn   bool
	BlowerOn      bool
}

// Snapshot is the consistent read of all external inputs taken once at the
// start of a tick. Elapsed is filled in by the engine before guards run:
// time in the current macro-state for transition rules, time in the current
// stage for stage conditions.
type Snapshot struct {
	Controls ControlSignals
	Sensors  SensorReadings
	Elapsed  time.Duration
}

// Missing reports whether v represents an absent reading.
func Missing(v float64) bool {
	return math.IsNaN(v)
}

// TransitionReason explains why a macro-state transition happened.
type TransitionReason string

const (
	ReasonGuard            TransitionReason = "guard"
	ReasonSequenceComplete TransitionReason = "sequence_complete"
	ReasonPreempted        TransitionReason = "preempted"
)

// TransitionEvent is emitted once per macro-state transition.
type TransitionEvent struct {
	From      MacroState
	To        MacroState
	Timestamp time.Time
	Reason    TransitionReason
}

// Step is the result of a single engine tick.
type Step struct {
	State   MacroState
	Outputs HardwareOutputs
	// Transition is non-nil when this tick changed the macro-state.
	Transition *TransitionEvent
	// StageEntered names the stage whose entry action ran this tick, if any.
	StageEntered string
}

// Engine is implemented by both controller variants.
type Engine interface {
	// Tick advances the engine by one step using the given input snapshot.
	Tick(snap Snapshot) (Step, error)
	// State returns the active macro-state.
	State() MacroState
	// Outputs returns the most recently computed hardware outputs.
	Outputs() HardwareOutputs
}
