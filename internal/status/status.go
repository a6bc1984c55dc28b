// Package status provides a thread-safe view of the controller for the HTTP
// status page and MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/burner-controller/internal/clock"
	"github.com/sweeney/burner-controller/internal/logic"
)

// Config contains controller configuration for display.
type Config struct {
	Mode        string
	Profile     string // empty for the built-in configuration
	TickMs      int64
	TelemetryMs int64
	Broker      string
	HTTPAddr    string
	Simulate    bool
	GPIO        bool
}

// Snapshot is a point-in-time view of controller state. It is a value type
// and safe to use after the lock is released.
type Snapshot struct {
	State          logic.MacroState
	Stage          string // current stage of a sequence-driven state
	StateEnteredAt time.Time
	Outputs        logic.HardwareOutputs
	Inputs         logic.Snapshot

	// CycleID identifies the current run from leaving IDLE until returning
	// to it. Empty while idle.
	CycleID        string
	Cycles         int
	Transitions    int
	LastTransition *logic.TransitionEvent
	GuardErrors    int
	LastGuardError string
	MQTTConnected  bool
	StartTime      time.Time
	Now            time.Time
	Config         Config
}

// Uptime returns the duration since the controller started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// InState returns how long the controller has been in its current state.
func (s Snapshot) InState() time.Duration {
	return s.Now.Sub(s.StateEnteredAt)
}

// Tracker holds mutable controller state behind an RWMutex.
type Tracker struct {
	clock clock.Clock
	newID func() string

	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker in state initial.
func NewTracker(c clock.Clock, initial logic.MacroState, cfg Config) *Tracker {
	now := c.Now()
	return &Tracker{
		clock: c,
		newID: uuid.NewString,
		snap: Snapshot{
			State:          initial,
			StateEnteredAt: now,
			StartTime:      now,
			Config:         cfg,
		},
	}
}

// Update records the result of one tick. Called from the run loop.
func (t *Tracker) Update(step logic.Step, inputs logic.Snapshot, stage string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.State = step.State
	t.snap.Stage = stage
	t.snap.Outputs = step.Outputs
	t.snap.Inputs = inputs

	ev := step.Transition
	if ev == nil {
		return
	}
	copied := *ev
	t.snap.LastTransition = &copied
	t.snap.Transitions++
	t.snap.StateEnteredAt = ev.Timestamp
	switch {
	case ev.From == logic.StateIdle && ev.To != logic.StateIdle:
		t.snap.CycleID = t.newID()
		t.snap.Cycles++
	case ev.To == logic.StateIdle:
		t.snap.CycleID = ""
	}
}

// RecordGuardError notes a failed guard evaluation.
func (t *Tracker) RecordGuardError(err error) {
	t.mu.Lock()
	t.snap.GuardErrors++
	t.snap.LastGuardError = err.Error()
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// CycleID returns the current cycle id, empty while idle.
func (t *Tracker) CycleID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap.CycleID
}

// Snapshot returns a point-in-time copy of the controller state with Now set
// from the tracker's clock.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	if s.LastTransition != nil {
		ev := *s.LastTransition
		s.LastTransition = &ev
	}
	s.Now = t.clock.Now()
	return s
}
