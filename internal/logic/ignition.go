package logic

import (
	"time"

	"github.com/sweeney/burner-controller/internal/clock"
)

// IgnitionConfig configures the timed-parameter ignition variant.
type IgnitionConfig struct {
	Initial     MacroState // defaults to IDLE
	Params      map[MacroState]StateParams
	Transitions map[MacroState][]TransitionRule
}

// IgnitionEngine runs the burner ignition sequence
// IDLE -> FAN_START -> FUEL_PUMP_START -> BURNER_START -> BURNER_RUN | IDLE.
// Each state interpolates its outputs over its runtime and consults its
// transition rules only once the runtime has elapsed.
type IgnitionEngine struct {
	clock  clock.Clock
	params map[MacroState]StateParams
	table  *TransitionTable

	state          MacroState
	lastTransition time.Time
	outputs        HardwareOutputs
}

// NewIgnitionEngine validates cfg and returns an engine in cfg.Initial with
// that state's starting outputs applied.
func NewIgnitionEngine(c clock.Clock, cfg IgnitionConfig) (*IgnitionEngine, error) {
	if c == nil {
		return nil, configErrorf("engine", "clock is nil")
	}
	initial := cfg.Initial
	if initial == "" {
		initial = StateIdle
	}

	params := make(map[MacroState]StateParams, len(cfg.Params))
	for state, p := range cfg.Params {
		if !state.Valid() {
			return nil, configErrorf("engine", "unknown state %q", state)
		}
		if err := p.validate(state); err != nil {
			return nil, err
		}
		params[state] = p
	}
	if _, ok := params[initial]; !ok {
		return nil, configErrorf("engine", "initial state %s has no parameters", initial)
	}

	table, err := NewTransitionTable(cfg.Transitions)
	if err != nil {
		return nil, err
	}
	for state := range cfg.Transitions {
		if _, ok := params[state]; !ok {
			return nil, configErrorf("transitions", "source state %s has no parameters", state)
		}
	}
	for _, target := range table.Targets() {
		if _, ok := params[target]; !ok {
			return nil, configErrorf("transitions", "target state %s has no parameters", target)
		}
	}

	now := c.Now()
	return &IgnitionEngine{
		clock:          c,
		params:         params,
		table:          table,
		state:          initial,
		lastTransition: now,
		outputs:        params[initial].Outputs(0),
	}, nil
}

// Tick recomputes every output for the current state and, once the state's
// runtime has elapsed, applies the first matching transition rule. On a
// transition the outputs are recomputed for the new state at zero elapsed
// time, so they start from the new state's start values.
func (e *IgnitionEngine) Tick(snap Snapshot) (Step, error) {
	now := e.clock.Now()
	elapsed := now.Sub(e.lastTransition)
	p := e.params[e.state]
	e.outputs = p.Outputs(elapsed)

	if elapsed < p.Runtime {
		return e.step(nil), nil
	}

	snap.Elapsed = elapsed
	target, matched, err := e.table.Evaluate(e.state, snap)
	if err != nil {
		return e.step(nil), err
	}
	if !matched {
		return e.step(nil), nil
	}

	ev := &TransitionEvent{From: e.state, To: target, Timestamp: now, Reason: ReasonGuard}
	e.state = target
	e.lastTransition = now
	e.outputs = e.params[target].Outputs(0)
	return e.step(ev), nil
}

func (e *IgnitionEngine) step(ev *TransitionEvent) Step {
	return Step{State: e.state, Outputs: e.outputs, Transition: ev}
}

// State returns the active macro-state.
func (e *IgnitionEngine) State() MacroState { return e.state }

// Outputs returns the current hardware outputs.
func (e *IgnitionEngine) Outputs() HardwareOutputs { return e.outputs }

// Elapsed returns the time spent in the current state.
func (e *IgnitionEngine) Elapsed() time.Duration {
	return e.clock.Now().Sub(e.lastTransition)
}
