package logic

import (
	"time"

	"github.com/sweeney/burner-controller/internal/clock"
)

// SequenceSpec describes the stage sequence run by one macro-state.
type SequenceSpec struct {
	Next   MacroState
	Stages []Stage
}

// StagedConfig configures the staged control variant. Every state is either
// sequence-driven (listed in Sequences) or table-driven (listed in
// Transitions), never both. SHUTDOWN must be sequence-driven: it is the
// preemption target whenever run drops.
type StagedConfig struct {
	Initial     MacroState // defaults to IDLE
	Sequences   map[MacroState]SequenceSpec
	Transitions map[MacroState][]TransitionRule
}

// StagedEngine runs the staged control cycle
// IDLE -> START -> HIGH <-> LOW -> SHUTDOWN -> IDLE.
//
// Re-entering a sequence-driven state always starts a fresh sequence at its
// first stage; progress from an earlier visit is never resumed.
type StagedEngine struct {
	clock     clock.Clock
	sequences map[MacroState]SequenceSpec
	table     *TransitionTable

	state     MacroState
	enteredAt time.Time
	seq       *StageSequence // nil until the current state's first tick
	outputs   HardwareOutputs
}

// NewStagedEngine validates cfg and returns an engine in cfg.Initial.
func NewStagedEngine(c clock.Clock, cfg StagedConfig) (*StagedEngine, error) {
	if c == nil {
		return nil, configErrorf("engine", "clock is nil")
	}
	initial := cfg.Initial
	if initial == "" {
		initial = StateIdle
	}

	if _, ok := cfg.Sequences[StateShutdown]; !ok {
		return nil, configErrorf("engine", "no %s sequence", StateShutdown)
	}
	for state, spec := range cfg.Sequences {
		if !state.Valid() {
			return nil, configErrorf("engine", "unknown state %q", state)
		}
		if _, both := cfg.Transitions[state]; both {
			return nil, configErrorf("engine", "state %s has both a stage sequence and transition rules", state)
		}
		if _, err := NewStageSequence(state, spec.Next, spec.Stages...); err != nil {
			return nil, err
		}
	}

	table, err := NewTransitionTable(cfg.Transitions)
	if err != nil {
		return nil, err
	}

	defined := func(s MacroState) bool {
		_, seq := cfg.Sequences[s]
		_, tab := cfg.Transitions[s]
		return seq || tab
	}
	if !defined(initial) {
		return nil, configErrorf("engine", "initial state %s is not defined", initial)
	}
	for state, spec := range cfg.Sequences {
		if !defined(spec.Next) {
			return nil, configErrorf("sequence "+string(state), "next state %s is not defined", spec.Next)
		}
	}
	for _, target := range table.Targets() {
		if !defined(target) {
			return nil, configErrorf("transitions", "target state %s is not defined", target)
		}
	}

	sequences := make(map[MacroState]SequenceSpec, len(cfg.Sequences))
	for state, spec := range cfg.Sequences {
		sequences[state] = SequenceSpec{Next: spec.Next, Stages: append([]Stage(nil), spec.Stages...)}
	}

	return &StagedEngine{
		clock:     c,
		sequences: sequences,
		table:     table,
		state:     initial,
		enteredAt: c.Now(),
	}, nil
}

// Tick performs one step: run-drop preemption, then the current state's
// sequence (or transition rules for table-driven states). At most one
// transition happens per tick.
func (e *StagedEngine) Tick(snap Snapshot) (Step, error) {
	now := e.clock.Now()

	if _, sequenced := e.sequences[e.state]; sequenced {
		if !snap.Controls.Run && e.state != StateShutdown {
			ev := e.transition(StateShutdown, now, ReasonPreempted)
			e.seq = e.newSequence(StateShutdown)
			return e.step(ev, ""), nil
		}

		if e.seq == nil {
			e.seq = e.newSequence(e.state)
		}
		next, done, entered, err := e.seq.Tick(now, snap, &e.outputs)
		if err != nil {
			return e.step(nil, entered), err
		}
		if done {
			return e.step(e.transition(next, now, ReasonSequenceComplete), entered), nil
		}
		return e.step(nil, entered), nil
	}

	snap.Elapsed = now.Sub(e.enteredAt)
	target, matched, err := e.table.Evaluate(e.state, snap)
	if err != nil {
		return e.step(nil, ""), err
	}
	if !matched {
		return e.step(nil, ""), nil
	}
	return e.step(e.transition(target, now, ReasonGuard), ""), nil
}

// newSequence builds a fresh sequence for state. The sequence was validated by
// NewStagedEngine, so construction cannot fail here.
func (e *StagedEngine) newSequence(state MacroState) *StageSequence {
	spec := e.sequences[state]
	seq, err := NewStageSequence(state, spec.Next, spec.Stages...)
	if err != nil {
		panic("logic: validated sequence failed to build: " + err.Error())
	}
	return seq
}

// transition switches state and discards the active sequence. Table-driven
// states are rest states: every output is switched off on entry.
func (e *StagedEngine) transition(to MacroState, now time.Time, reason TransitionReason) *TransitionEvent {
	ev := &TransitionEvent{From: e.state, To: to, Timestamp: now, Reason: reason}
	e.state = to
	e.enteredAt = now
	e.seq = nil
	if _, sequenced := e.sequences[to]; !sequenced {
		e.outputs = HardwareOutputs{}
	}
	return ev
}

func (e *StagedEngine) step(ev *TransitionEvent, entered string) Step {
	return Step{State: e.state, Outputs: e.outputs, Transition: ev, StageEntered: entered}
}

// State returns the active macro-state.
func (e *StagedEngine) State() MacroState { return e.state }

// Outputs returns the current hardware outputs.
func (e *StagedEngine) Outputs() HardwareOutputs { return e.outputs }

// Sequence returns the active stage sequence, or nil if the current state is
// table-driven or has not ticked since it was entered.
func (e *StagedEngine) Sequence() *StageSequence { return e.seq }
