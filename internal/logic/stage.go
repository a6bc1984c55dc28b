package logic

import (
	"fmt"
	"time"
)

// Action is a stage's entry action. It runs exactly once, the tick the stage
// becomes current, and may set hardware outputs.
type Action func(out *HardwareOutputs, snap Snapshot)

// Stage is one unit of work within a macro-state's sequence. A stage completes
// when its Duration has elapsed or its Condition holds, whichever comes
// first. At least one of the two must be set.
type Stage struct {
	Name      string
	Enter     Action        // optional
	Duration  time.Duration // zero means no duration rule
	Condition Guard         // nil means no condition rule
	// Ramp, when set, drives every output while the stage is current: analog
	// channels are interpolated over Duration (a condition-only stage jumps to
	// the end values). It is applied after Enter.
	Ramp *OutputProfile
}

func (s Stage) validate(component string) error {
	if s.Duration < 0 {
		return configErrorf(component, "duration must not be negative, got %v", s.Duration)
	}
	if s.Duration == 0 && s.Condition == nil {
		return configErrorf(component, "stage needs a duration or a condition")
	}
	if s.Ramp != nil {
		if err := s.Ramp.validate(component); err != nil {
			return err
		}
	}
	return nil
}

// StageSequence runs the stages of one macro-state in order and then reports
// the configured next state. The cursor never decreases; once it reaches
// len(stages) every further tick returns the same completion signal.
type StageSequence struct {
	state  MacroState
	next   MacroState
	stages []Stage

	cursor     int
	entered    bool // current stage's entry action has run
	stageStart time.Time
}

// NewStageSequence validates the stages and returns a sequence positioned at
// the first stage. An empty sequence is a configuration error.
func NewStageSequence(state, next MacroState, stages ...Stage) (*StageSequence, error) {
	component := "sequence " + string(state)
	if len(stages) == 0 {
		return nil, configErrorf(component, "no stages")
	}
	if !next.Valid() {
		return nil, configErrorf(component, "unknown next state %q", next)
	}
	for i, st := range stages {
		if err := st.validate(fmt.Sprintf("stage %s[%d]", state, i)); err != nil {
			return nil, err
		}
	}
	return &StageSequence{
		state:  state,
		next:   next,
		stages: append([]Stage(nil), stages...),
	}, nil
}

// Tick runs the current stage. The first tick on a stage enters it (running
// its entry action and stamping its start time). A stage whose completion rule
// fires advances the cursor exactly once; the following stage is entered on
// the next tick. done is true, with next set, once every stage has completed.
func (s *StageSequence) Tick(now time.Time, snap Snapshot, out *HardwareOutputs) (next MacroState, done bool, entered string, err error) {
	if s.Complete() {
		return s.next, true, "", nil
	}

	st := s.stages[s.cursor]
	if !s.entered {
		s.enter(st, now, snap, out)
		entered = stageLabel(st, s.cursor)
	}

	elapsed := now.Sub(s.stageStart)
	if st.Ramp != nil {
		*out = st.Ramp.At(elapsed, st.Duration)
	}

	// Duration is checked first so a stage whose rules both hold in the same
	// tick advances once.
	advance := st.Duration > 0 && elapsed >= st.Duration
	if !advance && st.Condition != nil {
		cs := snap
		cs.Elapsed = elapsed
		ok, cerr := st.Condition(cs)
		if cerr != nil {
			return "", false, entered, &GuardEvaluationError{
				State: s.state,
				Rule:  "stage " + stageLabel(st, s.cursor),
				Err:   cerr,
			}
		}
		advance = ok
	}

	if advance {
		s.advance()
	}
	if s.Complete() {
		return s.next, true, entered, nil
	}
	return "", false, entered, nil
}

func (s *StageSequence) enter(st Stage, now time.Time, snap Snapshot, out *HardwareOutputs) {
	s.entered = true
	s.stageStart = now
	if st.Enter != nil {
		es := snap
		es.Elapsed = 0
		st.Enter(out, es)
	}
}

func (s *StageSequence) advance() {
	s.cursor++
	s.entered = false
	s.stageStart = time.Time{}
}

// Complete reports whether every stage has finished.
func (s *StageSequence) Complete() bool {
	return s.cursor >= len(s.stages)
}

// Cursor returns the index of the current stage (len when complete).
func (s *StageSequence) Cursor() int { return s.cursor }

// Len returns the number of stages.
func (s *StageSequence) Len() int { return len(s.stages) }

// State returns the macro-state this sequence belongs to.
func (s *StageSequence) State() MacroState { return s.state }

// Next returns the state reported on completion.
func (s *StageSequence) Next() MacroState { return s.next }

// CurrentStage returns the name of the current stage, or "" when complete.
func (s *StageSequence) CurrentStage() string {
	if s.Complete() {
		return ""
	}
	return stageLabel(s.stages[s.cursor], s.cursor)
}

func stageLabel(st Stage, index int) string {
	if st.Name != "" {
		return st.Name
	}
	return fmt.Sprintf("#%d", index+1)
}
