package logic

import (
	"fmt"
	"strconv"
)

// Guard decides whether a transition rule fires or a stage completes. It reads
// only its snapshot argument. A non-nil error means the predicate could not
// be evaluated and is never treated as false.
type Guard func(snap Snapshot) (bool, error)

// Always is the unconditional guard.
func Always(Snapshot) (bool, error) { return true, nil }

// RunIs fires when the run signal equals want.
func RunIs(want bool) Guard {
	return func(snap Snapshot) (bool, error) {
		return snap.Controls.Run == want, nil
	}
}

// WaterAbove fires when the water temperature is strictly above threshold.
func WaterAbove(threshold float64) Guard {
	return func(snap Snapshot) (bool, error) {
		if Missing(snap.Controls.WaterTemp) {
			return false, fmt.Errorf("water_temp: %w", ErrMissingInput)
		}
		return snap.Controls.WaterTemp > threshold, nil
	}
}

// WaterBelow fires when the water temperature is strictly below threshold.
func WaterBelow(threshold float64) Guard {
	return func(snap Snapshot) (bool, error) {
		if Missing(snap.Controls.WaterTemp) {
			return false, fmt.Errorf("water_temp: %w", ErrMissingInput)
		}
		return snap.Controls.WaterTemp < threshold, nil
	}
}

// FlameAtLeast fires when the flame temperature is at or above threshold.
func FlameAtLeast(threshold float64) Guard {
	return func(snap Snapshot) (bool, error) {
		if Missing(snap.Sensors.FlameTemperature) {
			return false, fmt.Errorf("flame_temperature: %w", ErrMissingInput)
		}
		return snap.Sensors.FlameTemperature >= threshold, nil
	}
}

// FlameBelow fires when the flame temperature is strictly below threshold.
func FlameBelow(threshold float64) Guard {
	return func(snap Snapshot) (bool, error) {
		if Missing(snap.Sensors.FlameTemperature) {
			return false, fmt.Errorf("flame_temperature: %w", ErrMissingInput)
		}
		return snap.Sensors.FlameTemperature < threshold, nil
	}
}

// TransitionRule moves the machine to Target when Guard holds.
type TransitionRule struct {
	Guard  Guard
	Target MacroState
}

// TransitionTable holds the ordered rules for each macro-state. Rules are
// evaluated top to bottom and the first true guard wins.
type TransitionTable struct {
	rules map[MacroState][]TransitionRule
}

// NewTransitionTable validates and copies rules.
func NewTransitionTable(rules map[MacroState][]TransitionRule) (*TransitionTable, error) {
	t := &TransitionTable{rules: make(map[MacroState][]TransitionRule, len(rules))}
	for state, list := range rules {
		if !state.Valid() {
			return nil, configErrorf("transitions", "unknown source state %q", state)
		}
		for i, r := range list {
			component := fmt.Sprintf("transitions %s[%d]", state, i)
			if r.Guard == nil {
				return nil, configErrorf(component, "guard is nil")
			}
			if !r.Target.Valid() {
				return nil, configErrorf(component, "unknown target state %q", r.Target)
			}
		}
		t.rules[state] = append([]TransitionRule(nil), list...)
	}
	return t, nil
}

// Rules returns the rules for state in evaluation order.
func (t *TransitionTable) Rules(state MacroState) []TransitionRule {
	return t.rules[state]
}

// Evaluate returns the target of the first rule for state whose guard holds.
// matched is false when no rule fires; the caller then stays put. A guard
// failure stops evaluation and is returned as a *GuardEvaluationError.
func (t *TransitionTable) Evaluate(state MacroState, snap Snapshot) (target MacroState, matched bool, err error) {
	for i, r := range t.rules[state] {
		ok, err := r.Guard(snap)
		if err != nil {
			return "", false, &GuardEvaluationError{
				State:  state,
				Target: r.Target,
				Rule:   strconv.Itoa(i),
				Err:    err,
			}
		}
		if ok {
			return r.Target, true, nil
		}
	}
	return "", false, nil
}

// Targets lists every state reachable from the table, for validation.
func (t *TransitionTable) Targets() []MacroState {
	var out []MacroState
	for _, list := range t.rules {
		for _, r := range list {
			out = append(out, r.Target)
		}
	}
	return out
}
