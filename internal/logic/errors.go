package logic

import (
	"errors"
	"fmt"
)

// ErrMissingInput is returned by guards that read an absent (NaN) input.
var ErrMissingInput = errors.New("missing input")

// ConfigurationError reports an invalid sequence, stage, state parameter set
// or transition table. It is only ever returned at construction time.
type ConfigurationError struct {
	Component string // e.g. "stage HIGH[1]", "params FAN_START"
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Component, e.Reason)
}

func configErrorf(component, format string, args ...any) error {
	return &ConfigurationError{Component: component, Reason: fmt.Sprintf(format, args...)}
}

// GuardEvaluationError reports that a guard predicate itself failed. It is
// distinct from a guard that evaluated to false.
type GuardEvaluationError struct {
	State  MacroState
	Target MacroState // empty for stage conditions
	Rule   string     // rule index or stage name
	Err    error
}

func (e *GuardEvaluationError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("guard %s in %s (-> %s): %v", e.Rule, e.State, e.Target, e.Err)
	}
	return fmt.Sprintf("guard %s in %s: %v", e.Rule, e.State, e.Err)
}

func (e *GuardEvaluationError) Unwrap() error {
	return e.Err
}
