package profile

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/sweeney/burner-controller/internal/logic"
)

// Staged builds the staged engine configuration. The result still goes
// through logic.NewStagedEngine's own validation.
func (p *Profile) Staged() (logic.StagedConfig, error) {
	if p.Mode != ModeStaged {
		return logic.StagedConfig{}, modeError(p.Mode, ModeStaged)
	}
	env, err := newEnv()
	if err != nil {
		return logic.StagedConfig{}, err
	}
	initial, err := p.initial()
	if err != nil {
		return logic.StagedConfig{}, err
	}
	cfg := logic.StagedConfig{
		Initial:     initial,
		Sequences:   make(map[logic.MacroState]logic.SequenceSpec),
		Transitions: make(map[logic.MacroState][]logic.TransitionRule),
	}
	for _, name := range p.stateNames() {
		spec := p.state(name)
		state, err := parseState("state "+name, name)
		if err != nil {
			return logic.StagedConfig{}, err
		}
		component := "state " + name
		if spec.Runtime != 0 || spec.Outputs != nil {
			return logic.StagedConfig{}, &logic.ConfigurationError{Component: component, Reason: "runtime and outputs belong to ignition profiles"}
		}
		if len(spec.Stages) > 0 {
			if len(spec.Transitions) > 0 {
				return logic.StagedConfig{}, &logic.ConfigurationError{Component: component, Reason: "a state has either stages or transitions, not both"}
			}
			next, err := parseState(component+" next", spec.Next)
			if err != nil {
				return logic.StagedConfig{}, err
			}
			stages, err := buildStages(env, name, spec.Stages)
			if err != nil {
				return logic.StagedConfig{}, err
			}
			cfg.Sequences[state] = logic.SequenceSpec{Next: next, Stages: stages}
			continue
		}
		if spec.Next != "" {
			return logic.StagedConfig{}, &logic.ConfigurationError{Component: component, Reason: "next needs stages"}
		}
		rules, err := buildRules(env, name, spec.Transitions)
		if err != nil {
			return logic.StagedConfig{}, err
		}
		cfg.Transitions[state] = rules
	}
	return cfg, nil
}

// Ignition builds the ignition engine configuration.
func (p *Profile) Ignition() (logic.IgnitionConfig, error) {
	if p.Mode != ModeIgnition {
		return logic.IgnitionConfig{}, modeError(p.Mode, ModeIgnition)
	}
	env, err := newEnv()
	if err != nil {
		return logic.IgnitionConfig{}, err
	}
	initial, err := p.initial()
	if err != nil {
		return logic.IgnitionConfig{}, err
	}
	cfg := logic.IgnitionConfig{
		Initial:     initial,
		Params:      make(map[logic.MacroState]logic.StateParams),
		Transitions: make(map[logic.MacroState][]logic.TransitionRule),
	}
	for _, name := range p.stateNames() {
		spec := p.state(name)
		state, err := parseState("state "+name, name)
		if err != nil {
			return logic.IgnitionConfig{}, err
		}
		if len(spec.Stages) > 0 || spec.Next != "" {
			return logic.IgnitionConfig{}, &logic.ConfigurationError{Component: "state " + name, Reason: "stages and next belong to staged profiles"}
		}
		params := logic.StateParams{Runtime: time.Duration(spec.Runtime)}
		if spec.Outputs != nil {
			params.OutputProfile = spec.Outputs.profile()
		}
		cfg.Params[state] = params
		if len(spec.Transitions) > 0 {
			rules, err := buildRules(env, name, spec.Transitions)
			if err != nil {
				return logic.IgnitionConfig{}, err
			}
			cfg.Transitions[state] = rules
		}
	}
	return cfg, nil
}

func buildStages(env *cel.Env, state string, specs []StageSpec) ([]logic.Stage, error) {
	stages := make([]logic.Stage, 0, len(specs))
	for i, s := range specs {
		st := logic.Stage{Name: s.Name, Duration: time.Duration(s.Duration)}
		if s.Until != "" {
			g, err := compileGuard(env, fmt.Sprintf("stage %s[%d]", state, i), s.Until)
			if err != nil {
				return nil, err
			}
			st.Condition = g
		}
		if s.Ramp != nil {
			ramp := s.Ramp.profile()
			st.Ramp = &ramp
		}
		stages = append(stages, st)
	}
	return stages, nil
}

func buildRules(env *cel.Env, state string, specs []TransitionSpec) ([]logic.TransitionRule, error) {
	rules := make([]logic.TransitionRule, 0, len(specs))
	for i, s := range specs {
		component := fmt.Sprintf("transition %s[%d]", state, i)
		target, err := parseState(component, s.To)
		if err != nil {
			return nil, err
		}
		g, err := compileGuard(env, component, s.When)
		if err != nil {
			return nil, err
		}
		rules = append(rules, logic.TransitionRule{Guard: g, Target: target})
	}
	return rules, nil
}

func (p *Profile) initial() (logic.MacroState, error) {
	if p.Initial == "" {
		return logic.StateIdle, nil
	}
	return parseState("initial", p.Initial)
}

// stateNames returns the configured states in a stable order so that errors
// are reported deterministically.
func (p *Profile) stateNames() []string {
	names := make([]string, 0, len(p.States))
	for name := range p.States {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// state returns the spec for name; a key with no body is an empty spec.
func (p *Profile) state(name string) *StateSpec {
	if spec := p.States[name]; spec != nil {
		return spec
	}
	return &StateSpec{}
}

func parseState(component, name string) (logic.MacroState, error) {
	s, ok := logic.ParseMacroState(name)
	if !ok {
		return "", &logic.ConfigurationError{Component: component, Reason: fmt.Sprintf("unknown state %q", name)}
	}
	return s, nil
}

func modeError(got, want string) error {
	return &logic.ConfigurationError{Component: "profile", Reason: fmt.Sprintf("mode is %q, not %q", got, want)}
}
