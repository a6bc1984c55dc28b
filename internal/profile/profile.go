// Package profile loads operating profiles: YAML documents describing either
// a staged control cycle or a timed ignition sequence, with transition guards
// and stage conditions written as CEL expressions.
package profile

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/burner-controller/internal/logic"
)

// Controller variants a profile can describe.
const (
	ModeStaged   = "staged"
	ModeIgnition = "ignition"
)

//go:embed profiles/*.yaml
var builtin embed.FS

// Profile is a decoded operating profile.
type Profile struct {
	Mode    string                `yaml:"mode"`
	Initial string                `yaml:"initial,omitempty"`
	States  map[string]*StateSpec `yaml:"states"`
}

// StateSpec configures one macro-state. Staged profiles use Next and Stages
// for sequence-driven states and Transitions for table-driven ones; ignition
// profiles use Runtime, Outputs and Transitions.
type StateSpec struct {
	Next        string           `yaml:"next,omitempty"`
	Stages      []StageSpec      `yaml:"stages,omitempty"`
	Runtime     Duration         `yaml:"runtime,omitempty"`
	Outputs     *OutputsSpec     `yaml:"outputs,omitempty"`
	Transitions []TransitionSpec `yaml:"transitions,omitempty"`
}

// StageSpec is one stage of a sequence. Until is a CEL condition.
type StageSpec struct {
	Name     string       `yaml:"name"`
	Duration Duration     `yaml:"duration,omitempty"`
	Until    string       `yaml:"until,omitempty"`
	Ramp     *OutputsSpec `yaml:"ramp,omitempty"`
}

// TransitionSpec moves to To when the CEL expression When is true.
type TransitionSpec struct {
	When string `yaml:"when"`
	To   string `yaml:"to"`
}

// OutputsSpec mirrors logic.OutputProfile.
type OutputsSpec struct {
	FanSpeed      Range `yaml:"fan_speed,omitempty"`
	GlowVolts     Range `yaml:"glow_volts,omitempty"`
	FuelPumpSpeed Range `yaml:"fuel_pump_speed,omitempty"`
	WaterPump     bool  `yaml:"water_pump,omitempty"`
	Blower        bool  `yaml:"blower,omitempty"`
}

func (o *OutputsSpec) profile() logic.OutputProfile {
	return logic.OutputProfile{
		FanSpeed:      logic.Range(o.FanSpeed),
		GlowVolts:     logic.Range(o.GlowVolts),
		FuelPumpSpeed: logic.Range(o.FuelPumpSpeed),
		WaterPump:     o.WaterPump,
		Blower:        o.Blower,
	}
}

// Range is written either as a single number (held flat) or as a
// two-element [start, end] list.
type Range logic.Range

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Range) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := node.Decode(&v); err != nil {
			return err
		}
		*r = Range{Start: v, End: v}
		return nil
	case yaml.SequenceNode:
		var vs []float64
		if err := node.Decode(&vs); err != nil {
			return err
		}
		if len(vs) != 2 {
			return fmt.Errorf("line %d: range needs [start, end], got %d values", node.Line, len(vs))
		}
		*r = Range{Start: vs[0], End: vs[1]}
		return nil
	}
	return fmt.Errorf("line %d: range must be a number or [start, end]", node.Line)
}

// MarshalYAML implements yaml.Marshaler.
func (r Range) MarshalYAML() (any, error) {
	if r.Start == r.End {
		return r.Start, nil
	}
	return []float64{r.Start, r.End}, nil
}

// IsZero lets omitempty drop unset ranges.
func (r Range) IsZero() bool {
	return r.Start == 0 && r.End == 0
}

// Duration is a time.Duration written as a Go duration string ("2s", "250ms").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// IsZero lets omitempty drop unset durations.
func (d Duration) IsZero() bool {
	return d == 0
}

// Load reads and parses a profile file.
func Load(path string) (*Profile, error) {
	// #nosec G304 -- profile paths are provided by the operator via CLI
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in profile for mode.
func Default(mode string) (*Profile, error) {
	data, err := builtin.ReadFile("profiles/" + mode + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("no built-in profile for mode %q", mode)
	}
	return Parse(data)
}

// Parse strictly decodes a profile and compiles every guard, so a profile
// that parses will also build.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &logic.ConfigurationError{Component: "profile", Reason: "empty document"}
		}
		return nil, &logic.ConfigurationError{Component: "profile", Reason: err.Error()}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, &logic.ConfigurationError{Component: "profile", Reason: "multiple documents or trailing content"}
	}

	switch p.Mode {
	case ModeStaged:
		if _, err := p.Staged(); err != nil {
			return nil, err
		}
	case ModeIgnition:
		if _, err := p.Ignition(); err != nil {
			return nil, err
		}
	default:
		return nil, &logic.ConfigurationError{Component: "profile", Reason: fmt.Sprintf("mode must be %q or %q, got %q", ModeStaged, ModeIgnition, p.Mode)}
	}
	return &p, nil
}

// Marshal renders the profile back to YAML.
func (p *Profile) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
