// Package command parses operator commands and applies them to the signal
// store. Commands arrive as console lines (R, S, W<num>, F<num>) or as JSON
// payloads over MQTT.
package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sweeney/burner-controller/internal/sensor"
	"github.com/sweeney/burner-controller/internal/signals"
)

// Kind identifies a command.
type Kind string

const (
	KindRun       Kind = "RUN"
	KindStop      Kind = "STOP"
	KindWaterTemp Kind = "WATER_TEMP"
	KindFlameTemp Kind = "FLAME_TEMP"
)

// Command is a single operator instruction.
type Command struct {
	Kind  Kind
	Value float64 // temperature in °C for WATER_TEMP / FLAME_TEMP
}

// ErrInvalid is wrapped by every parse failure.
var ErrInvalid = errors.New("invalid command")

// Usage describes the console syntax.
const Usage = "R: run, S: stop, W<num>: set water temp, F<num>: set flame temp"

// Parse reads a console line. Input is case-insensitive and trimmed.
func Parse(line string) (Command, error) {
	s := strings.ToUpper(strings.TrimSpace(line))
	switch {
	case s == "R":
		return Command{Kind: KindRun}, nil
	case s == "S":
		return Command{Kind: KindStop}, nil
	case strings.HasPrefix(s, "W"):
		v, err := parseTemp(s[1:])
		if err != nil {
			return Command{}, fmt.Errorf("%w: water temperature %q: use W<num> (e.g. W60)", ErrInvalid, s[1:])
		}
		return Command{Kind: KindWaterTemp, Value: v}, nil
	case strings.HasPrefix(s, "F"):
		v, err := parseTemp(s[1:])
		if err != nil {
			return Command{}, fmt.Errorf("%w: flame temperature %q: use F<num> (e.g. F220)", ErrInvalid, s[1:])
		}
		return Command{Kind: KindFlameTemp, Value: v}, nil
	}
	return Command{}, fmt.Errorf("%w: %q (%s)", ErrInvalid, line, Usage)
}

func parseTemp(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("not a finite number")
	}
	return v, nil
}

// Apply writes the command into the store.
func (c Command) Apply(store *signals.Store) {
	switch c.Kind {
	case KindRun:
		store.SetRun(true)
	case KindStop:
		store.SetRun(false)
	case KindWaterTemp:
		store.SetWaterTemp(c.Value)
	case KindFlameTemp:
		store.SetFlameTemperature(c.Value)
	}
}

// String renders the command for logs.
func (c Command) String() string {
	switch c.Kind {
	case KindWaterTemp, KindFlameTemp:
		return fmt.Sprintf("%s=%.1f", c.Kind, c.Value)
	}
	return string(c.Kind)
}

// Payload is the JSON command accepted over MQTT. Exactly one field should be
// set. Sensor values may be given in °C or as raw ADC counts, which are
// converted with the firmware calibration tables.
type Payload struct {
	Run       *bool    `json:"run,omitempty"`
	WaterTemp *Reading `json:"water_temp,omitempty"`
	FlameTemp *Reading `json:"flame_temp,omitempty"`
}

// Reading is a temperature given directly or as a raw ADC count.
type Reading struct {
	Value *float64 `json:"value,omitempty"`
	Raw   *int     `json:"raw,omitempty"`
}

func (r Reading) celsius(cal *sensor.Calibration) (float64, error) {
	switch {
	case r.Value != nil && r.Raw != nil:
		return 0, errors.New("both value and raw given")
	case r.Value != nil:
		if math.IsNaN(*r.Value) || math.IsInf(*r.Value, 0) {
			return 0, errors.New("value is not finite")
		}
		return *r.Value, nil
	case r.Raw != nil:
		return cal.Temperature(*r.Raw), nil
	}
	return 0, errors.New("neither value nor raw given")
}

// Decode parses a JSON command payload into commands.
func Decode(data []byte) ([]Command, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	var cmds []Command
	if p.Run != nil {
		if *p.Run {
			cmds = append(cmds, Command{Kind: KindRun})
		} else {
			cmds = append(cmds, Command{Kind: KindStop})
		}
	}
	if p.WaterTemp != nil {
		v, err := p.WaterTemp.celsius(sensor.Water)
		if err != nil {
			return nil, fmt.Errorf("%w: water_temp: %v", ErrInvalid, err)
		}
		cmds = append(cmds, Command{Kind: KindWaterTemp, Value: v})
	}
	if p.FlameTemp != nil {
		v, err := p.FlameTemp.celsius(sensor.Flame)
		if err != nil {
			return nil, fmt.Errorf("%w: flame_temp: %v", ErrInvalid, err)
		}
		cmds = append(cmds, Command{Kind: KindFlameTemp, Value: v})
	}
	if len(cmds) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalid)
	}
	return cmds, nil
}
