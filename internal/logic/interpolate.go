package logic

import (
	"math"
	"time"
)

// Interpolate returns the value a linear ramp from start to end has reached
// after elapsed out of total. The result never leaves the interval spanned by
// start and end, whichever direction the ramp runs. A zero (or negative)
// total yields end immediately.
func Interpolate(start, end float64, elapsed, total time.Duration) float64 {
	if total <= 0 {
		return end
	}
	fraction := clamp(float64(elapsed)/float64(total), 0, 1)
	if fraction >= 1 {
		return end
	}
	raw := start + (end-start)*fraction
	return clamp(raw, math.Min(start, end), math.Max(start, end))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Range is the start and end value of an analog channel over a window.
type Range struct {
	Start float64
	End   float64
}

// Flat returns a Range that holds v for the whole window.
func Flat(v float64) Range {
	return Range{Start: v, End: v}
}

// At interpolates the range.
func (r Range) At(elapsed, total time.Duration) float64 {
	return Interpolate(r.Start, r.End, elapsed, total)
}

func (r Range) finite() bool {
	return !math.IsNaN(r.Start) && !math.IsInf(r.Start, 0) &&
		!math.IsNaN(r.End) && !math.IsInf(r.End, 0)
}

// OutputProfile describes every hardware output over a time window: analog
// channels ramp, boolean channels snap to their value immediately.
type OutputProfile struct {
	FanSpeed      Range
	GlowVolts     Range
	FuelPumpSpeed Range
	WaterPump     bool
	Blower        bool
}

// At computes the outputs elapsed into a window of length total.
func (p OutputProfile) At(elapsed, total time.Duration) HardwareOutputs {
	return HardwareOutputs{
		FanSpeed:      p.FanSpeed.At(elapsed, total),
		GlowVolts:     p.GlowVolts.At(elapsed, total),
		FuelPumpSpeed: p.FuelPumpSpeed.At(elapsed, total),
		WaterPumpOn:   p.WaterPump,
		BlowerOn:      p.Blower,
	}
}

func (p OutputProfile) validate(component string) error {
	channels := []struct {
		name string
		r    Range
	}{
		{"fan_speed", p.FanSpeed},
		{"glow_volts", p.GlowVolts},
		{"fuel_pump_speed", p.FuelPumpSpeed},
	}
	for _, c := range channels {
		if !c.r.finite() {
			return configErrorf(component, "%s range must be finite, got %v..%v", c.name, c.r.Start, c.r.End)
		}
		if c.r.Start < 0 || c.r.End < 0 {
			return configErrorf(component, "%s range must not be negative, got %v..%v", c.name, c.r.Start, c.r.End)
		}
	}
	return nil
}

// StateParams defines one macro-state of the ignition variant: how long it
// runs and what the outputs do meanwhile.
type StateParams struct {
	Runtime time.Duration
	OutputProfile
}

// Outputs computes the hardware outputs elapsed into the state.
func (p StateParams) Outputs(elapsed time.Duration) HardwareOutputs {
	return p.At(elapsed, p.Runtime)
}

func (p StateParams) validate(state MacroState) error {
	component := "params " + string(state)
	if p.Runtime < 0 {
		return configErrorf(component, "runtime must not be negative, got %v", p.Runtime)
	}
	return p.OutputProfile.validate(component)
}
