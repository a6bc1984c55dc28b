// Package sim is a simulated environment that writes plausible water and
// flame temperatures into the signal store, reacting to the controller's
// current macro-state.
package sim

import (
	"github.com/sweeney/burner-controller/internal/logic"
	"github.com/sweeney/burner-controller/internal/signals"
)

// Environment holds the simulation's per-step rates and limits.
type Environment struct {
	WaterStep    float64 // °C per step, heating in HIGH and cooling elsewhere
	WaterMin     float64
	WaterMax     float64
	FlameRise    float64 // °C per step while igniting
	FlameFall    float64 // °C per step otherwise
	FlameHeating []logic.MacroState
}

// Default returns the simulation used by the bench harness: water moves 2°C
// per step within 50..100, the flame rises 10°C per step while the burner is
// starting and falls 5°C otherwise.
func Default() Environment {
	return Environment{
		WaterStep:    2,
		WaterMin:     50,
		WaterMax:     100,
		FlameRise:    10,
		FlameFall:    5,
		FlameHeating: []logic.MacroState{logic.StateBurnerStart},
	}
}

// Reading is what one step produced.
type Reading struct {
	WaterTemp        float64
	FlameTemperature float64
}

// Step advances the simulation by one step for the given controller state.
func (e Environment) Step(state logic.MacroState, store *signals.Store) Reading {
	water := e.WaterStep
	if state != logic.StateHigh {
		water = -water
	}
	flame := -e.FlameFall
	for _, s := range e.FlameHeating {
		if s == state {
			flame = e.FlameRise
			break
		}
	}
	return Reading{
		WaterTemp:        store.AdjustWaterTemp(water, e.WaterMin, e.WaterMax),
		FlameTemperature: store.AdjustFlameTemperature(flame, 0),
	}
}
