package sim

import (
	"testing"

	"github.com/sweeney/burner-controller/internal/logic"
	"github.com/sweeney/burner-controller/internal/signals"
)

func TestStepHeatsInHigh(t *testing.T) {
	store := signals.NewStore()
	store.SetWaterTemp(60)
	env := Default()

	r := env.Step(logic.StateHigh, store)
	if r.WaterTemp != 62 {
		t.Errorf("WaterTemp: got %v, want 62", r.WaterTemp)
	}
	if r.FlameTemperature != 0 {
		t.Errorf("FlameTemperature: got %v, want 0", r.FlameTemperature)
	}
}

func TestStepCoolsElsewhere(t *testing.T) {
	for _, state := range []logic.MacroState{logic.StateLow, logic.StateIdle, logic.StateShutdown, logic.StateStart} {
		store := signals.NewStore()
		store.SetWaterTemp(60)
		r := Default().Step(state, store)
		if r.WaterTemp != 58 {
			t.Errorf("%s: WaterTemp got %v, want 58", state, r.WaterTemp)
		}
	}
}

func TestStepClampsWater(t *testing.T) {
	store := signals.NewStore()
	store.SetWaterTemp(100)
	env := Default()
	if r := env.Step(logic.StateHigh, store); r.WaterTemp != 100 {
		t.Errorf("upper clamp: got %v", r.WaterTemp)
	}
	// Default store starts at 20°C, below the simulated floor.
	store = signals.NewStore()
	if r := env.Step(logic.StateIdle, store); r.WaterTemp != 50 {
		t.Errorf("lower clamp: got %v", r.WaterTemp)
	}
}

func TestStepFlameRisesDuringIgnition(t *testing.T) {
	store := signals.NewStore()
	env := Default()
	for i := 0; i < 25; i++ {
		env.Step(logic.StateBurnerStart, store)
	}
	if got := store.Snapshot().Sensors.FlameTemperature; got != 250 {
		t.Errorf("FlameTemperature after 25 steps: got %v, want 250", got)
	}

	for i := 0; i < 100; i++ {
		env.Step(logic.StateIdle, store)
	}
	if got := store.Snapshot().Sensors.FlameTemperature; got != 0 {
		t.Errorf("FlameTemperature should floor at 0, got %v", got)
	}
}
