// Package signals holds the controller's external inputs. Each field has a
// single writer (operator console, MQTT, simulator or GPIO); the tick loop
// takes one consistent Snapshot per tick.
package signals

import (
	"sync"

	"github.com/sweeney/burner-controller/internal/logic"
)

// Default input values before any producer has written.
const (
	DefaultWaterTemp        = 20.0
	DefaultFlameTemperature = 0.0
)

// Store holds control signals and sensor readings behind an RWMutex.
type Store struct {
	mu       sync.RWMutex
	controls logic.ControlSignals
	sensors  logic.SensorReadings
}

// NewStore creates a Store with run=false and default temperatures.
func NewStore() *Store {
	return &Store{
		controls: logic.ControlSignals{WaterTemp: DefaultWaterTemp},
		sensors:  logic.SensorReadings{FlameTemperature: DefaultFlameTemperature},
	}
}

// SetRun sets the run signal.
func (s *Store) SetRun(run bool) {
	s.mu.Lock()
	s.controls.Run = run
	s.mu.Unlock()
}

// SetWaterTemp sets the water temperature in °C.
func (s *Store) SetWaterTemp(temp float64) {
	s.mu.Lock()
	s.controls.WaterTemp = temp
	s.mu.Unlock()
}

// AdjustWaterTemp adds delta to the water temperature and clamps it to
// [lo, hi] in one step, returning the new value.
func (s *Store) AdjustWaterTemp(delta, lo, hi float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controls.WaterTemp = clamp(s.controls.WaterTemp+delta, lo, hi)
	return s.controls.WaterTemp
}

// SetFlameTemperature sets the flame temperature in °C.
func (s *Store) SetFlameTemperature(temp float64) {
	s.mu.Lock()
	s.sensors.FlameTemperature = temp
	s.mu.Unlock()
}

// AdjustFlameTemperature adds delta to the flame temperature, never going
// below floor, and returns the new value.
func (s *Store) AdjustFlameTemperature(delta, floor float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.sensors.FlameTemperature + delta
	if v < floor {
		v = floor
	}
	s.sensors.FlameTemperature = v
	return v
}

// Snapshot returns a consistent copy of every input.
func (s *Store) Snapshot() logic.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return logic.Snapshot{Controls: s.controls, Sensors: s.sensors}
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
