package sensor

import (
	"math"
	"testing"
)

func TestCalibrationTablePoints(t *testing.T) {
	tests := []struct {
		cal  *Calibration
		raw  int
		want float64
	}{
		{Water, 0, 20},
		{Water, 128, 50},
		{Water, 250, 100},
		{Water, 64, 35},
		{Flame, 128, 300},
		{Flame, 189, 450},
		{Overtemp, 250, 150},
	}
	for _, tt := range tests {
		got := tt.cal.Temperature(tt.raw)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s(%d): got %v, want %v", tt.cal.Name, tt.raw, got, tt.want)
		}
	}
}

func TestCalibrationExtrapolates(t *testing.T) {
	// Below the table: slope of the first segment (30°C per 128 counts).
	if got, want := Water.Temperature(-128), -10.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("below range: got %v, want %v", got, want)
	}
	// Above the table: slope of the last segment (50°C per 122 counts).
	if got, want := Water.Temperature(372), 150.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("above range: got %v, want %v", got, want)
	}
}

func TestNewCalibrationRejectsBadTables(t *testing.T) {
	if _, err := NewCalibration("one", []Point{{0, 0}}); err == nil {
		t.Error("expected error for a single point")
	}
	if _, err := NewCalibration("flat", []Point{{0, 0}, {0, 10}}); err == nil {
		t.Error("expected error for non-increasing raw values")
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"water", "flame", "overtemp"} {
		if c, ok := ByName(name); !ok || c.Name != name {
			t.Errorf("ByName(%q) = %v, %v", name, c, ok)
		}
	}
	if _, ok := ByName("surface"); ok {
		t.Error("unexpected table for unknown name")
	}
}
