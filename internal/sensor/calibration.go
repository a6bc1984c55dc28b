// Package sensor converts raw ADC counts from the burner's analog inputs into
// temperatures.
package sensor

import (
	"errors"
	"fmt"
)

// Point maps a raw ADC count to a temperature in °C.
type Point struct {
	Raw         int
	Temperature float64
}

// Calibration is a piecewise-linear mapping through at least two points with
// strictly increasing Raw values. Counts outside the table are extrapolated
// from the nearest segment.
type Calibration struct {
	Name   string
	points []Point
}

// Firmware calibration tables.
var (
	Water    = MustCalibration("water", []Point{{0, 20}, {128, 50}, {250, 100}})
	Flame    = MustCalibration("flame", []Point{{0, 100}, {128, 300}, {250, 600}})
	Overtemp = MustCalibration("overtemp", []Point{{0, 50}, {128, 75}, {250, 150}})
)

// NewCalibration validates points and returns a Calibration.
func NewCalibration(name string, points []Point) (*Calibration, error) {
	if len(points) < 2 {
		return nil, errors.New("calibration needs at least two points")
	}
	for i := 1; i < len(points); i++ {
		if points[i].Raw <= points[i-1].Raw {
			return nil, fmt.Errorf("calibration %s: raw values must increase (point %d)", name, i)
		}
	}
	return &Calibration{Name: name, points: append([]Point(nil), points...)}, nil
}

// MustCalibration is like NewCalibration but panics on error.
func MustCalibration(name string, points []Point) *Calibration {
	c, err := NewCalibration(name, points)
	if err != nil {
		panic(err)
	}
	return c
}

// Temperature converts a raw count.
func (c *Calibration) Temperature(raw int) float64 {
	n := len(c.points)
	seg := n - 2
	for i := 0; i < n-1; i++ {
		if raw <= c.points[i+1].Raw {
			seg = i
			break
		}
	}
	a, b := c.points[seg], c.points[seg+1]
	return a.Temperature + (b.Temperature-a.Temperature)*float64(raw-a.Raw)/float64(b.Raw-a.Raw)
}

// ByName returns one of the firmware tables.
func ByName(name string) (*Calibration, bool) {
	switch name {
	case "water":
		return Water, true
	case "flame":
		return Flame, true
	case "overtemp":
		return Overtemp, true
	}
	return nil, false
}
