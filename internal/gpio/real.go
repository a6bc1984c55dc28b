//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/burner-controller/internal/logic"
)

// RealDriver drives actual hardware via the Linux GPIO character device.
type RealDriver struct {
	chip      *gpiocdev.Chip
	pump      *gpiocdev.Line
	blower    *gpiocdev.Line
	run       *gpiocdev.Line
	activeLow bool
}

// NewRealDriver requests the output lines (initially low) and the RUN input.
func NewRealDriver(pins Pins) (*RealDriver, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	d := &RealDriver{chip: chip, activeLow: pins.RunActiveLow}

	if d.pump, err = chip.RequestLine(pins.WaterPump, gpiocdev.AsOutput(0)); err != nil {
		d.Close()
		return nil, fmt.Errorf("request water pump pin %d: %w", pins.WaterPump, err)
	}
	if d.blower, err = chip.RequestLine(pins.Blower, gpiocdev.AsOutput(0)); err != nil {
		d.Close()
		return nil, fmt.Errorf("request blower pin %d: %w", pins.Blower, err)
	}
	// Bias against the switch so a broken wire reads as OFF.
	bias := gpiocdev.WithPullDown
	if pins.RunActiveLow {
		bias = gpiocdev.WithPullUp
	}
	if d.run, err = chip.RequestLine(pins.Run, gpiocdev.AsInput, bias); err != nil {
		d.Close()
		return nil, fmt.Errorf("request run pin %d: %w", pins.Run, err)
	}
	return d, nil
}

// Apply drives the boolean outputs.
func (d *RealDriver) Apply(out logic.HardwareOutputs) error {
	if err := d.pump.SetValue(level(out.WaterPumpOn)); err != nil {
		return fmt.Errorf("set water pump: %w", err)
	}
	if err := d.blower.SetValue(level(out.BlowerOn)); err != nil {
		return fmt.Errorf("set blower: %w", err)
	}
	return nil
}

// ReadRun returns the logical RUN state.
func (d *RealDriver) ReadRun() (bool, error) {
	raw, err := d.run.Value()
	if err != nil {
		return false, fmt.Errorf("read run pin: %w", err)
	}
	return runLevel(raw, d.activeLow), nil
}

// Close drives the outputs low, returns every line to an input with
// pull-down (the Pi boot default) and releases the chip.
func (d *RealDriver) Close() error {
	var errs []error
	for _, o := range []struct {
		name string
		line *gpiocdev.Line
	}{{"water pump", d.pump}, {"blower", d.blower}} {
		if o.line == nil {
			continue
		}
		if err := o.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("switch off %s: %w", o.name, err))
		}
		if err := o.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s: %w", o.name, err))
		}
		if err := o.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", o.name, err))
		}
	}
	if d.run != nil {
		if err := d.run.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close run: %w", err))
		}
	}
	if d.chip != nil {
		if err := d.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	return errors.Join(errs...)
}
