//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/burner-controller/internal/logic"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealDriver is not available on non-Linux platforms.
type RealDriver struct{}

// NewRealDriver returns an error on non-Linux platforms.
func NewRealDriver(Pins) (*RealDriver, error) {
	return nil, errUnsupported
}

// Apply is not implemented on non-Linux platforms.
func (d *RealDriver) Apply(logic.HardwareOutputs) error {
	return errUnsupported
}

// ReadRun is not implemented on non-Linux platforms.
func (d *RealDriver) ReadRun() (bool, error) {
	return false, errUnsupported
}

// Close is a no-op on non-Linux platforms.
func (d *RealDriver) Close() error {
	return nil
}
