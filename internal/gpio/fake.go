package gpio

import (
	"sync"

	"github.com/sweeney/burner-controller/internal/logic"
)

// FakeDriver is a test double that records applied outputs and returns a
// settable RUN state. Safe for concurrent use.
type FakeDriver struct {
	mu      sync.Mutex
	run     bool
	pump    bool
	blower  bool
	applies int
	closed  bool

	// ApplyError and ReadError, if set, are returned by Apply and ReadRun.
	ApplyError error
	ReadError  error
}

// NewFakeDriver creates a FakeDriver with RUN off.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{}
}

// Apply records the boolean outputs.
func (f *FakeDriver) Apply(out logic.HardwareOutputs) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ApplyError != nil {
		return f.ApplyError
	}
	f.pump = out.WaterPumpOn
	f.blower = out.BlowerOn
	f.applies++
	return nil
}

// ReadRun returns the scripted RUN state.
func (f *FakeDriver) ReadRun() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadError != nil {
		return false, f.ReadError
	}
	return f.run, nil
}

// SetRun scripts the RUN switch.
func (f *FakeDriver) SetRun(on bool) {
	f.mu.Lock()
	f.run = on
	f.mu.Unlock()
}

// Lines returns the current water-pump and blower levels.
func (f *FakeDriver) Lines() (pump, blower bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pump, f.blower
}

// Applies returns how many times Apply succeeded.
func (f *FakeDriver) Applies() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.applies
}

// Close switches the lines off and marks the driver closed.
func (f *FakeDriver) Close() error {
	f.mu.Lock()
	f.pump, f.blower = false, false
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (f *FakeDriver) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
