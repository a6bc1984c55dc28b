// Package gpio drives the burner's boolean outputs and reads the RUN switch
// through the Linux GPIO character device. Analog channels (fan, glow plug,
// fuel pump) have no DAC on the GPIO chip and are only reported.
package gpio

import "github.com/sweeney/burner-controller/internal/logic"

// Driver applies outputs to hardware and reads the run input.
type Driver interface {
	// Apply drives the water-pump and blower lines from out.
	Apply(out logic.HardwareOutputs) error

	// ReadRun returns the logical state of the RUN switch. A disconnected
	// line reads as OFF.
	ReadRun() (bool, error)

	// Close switches every output off and releases the lines.
	Close() error
}

// Pins holds line offsets (BCM numbering) and the RUN input polarity.
type Pins struct {
	WaterPump int
	Blower    int
	Run       int

	// RunActiveLow is set when the RUN switch pulls its line to ground. The
	// line is then biased high; otherwise it is biased low. Either way an
	// open circuit reads as OFF.
	RunActiveLow bool
}

// DefaultPins is the wiring of the reference board.
var DefaultPins = Pins{WaterPump: 17, Blower: 27, Run: 26}

func level(on bool) int {
	if on {
		return 1
	}
	return 0
}

// runLevel maps a raw RUN line value to the logical switch state.
func runLevel(raw int, activeLow bool) bool {
	if activeLow {
		return raw == 0
	}
	return raw != 0
}
