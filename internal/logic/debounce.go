package logic

import "time"

// Debouncer turns a noisy boolean input (such as the RUN switch on a GPIO
// line) into a stable value. A new value is only accepted after it has been
// observed continuously for the debounce duration. Until the first value has
// been stable that long the debouncer is not baselined.
type Debouncer struct {
	duration     time.Duration
	stable       bool
	pending      *bool
	pendingSince time.Time
	baselined    bool
}

// NewDebouncer creates a debouncer with the given duration.
func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{duration: duration}
}

// Process feeds one sample taken at now. It returns true when the stable
// value changed (after the baseline was established).
func (d *Debouncer) Process(value bool, now time.Time) (changed bool) {
	if !d.baselined {
		if d.pending == nil || *d.pending != value {
			// Start observing, or restart because the value moved.
			d.setPending(value, now)
			return false
		}
		if now.Sub(d.pendingSince) >= d.duration {
			d.stable = value
			d.baselined = true
			d.pending = nil
		}
		return false
	}

	if value == d.stable {
		d.pending = nil
		return false
	}

	if d.pending == nil || *d.pending != value {
		d.setPending(value, now)
		return false
	}

	if now.Sub(d.pendingSince) >= d.duration {
		d.stable = value
		d.pending = nil
		return true
	}
	return false
}

func (d *Debouncer) setPending(value bool, now time.Time) {
	v := value
	d.pending = &v
	d.pendingSince = now
}

// Stable returns the debounced value and whether a baseline exists.
func (d *Debouncer) Stable() (value, baselined bool) {
	return d.stable, d.baselined
}
