package mqtt

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/sweeney/burner-controller/internal/clock"
)

// Throttle limits how often telemetry is published. Time is read from the
// injected clock so tests can drive it.
type Throttle struct {
	clock   clock.Clock
	limiter *rate.Limiter
}

// NewThrottle allows one event per interval. A non-positive interval allows
// every event.
func NewThrottle(c clock.Clock, interval time.Duration) *Throttle {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Throttle{clock: c, limiter: rate.NewLimiter(limit, 1)}
}

// Allow reports whether an event may be sent now.
func (t *Throttle) Allow() bool {
	return t.limiter.AllowN(t.clock.Now(), 1)
}
