// Package governor paces dispatch so the aggregate request rate across
// all transports stays under the upstream service's quota.
package governor

import "time"

// pollInterval is the sleep granularity while waiting for the floor to
// pass. The spec's own reference behavior polls rather than sleeping a
// single computed duration, so a slow monotonic clock or a process
// suspend/resume never overshoots by more than this much.
const pollInterval = 100 * time.Millisecond

// Governor wraps a monotonic clock to enforce a global floor between
// successive dispatches.
type Governor struct {
	now func() time.Time
}

// New returns a Governor using the real monotonic clock.
func New() *Governor {
	return &Governor{now: time.Now}
}

// NewWithClock returns a Governor driven by a caller-supplied clock,
// for deterministic tests.
func NewWithClock(now func() time.Time) *Governor {
	return &Governor{now: now}
}

// Wait blocks until now >= last + interval, then returns the time at
// which the caller should consider the next dispatch to begin. A zero
// last (no prior dispatch) returns immediately with no sleep.
func (g *Governor) Wait(last time.Time, interval time.Duration) time.Time {
	if last.IsZero() {
		return g.now()
	}
	deadline := last.Add(interval)
	for {
		now := g.now()
		if !now.Before(deadline) {
			return now
		}
		time.Sleep(pollInterval)
	}
}

// Interval computes the spec's 60/N + extraSeconds global floor for N
// active transports.
func Interval(activeTransports int, extraSeconds float64) time.Duration {
	if activeTransports < 1 {
		activeTransports = 1
	}
	seconds := 60.0/float64(activeTransports) + extraSeconds
	return time.Duration(seconds * float64(time.Second))
}
