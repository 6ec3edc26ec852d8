// Package clock abstracts wall-clock reads and delayed task scheduling so
// that timer-driven behavior (pause auto-expiry, periodic persistence) can be
// tested without real waits. The Timer handle supports cancel/replace, which
// is what lets the admission gate re-arm a pause instead of stacking timers.
package clock

import "time"

// Clock provides the current time and delayed function scheduling.
type Clock interface {
	Now() time.Time
	// AfterFunc runs f after d elapses and returns a cancellable handle.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a handle to a scheduled function. Stop reports whether the call
// was prevented from running.
type Timer interface {
	Stop() bool
}

// System is the real Clock backed by the time package.
type System struct{}

// Now returns the current wall-clock time.
func (System) Now() time.Time { return time.Now() }

// AfterFunc schedules f on a real timer.
func (System) AfterFunc(d time.Duration, f func()) Timer {
	return systemTimer{time.AfterFunc(d, f)}
}

type systemTimer struct{ t *time.Timer }

func (st systemTimer) Stop() bool { return st.t.Stop() }
