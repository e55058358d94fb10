// Package clock abstracts the timer operations the dashboard depends on so
// debounce windows can be driven deterministically in tests.
package clock

import "time"

// Clock is the subset of the time package used by timer-driven code.
// Production code injects Real(); tests inject Fake().
type Clock interface {
	Now() time.Time

	// AfterFunc waits for d, then calls f. The returned Timer cancels
	// the pending call. If d <= 0 f runs immediately (in a new
	// goroutine for Real, synchronously for Fake).
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is a pending AfterFunc call.
type Timer struct {
	stopFunc func() bool
}

// Stop prevents the Timer from firing. It reports false if the timer
// already fired or was stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }
