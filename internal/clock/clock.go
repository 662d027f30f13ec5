// Package clock abstracts time for the loading-transition timer.
// Production code injects Real(); tests inject Fake() and advance it
// deterministically.
package clock

import "time"

// Clock provides the time operations the controller needs. Code that
// schedules work must go through a Clock rather than the time package
// so tests can drive timers without sleeping.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc waits for duration d, then calls f in its own
	// goroutine (Real) or synchronously during Advance (Fake).
	// The returned Timer cancels the pending call with Stop.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a scheduled call that can be cancelled.
type Timer interface {
	// Stop prevents the timer from firing. Returns true if the call
	// stops the timer, false if it already fired or was stopped.
	Stop() bool
}
