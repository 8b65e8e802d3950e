// Package clock abstracts the time source used for the resolution window so
// tests can drive it deterministically with a Fake.
package clock

import "time"

type Clock interface {
	Now() time.Time

	// AfterFunc calls f on its own goroutine (real clock) or inside Advance
	// (fake clock) once d has elapsed.
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is a handle to a pending AfterFunc callback.
type Timer struct {
	stopFunc func() bool
}

// Stop prevents the callback from running. It reports whether the call
// stopped the timer; false means it already fired or was stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	t := time.AfterFunc(d, f)
	return &Timer{stopFunc: t.Stop}
}
