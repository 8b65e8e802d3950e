// Package resolution implements the single-shot window after which an
// intent counts as resolved without an explicit ticket.
package resolution

import (
	"errors"
	"sync"
	"time"

	"github.com/headline-goat/intent-goat/internal/clock"
)

// DefaultDelay is the resolution window.
const DefaultDelay = 10 * time.Minute

var ErrAlreadyArmed = errors.New("resolution timer already armed")

type State int

const (
	Unarmed State = iota
	Armed
	Fired
	Cancelled
)

func (s State) String() string {
	switch s {
	case Unarmed:
		return "unarmed"
	case Armed:
		return "armed"
	case Fired:
		return "fired"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// Timer moves Unarmed -> Armed -> Fired|Cancelled exactly once. The fire
// path and Cancel both transition out of Armed under the same lock, so only
// one of them ever wins.
type Timer struct {
	clock clock.Clock
	delay time.Duration

	mu     sync.Mutex
	state  State
	handle *clock.Timer
}

func New(c clock.Clock, delay time.Duration) *Timer {
	if c == nil {
		c = clock.Real()
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Timer{clock: c, delay: delay}
}

func (t *Timer) Delay() time.Duration { return t.delay }

func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Arm schedules onFire to run once the delay elapses, unless Cancel wins
// first.
func (t *Timer) Arm(onFire func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Unarmed {
		return ErrAlreadyArmed
	}
	t.state = Armed
	t.handle = t.clock.AfterFunc(t.delay, func() { t.fire(onFire) })
	return nil
}

func (t *Timer) fire(onFire func()) {
	t.mu.Lock()
	if t.state != Armed {
		t.mu.Unlock()
		return
	}
	t.state = Fired
	t.handle = nil
	t.mu.Unlock()

	onFire()
}

// Cancel stops an armed timer and reports whether it did. The handle is
// cleared before Cancel returns, so a caller that emits on true can never
// race the fire path.
func (t *Timer) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Armed {
		return false
	}
	t.state = Cancelled
	if t.handle != nil {
		t.handle.Stop()
		t.handle = nil
	}
	return true
}
