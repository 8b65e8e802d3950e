package clock

import (
	"testing"
	"time"
)

func TestFake_AdvanceFiresDueCallbacks(t *testing.T) {
	c := NewFake(time.Unix(0, 0))

	var order []int
	c.AfterFunc(2*time.Minute, func() { order = append(order, 2) })
	c.AfterFunc(time.Minute, func() { order = append(order, 1) })
	c.AfterFunc(time.Hour, func() { order = append(order, 3) })

	c.Advance(5 * time.Minute)

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("expected callbacks [1 2], got %v", order)
	}
	if c.Pending() != 1 {
		t.Errorf("expected 1 pending callback, got %d", c.Pending())
	}
}

func TestFake_StopPreventsCallback(t *testing.T) {
	c := NewFake(time.Unix(0, 0))

	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Fatal("expected first Stop to report true")
	}
	if timer.Stop() {
		t.Error("expected second Stop to report false")
	}

	c.Advance(time.Minute)
	if fired {
		t.Error("stopped callback fired")
	}
}

func TestFake_StopAfterFireReportsFalse(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	timer := c.AfterFunc(time.Second, func() {})

	c.Advance(time.Second)

	if timer.Stop() {
		t.Error("expected Stop after fire to report false")
	}
}

func TestFake_Now(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFake(start)
	c.Advance(90 * time.Second)

	if got := c.Now(); !got.Equal(start.Add(90 * time.Second)) {
		t.Errorf("unexpected Now: %v", got)
	}
}
