package navigation

import (
	"testing"
	"time"
)

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func TestFixedPause(t *testing.T) {
	clock := &fakeClock{}
	p := &FixedPause{Interval: 100 * time.Millisecond, Clock: clock}

	p.Wait("height_control")
	if len(clock.sleeps) != 0 {
		t.Fatalf("Wait should not block, slept %v", clock.sleeps)
	}
	p.Done("height_control")
	p.Done("rotation_control")

	if len(clock.sleeps) != 2 || clock.sleeps[0] != 100*time.Millisecond {
		t.Errorf("Expected two 100ms pauses, got %v", clock.sleeps)
	}
}

func TestFixedPauseZeroInterval(t *testing.T) {
	clock := &fakeClock{}
	p := &FixedPause{Clock: clock}
	p.Done("height_control")
	if len(clock.sleeps) != 0 {
		t.Errorf("Expected no pause with zero interval, got %v", clock.sleeps)
	}
}

func TestMinInterval(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	m := &MinInterval{Interval: 100 * time.Millisecond, Clock: clock}

	// first publish never waits
	m.Wait("height_control")
	m.Done("height_control")
	if len(clock.sleeps) != 0 {
		t.Fatalf("First publish should not wait, slept %v", clock.sleeps)
	}

	// other channels are independent
	m.Wait("rotation_control")
	m.Done("rotation_control")
	if len(clock.sleeps) != 0 {
		t.Fatalf("Other channel should not wait, slept %v", clock.sleeps)
	}

	clock.advance(30 * time.Millisecond)
	m.Wait("height_control")
	m.Done("height_control")
	if len(clock.sleeps) != 1 || clock.sleeps[0] != 70*time.Millisecond {
		t.Fatalf("Expected 70ms wait, got %v", clock.sleeps)
	}

	clock.advance(250 * time.Millisecond)
	m.Wait("height_control")
	if len(clock.sleeps) != 1 {
		t.Errorf("Expected no wait after interval elapsed, got %v", clock.sleeps)
	}
}
