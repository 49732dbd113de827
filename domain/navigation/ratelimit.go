package navigation

import "time"

// RateLimiter paces outbound traffic. Wait is called right before a publish
// on channel and Done right after it; either may block.
type RateLimiter interface {
	Wait(channel string)
	Done(channel string)
}

// Clock abstracts time for the limiters
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock is the wall clock
var SystemClock Clock = systemClock{}

// DefaultPublishInterval bounds each axis to 10 publishes per second
const DefaultPublishInterval = 100 * time.Millisecond

// FixedPause sleeps Interval after every publish, whatever the channel.
// Since the axes are published one after another this also bounds the
// combined rate.
type FixedPause struct {
	Interval time.Duration
	Clock    Clock
}

// NewFixedPause returns a FixedPause on the system clock
func NewFixedPause(interval time.Duration) *FixedPause {
	return &FixedPause{Interval: interval, Clock: SystemClock}
}

func (p *FixedPause) Wait(channel string) {}

func (p *FixedPause) Done(channel string) {
	if p.Interval <= 0 {
		return
	}
	clockOrSystem(p.Clock).Sleep(p.Interval)
}

// MinInterval enforces a minimum spacing between publishes on the same
// channel. Wait only sleeps for whatever is left of Interval since the
// previous publish on that channel; other channels are not delayed.
type MinInterval struct {
	Interval time.Duration
	Clock    Clock

	last map[string]time.Time
}

// NewMinInterval returns a MinInterval on the system clock
func NewMinInterval(interval time.Duration) *MinInterval {
	return &MinInterval{Interval: interval, Clock: SystemClock}
}

func (m *MinInterval) Wait(channel string) {
	if m.Interval <= 0 {
		return
	}
	prev, ok := m.last[channel]
	if !ok {
		return
	}
	clock := clockOrSystem(m.Clock)
	if wait := m.Interval - clock.Now().Sub(prev); wait > 0 {
		clock.Sleep(wait)
	}
}

func (m *MinInterval) Done(channel string) {
	if m.last == nil {
		m.last = make(map[string]time.Time)
	}
	m.last[channel] = clockOrSystem(m.Clock).Now()
}

// NoPacing never blocks
type NoPacing struct{}

func (NoPacing) Wait(string) {}
func (NoPacing) Done(string) {}

func clockOrSystem(c Clock) Clock {
	if c == nil {
		return SystemClock
	}
	return c
}
