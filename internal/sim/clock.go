package sim

import (
	"math"
	"time"
)

// TimeSource provides wall-clock readings to the simulation clock.
type TimeSource interface {
	Now() time.Time
}

// SystemTime reads the monotonic system clock.
type SystemTime struct{}

func (SystemTime) Now() time.Time { return time.Now() }

// ManualTime is a controllable time source for tests and headless runs.
type ManualTime struct {
	now time.Time
}

func NewManualTime(start time.Time) *ManualTime {
	return &ManualTime{now: start}
}

func (m *ManualTime) Now() time.Time          { return m.now }
func (m *ManualTime) Set(t time.Time)         { m.now = t }
func (m *ManualTime) Advance(d time.Duration) { m.now = m.now.Add(d) }

// Clock accumulates elapsed wall time while active.
type Clock struct {
	src    TimeSource
	value  float64
	last   time.Time
	active bool
}

func NewClock(src TimeSource) *Clock {
	if src == nil {
		src = SystemTime{}
	}
	return &Clock{src: src}
}

func (c *Clock) Start() {
	c.active = true
	c.last = c.src.Now()
}

func (c *Clock) Stop() {
	c.active = false
}

func (c *Clock) Reset() {
	c.value = 0
	c.last = c.src.Now()
}

// Tick adds the wall time elapsed since the previous reading.
func (c *Clock) Tick() {
	if !c.active {
		return
	}
	now := c.src.Now()
	c.value += now.Sub(c.last).Seconds()
	c.last = now
}

func (c *Clock) Active() bool { return c.active }

// Seconds returns the raw accumulated time.
func (c *Clock) Seconds() float64 { return c.value }

// Value returns the accumulated time at display precision (0.1 s).
func (c *Clock) Value() float64 {
	return math.Round(c.value*10) / 10
}
