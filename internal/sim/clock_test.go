package sim

import (
	"testing"
	"time"
)

func TestClockAccumulatesOnlyWhileActive(t *testing.T) {
	src := NewManualTime(time.Unix(0, 0))
	c := NewClock(src)

	src.Advance(time.Second)
	c.Tick()
	if c.Seconds() != 0 {
		t.Fatalf("inactive clock advanced to %v", c.Seconds())
	}

	c.Start()
	src.Advance(1500 * time.Millisecond)
	c.Tick()
	c.Stop()
	src.Advance(10 * time.Second)
	c.Tick()

	if c.Seconds() != 1.5 {
		t.Errorf("expected 1.5s, got %v", c.Seconds())
	}
}

func TestClockValueRoundsToTenths(t *testing.T) {
	src := NewManualTime(time.Unix(0, 0))
	c := NewClock(src)
	c.Start()
	src.Advance(2340 * time.Millisecond)
	c.Tick()

	if got := c.Value(); got != 2.3 {
		t.Errorf("Value() = %v, want 2.3", got)
	}
}

func TestClockReset(t *testing.T) {
	src := NewManualTime(time.Unix(0, 0))
	c := NewClock(src)
	c.Start()
	src.Advance(3 * time.Second)
	c.Tick()

	c.Reset()
	if c.Seconds() != 0 {
		t.Fatalf("reset clock reads %v", c.Seconds())
	}

	src.Advance(time.Second)
	c.Tick()
	if c.Seconds() != 1 {
		t.Errorf("expected 1s after reset, got %v", c.Seconds())
	}
}
