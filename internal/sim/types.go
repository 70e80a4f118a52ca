package sim

import (
	"errors"
	"fmt"

	"github.com/san-kum/efield/internal/charge"
)

type RunState int

const (
	Idle RunState = iota
	RunningPaused
	RunningActive
	Stopped
)

func (s RunState) String() string {
	switch s {
	case Idle:
		return "idle"
	case RunningPaused:
		return "paused"
	case RunningActive:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Running reports whether structural mutation is currently locked.
func (s RunState) Running() bool {
	return s == RunningPaused || s == RunningActive
}

// Observer is notified after every tick that advanced the charges.
type Observer interface {
	OnTick(set charge.Set, t float64)
}

var (
	ErrRunning       = errors.New("sim: not permitted while a run is in progress")
	ErrNotRunning    = errors.New("sim: no run in progress")
	ErrUnknownCharge = errors.New("sim: charge is not part of the set")
	ErrNegativeStop  = errors.New("sim: stop time must not be negative")
)

// HaltError records a run halted by the engine.
type HaltError struct {
	Tick    int
	Time    float64
	Wrapped error
}

func (e *HaltError) Error() string {
	return fmt.Sprintf("tick %d (t=%.1f): run halted: %v", e.Tick, e.Time, e.Wrapped)
}

func (e *HaltError) Unwrap() error {
	return e.Wrapped
}
