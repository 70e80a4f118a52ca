package sim

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/san-kum/efield/internal/charge"
	"github.com/san-kum/efield/internal/field"
	"gonum.org/v1/gonum/spatial/r2"
)

const interval = 25 * time.Millisecond

func newTestSim() (*Simulator, *ManualTime) {
	src := NewManualTime(time.Unix(0, 0))
	return New(field.New(), src), src
}

func tick(t *testing.T, s *Simulator, src *ManualTime, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		src.Advance(interval)
		if err := s.Tick(); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
}

func TestStateTransitions(t *testing.T) {
	s, _ := newTestSim()

	if s.State() != Idle {
		t.Fatalf("initial state %v", s.State())
	}
	if err := s.TogglePause(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("toggle while idle: %v", err)
	}

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if s.State() != RunningPaused {
		t.Errorf("after start: %v", s.State())
	}
	if err := s.Start(); !errors.Is(err, ErrRunning) {
		t.Errorf("double start: %v", err)
	}

	if err := s.TogglePause(); err != nil || s.State() != RunningActive {
		t.Errorf("toggle: %v %v", err, s.State())
	}
	if err := s.TogglePause(); err != nil || s.State() != RunningPaused {
		t.Errorf("toggle back: %v %v", err, s.State())
	}

	s.Stop()
	if s.State() != Stopped {
		t.Errorf("after stop: %v", s.State())
	}

	if err := s.StartPause(); err != nil || s.State() != RunningActive {
		t.Errorf("start/pause from stopped: %v %v", err, s.State())
	}
}

func TestMutationLockedWhileRunning(t *testing.T) {
	s, _ := newTestSim()
	c, err := s.AddMoveable(1, 10, 10, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	stop := 5.0
	ops := map[string]func() error{
		"addFixed":    func() error { _, err := s.AddFixed(1, 0, 0); return err },
		"addMoveable": func() error { _, err := s.AddMoveable(1, 0, 0, 0, 0); return err },
		"remove":      func() error { return s.Remove(c) },
		"clear":       func() error { return s.Clear() },
		"drag":        func() error { return s.Drag(c, 1, 1) },
		"setCharge":   func() error { return s.SetCharge(c, 2) },
		"setVelocity": func() error { return s.SetInitialVelocity(c, 1, 1) },
		"stopTime":    func() error { return s.SetStopTime(&stop) },
		"replace":     func() error { return s.Replace(nil, nil) },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			if err := op(); !errors.Is(err, ErrRunning) {
				t.Errorf("expected ErrRunning, got %v", err)
			}
		})
	}
	if len(s.Charges()) != 1 {
		t.Errorf("charge set changed during run: %d charges", len(s.Charges()))
	}

	s.Stop()
	if err := s.Drag(c, 20, 20); err != nil {
		t.Errorf("drag after stop: %v", err)
	}
	if err := s.Remove(c); err != nil {
		t.Errorf("remove after stop: %v", err)
	}
	if err := s.Remove(c); !errors.Is(err, ErrUnknownCharge) {
		t.Errorf("second remove: %v", err)
	}
}

func TestTickStepsOnlyWhenActive(t *testing.T) {
	s, src := newTestSim()
	if _, err := s.AddFixed(1, 0, 0); err != nil {
		t.Fatal(err)
	}
	m, _ := s.AddMoveable(-1, 40, 0, 0, 0)

	tick(t, s, src, 3)
	if m.Pos() != (r2.Vec{X: 40, Y: 0}) {
		t.Fatalf("idle tick moved charge to %v", m.Pos())
	}

	s.Start()
	tick(t, s, src, 3)
	if m.Pos() != (r2.Vec{X: 40, Y: 0}) || s.Clock().Seconds() != 0 {
		t.Fatalf("paused tick moved charge or clock: %v %v", m.Pos(), s.Clock().Seconds())
	}

	s.TogglePause()
	tick(t, s, src, 1)
	if m.Velocity().X != -0.5 {
		t.Errorf("expected dx -0.5 after one tick, got %v", m.Velocity().X)
	}
	if m.Snapshot() != m.Pos() {
		t.Error("snapshot not synced after tick")
	}
	if s.Ticks() != 1 {
		t.Errorf("expected 1 tick, got %d", s.Ticks())
	}
}

func TestAutoStopAtStopTime(t *testing.T) {
	s, src := newTestSim()
	s.AddFixed(1, 0, 0)
	m, _ := s.AddMoveable(1, 400, 0, 0, 0.1)

	stop := 10.0
	if err := s.SetStopTime(&stop); err != nil {
		t.Fatal(err)
	}
	if err := s.StartPause(); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 1000 && s.State() == RunningActive; i++ {
		src.Advance(interval)
		if err := s.Tick(); err != nil {
			t.Fatal(err)
		}
		if s.State() == RunningActive && s.Clock().Value() >= stop {
			t.Fatalf("still running at clock %v", s.Clock().Value())
		}
	}

	if s.State() != Stopped {
		t.Fatalf("run did not stop, state %v", s.State())
	}
	if s.Clock().Value() != stop {
		t.Errorf("stopped at clock %v, want %v", s.Clock().Value(), stop)
	}
	if m.Velocity() != (r2.Vec{X: 0, Y: 0.1}) {
		t.Errorf("velocity not reset: %v", m.Velocity())
	}
	if m.Pos() == m.Pos0() {
		t.Error("position should remain where the run stopped")
	}

	pos := m.Pos()
	tick(t, s, src, 5)
	if m.Pos() != pos {
		t.Error("charge moved after auto-stop")
	}
}

func TestStartCapturesStopTimeAndZeroesClock(t *testing.T) {
	s, src := newTestSim()
	s.AddMoveable(1, 0, 0, 1, 0)

	stop := 0.5
	s.SetStopTime(&stop)
	s.StartPause()
	tick(t, s, src, 4)

	s.Stop()
	s.SetStopTime(nil)
	s.StartPause()
	if s.Clock().Seconds() != 0 {
		t.Errorf("clock not zeroed on start: %v", s.Clock().Seconds())
	}
	tick(t, s, src, 40)
	if s.State() != RunningActive {
		t.Errorf("run stopped without a stop time: %v", s.State())
	}
}

func TestResetKeepsRunState(t *testing.T) {
	s, src := newTestSim()
	s.AddFixed(1, 0, 0)
	m, _ := s.AddMoveable(-1, 40, 0, 0.2, 0)
	s.StartPause()
	tick(t, s, src, 10)

	s.Reset()
	if s.State() != RunningActive {
		t.Errorf("reset changed state to %v", s.State())
	}
	if m.Pos() != (r2.Vec{X: 40, Y: 0}) || m.Velocity() != (r2.Vec{X: 0.2, Y: 0}) {
		t.Errorf("reset: pos=%v vel=%v", m.Pos(), m.Velocity())
	}
	if s.Clock().Seconds() != 0 {
		t.Errorf("reset clock: %v", s.Clock().Seconds())
	}
}

func TestSingularityHaltsRun(t *testing.T) {
	s, src := newTestSim()
	s.AddFixed(1, 10, 10)
	m, _ := s.AddMoveable(-1, 10, 10, 0, 0)
	s.StartPause()

	src.Advance(interval)
	err := s.Tick()
	if !errors.Is(err, field.ErrSingularity) {
		t.Fatalf("expected singularity, got %v", err)
	}
	var he *HaltError
	if !errors.As(err, &he) {
		t.Fatalf("expected *HaltError, got %T", err)
	}
	if s.State() != Stopped {
		t.Errorf("state after singularity: %v", s.State())
	}
	if !errors.Is(s.LastError(), field.ErrSingularity) {
		t.Errorf("LastError() = %v", s.LastError())
	}
	if m.Pos() != (r2.Vec{X: 10, Y: 10}) {
		t.Errorf("charge moved: %v", m.Pos())
	}
}

type countingObserver struct {
	ticks int
	last  float64
	n     int
}

func (o *countingObserver) OnTick(set charge.Set, t float64) {
	o.ticks++
	o.last = t
	o.n = len(set)
}

func TestObserversAndClose(t *testing.T) {
	s, src := newTestSim()
	obs := &countingObserver{}
	s.AddObserver(obs)
	s.AddMoveable(1, 0, 0, 1, 0)
	s.StartPause()
	tick(t, s, src, 4)

	if obs.ticks != 4 || obs.n != 1 {
		t.Errorf("observer saw %d ticks of %d charges", obs.ticks, obs.n)
	}
	if math.Abs(obs.last-0.1) > 1e-9 {
		t.Errorf("observer time %v, want 0.1", obs.last)
	}

	s.Close()
	s.Close()
	tick(t, s, src, 4)
	if obs.ticks != 4 {
		t.Error("tick after close reached observers")
	}
	if len(s.Charges()) != 1 {
		t.Error("close lost the charge set")
	}
}

func TestReplaceValidatesStopTime(t *testing.T) {
	s, _ := newTestSim()
	neg := -1.0
	if err := s.Replace(charge.Set{charge.NewFixed(1, 0, 0)}, &neg); !errors.Is(err, ErrNegativeStop) {
		t.Errorf("expected ErrNegativeStop, got %v", err)
	}
	if len(s.Charges()) != 0 {
		t.Error("rejected replace modified the set")
	}

	stop := 3.0
	if err := s.Replace(charge.Set{charge.NewFixed(1, 0, 0)}, &stop); err != nil {
		t.Fatal(err)
	}
	if got := s.StopTime(); got == nil || *got != 3 {
		t.Errorf("StopTime() = %v", got)
	}
}

func TestSnapshotDetached(t *testing.T) {
	s, src := newTestSim()
	s.AddFixed(1, 200, 200)
	c, _ := s.AddMoveable(-1, 240, 200, 0, 0)
	s.StartPause()

	snap := s.Snapshot()
	snap[1].MoveTo(0, 0)
	snap[1].SetQ(5)
	tick(t, s, src, 1)

	if got := c.Pos().X; got != 239.5 {
		t.Errorf("live charge at x=%v, want 239.5", got)
	}
	if c.Q() != -1 {
		t.Errorf("snapshot edit changed the live charge to q=%v", c.Q())
	}
	if snap[1].Pos() != (r2.Vec{}) {
		t.Error("tick moved a snapshot charge")
	}
}
