package sim

import (
	"github.com/san-kum/efield/internal/charge"
	"github.com/san-kum/efield/internal/field"
)

// Simulator owns a charge set, the run clock and the run state. It is
// driven by a single control thread: Tick and the mutating operations must
// never be called concurrently.
type Simulator struct {
	engine    *field.Engine
	clock     *Clock
	charges   charge.Set
	state     RunState
	stopTime  *float64
	runStop   *float64
	observers []Observer
	lastErr   error
	ticks     int
	closed    bool
}

func New(engine *field.Engine, src TimeSource) *Simulator {
	if engine == nil {
		engine = field.New()
	}
	return &Simulator{
		engine:    engine,
		clock:     NewClock(src),
		charges:   make(charge.Set, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Engine() *field.Engine { return s.engine }
func (s *Simulator) State() RunState       { return s.state }
func (s *Simulator) Clock() *Clock         { return s.clock }
func (s *Simulator) Ticks() int            { return s.ticks }
func (s *Simulator) LastError() error      { return s.lastErr }

// Charges returns the live charges in order, for identifying a charge in
// the editing operations. The slice is a copy; the charges are not. Callers
// must not call charge mutators on them: the Simulator's ErrRunning lock
// only covers edits made through its own methods. Use Snapshot to read a
// set that may be kept or modified.
func (s *Simulator) Charges() charge.Set {
	return append(charge.Set(nil), s.charges...)
}

// Snapshot returns a deep copy of the charges, detached from the run.
func (s *Simulator) Snapshot() charge.Set {
	return s.charges.Clone()
}

// StopTime returns the configured stop time, or nil if none is set.
func (s *Simulator) StopTime() *float64 { return copyTime(s.stopTime) }

// SetStopTime configures when the next run auto-stops. nil clears it.
func (s *Simulator) SetStopTime(t *float64) error {
	if s.state.Running() {
		return ErrRunning
	}
	if t != nil && *t < 0 {
		return ErrNegativeStop
	}
	s.stopTime = copyTime(t)
	return nil
}

func (s *Simulator) AddFixed(q, x, y float64) (*charge.Charge, error) {
	if s.state.Running() {
		return nil, ErrRunning
	}
	c := charge.NewFixed(q, x, y)
	s.charges = append(s.charges, c)
	return c, nil
}

func (s *Simulator) AddMoveable(q, x, y, dx0, dy0 float64) (*charge.Charge, error) {
	if s.state.Running() {
		return nil, ErrRunning
	}
	c := charge.NewMovable(q, x, y, dx0, dy0)
	s.charges = append(s.charges, c)
	return c, nil
}

func (s *Simulator) Remove(c *charge.Charge) error {
	if s.state.Running() {
		return ErrRunning
	}
	out, ok := s.charges.Without(c)
	if !ok {
		return ErrUnknownCharge
	}
	s.charges = out
	return nil
}

func (s *Simulator) Clear() error {
	if s.state.Running() {
		return ErrRunning
	}
	s.charges = make(charge.Set, 0)
	return nil
}

// Drag moves a charge while no run is in progress. A movable charge's
// initial position follows, so the next run starts from the new point.
func (s *Simulator) Drag(c *charge.Charge, x, y float64) error {
	if err := s.editable(c); err != nil {
		return err
	}
	c.MoveTo(x, y)
	return nil
}

func (s *Simulator) SetCharge(c *charge.Charge, q float64) error {
	if err := s.editable(c); err != nil {
		return err
	}
	c.SetQ(q)
	return nil
}

func (s *Simulator) SetInitialVelocity(c *charge.Charge, dx0, dy0 float64) error {
	if err := s.editable(c); err != nil {
		return err
	}
	c.SetVel0(dx0, dy0)
	return nil
}

// Replace swaps in a whole arrangement, as when a file is opened.
func (s *Simulator) Replace(set charge.Set, stop *float64) error {
	if s.state.Running() {
		return ErrRunning
	}
	if stop != nil && *stop < 0 {
		return ErrNegativeStop
	}
	s.charges = append(make(charge.Set, 0, len(set)), set...)
	s.stopTime = copyTime(stop)
	return nil
}

func (s *Simulator) editable(c *charge.Charge) error {
	if s.state.Running() {
		return ErrRunning
	}
	if s.charges.Index(c) < 0 {
		return ErrUnknownCharge
	}
	return nil
}

// Start begins a run in the paused state, capturing the stop time and
// zeroing the clock.
func (s *Simulator) Start() error {
	if s.state.Running() {
		return ErrRunning
	}
	s.state = RunningPaused
	s.runStop = copyTime(s.stopTime)
	s.lastErr = nil
	s.ticks = 0
	s.clock.Stop()
	s.clock.Reset()
	return nil
}

// TogglePause switches between paused and active. The clock only
// accumulates while active.
func (s *Simulator) TogglePause() error {
	switch s.state {
	case RunningPaused:
		s.state = RunningActive
		s.clock.Start()
	case RunningActive:
		s.state = RunningPaused
		s.clock.Tick()
		s.clock.Stop()
	default:
		return ErrNotRunning
	}
	return nil
}

// StartPause is the single play/pause control: it starts a run if none is
// in progress, then toggles.
func (s *Simulator) StartPause() error {
	if !s.state.Running() {
		if err := s.Start(); err != nil {
			return err
		}
	}
	return s.TogglePause()
}

// Stop ends the run. Velocities return to their initial values while
// positions stay where the run left them.
func (s *Simulator) Stop() {
	if !s.state.Running() {
		return
	}
	s.state = Stopped
	s.clock.Stop()
	s.charges.ResetVelocities()
}

// Reset restores every movable charge to its initial position and velocity
// and zeroes the clock. The run state is unchanged.
func (s *Simulator) Reset() {
	s.clock.Reset()
	s.charges.Reset()
}

// Tick is the sole time-advancing entry point. It advances the clock,
// stops the run once the stop time is reached, and otherwise steps the
// charges if the run is active. A force singularity halts the run and is
// returned as a *HaltError.
func (s *Simulator) Tick() error {
	if s.closed {
		return nil
	}
	s.clock.Tick()

	if s.state.Running() && s.runStop != nil && s.clock.Value() >= *s.runStop {
		s.Stop()
		return nil
	}
	if s.state != RunningActive {
		return nil
	}

	if err := s.engine.Step(s.charges); err != nil {
		s.lastErr = &HaltError{Tick: s.ticks, Time: s.clock.Value(), Wrapped: err}
		s.Stop()
		return s.lastErr
	}
	s.engine.SyncSnapshots(s.charges)
	s.ticks++

	t := s.clock.Seconds()
	for _, o := range s.observers {
		o.OnTick(s.charges, t)
	}
	return nil
}

// Close detaches the simulator from its scheduler. Further ticks are
// ignored; the charge set stays readable. Safe to call more than once.
func (s *Simulator) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.clock.Stop()
}

func copyTime(t *float64) *float64 {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
