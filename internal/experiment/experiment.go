// Package experiment runs a charge arrangement headlessly: the simulator is
// driven on a manual clock, one fixed interval per tick, until the stop time
// or a tick limit ends the run.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/san-kum/efield/internal/charge"
	"github.com/san-kum/efield/internal/field"
	"github.com/san-kum/efield/internal/metrics"
	"github.com/san-kum/efield/internal/sim"
	"github.com/san-kum/efield/internal/storage"
)

var ErrUnbounded = errors.New("experiment: run needs a tick limit or a stop time")

type Config struct {
	Source      string
	TickMs      int
	MaxTicks    int
	StopTime    *float64
	RecordEvery int
}

type Result struct {
	Ticks    int
	Duration float64
	Charges  charge.Set
	Metrics  map[string]float64
	Halted   error
	Recorder *storage.Recorder
}

// Reason describes how the run ended.
func (r *Result) Reason() string {
	if r.Halted != nil {
		return "halted"
	}
	return "stopped"
}

type Experiment struct {
	cfg       Config
	simulator *sim.Simulator
	clock     *sim.ManualTime
	metrics   metrics.Collection
	recorder  *storage.Recorder
}

// New prepares a run of set. The set is cloned; the caller's charges are
// left untouched.
func New(cfg Config, engine *field.Engine, set charge.Set) (*Experiment, error) {
	if cfg.TickMs <= 0 {
		return nil, fmt.Errorf("experiment: tick interval must be positive, got %dms", cfg.TickMs)
	}
	if cfg.MaxTicks <= 0 && cfg.StopTime == nil {
		return nil, ErrUnbounded
	}

	clock := sim.NewManualTime(time.Unix(0, 0))
	s := sim.New(engine, clock)
	if err := s.Replace(set.Clone(), cfg.StopTime); err != nil {
		return nil, err
	}

	rec := storage.NewRecorder(cfg.RecordEvery)
	s.AddObserver(rec)

	return &Experiment{
		cfg:       cfg,
		simulator: s,
		clock:     clock,
		recorder:  rec,
	}, nil
}

// Setup attaches the metrics reported with the result.
func (e *Experiment) Setup(ms metrics.Collection) {
	e.metrics = ms
	e.simulator.AddObserver(ms)
}

// Run ticks the simulator until the run ends or ctx is cancelled. A halted
// run is reported in Result.Halted, not as an error.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	s := e.simulator
	interval := time.Duration(e.cfg.TickMs) * time.Millisecond

	if err := s.StartPause(); err != nil {
		return nil, err
	}
	e.recorder.Begin(s.Snapshot())
	defer s.Close()

	res := &Result{Recorder: e.recorder}
	for s.State().Running() {
		if err := ctx.Err(); err != nil {
			s.Stop()
			return nil, err
		}
		if e.cfg.MaxTicks > 0 && s.Ticks() >= e.cfg.MaxTicks {
			s.Stop()
			break
		}

		e.clock.Advance(interval)
		if err := s.Tick(); err != nil {
			res.Halted = err
		}
	}

	res.Ticks = s.Ticks()
	res.Duration = s.Clock().Seconds()
	res.Charges = s.Snapshot()
	if e.metrics != nil {
		res.Metrics = e.metrics.Values()
	}
	return res, nil
}

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}
