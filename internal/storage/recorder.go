package storage

import (
	"github.com/san-kum/efield/internal/charge"
	"gonum.org/v1/gonum/spatial/r2"
)

// Recorder samples the position of every charge on each tick. Every sets
// the sampling stride in ticks.
type Recorder struct {
	Every     int
	Times     []float64
	Positions [][]r2.Vec
	seen      int
}

func NewRecorder(every int) *Recorder {
	if every < 1 {
		every = 1
	}
	return &Recorder{Every: every}
}

// Begin records the starting arrangement at t=0.
func (r *Recorder) Begin(set charge.Set) {
	r.sample(set, 0)
}

func (r *Recorder) OnTick(set charge.Set, t float64) {
	r.seen++
	if r.seen%r.Every != 0 {
		return
	}
	r.sample(set, t)
}

func (r *Recorder) NumCharges() int {
	if len(r.Positions) == 0 {
		return 0
	}
	return len(r.Positions[0])
}

func (r *Recorder) sample(set charge.Set, t float64) {
	row := make([]r2.Vec, len(set))
	for i, c := range set {
		row[i] = c.Pos()
	}
	r.Times = append(r.Times, t)
	r.Positions = append(r.Positions, row)
}
