// Package metrics summarises a run as it happens. Every metric observes the
// charge set after each tick; a Collection forwards ticks from the simulator
// to a group of metrics.
package metrics

import "github.com/san-kum/efield/internal/charge"

type Metric interface {
	Name() string
	Observe(set charge.Set, t float64)
	Value() float64
	Reset()
}

type Collection []Metric

// Default returns the metrics reported after a headless run.
func Default(k float64, width, height float64) Collection {
	return Collection{
		NewEnergy(k),
		NewEnergyDrift(k),
		NewDisplacement(),
		NewSpeed(),
		NewContainment(width, height),
	}
}

func (c Collection) OnTick(set charge.Set, t float64) {
	for _, m := range c {
		m.Observe(set, t)
	}
}

func (c Collection) Values() map[string]float64 {
	out := make(map[string]float64, len(c))
	for _, m := range c {
		out[m.Name()] = m.Value()
	}
	return out
}

func (c Collection) Reset() {
	for _, m := range c {
		m.Reset()
	}
}
