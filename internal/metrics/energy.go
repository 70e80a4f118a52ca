package metrics

import (
	"math"

	"github.com/san-kum/efield/internal/charge"
	"gonum.org/v1/gonum/spatial/r2"
)

// Kinetic returns the kinetic energy of the movable charges, taking every
// charge to have unit mass.
func Kinetic(set charge.Set) float64 {
	ke := 0.0
	for _, c := range set {
		if !c.IsMovable() {
			continue
		}
		v := c.Velocity()
		ke += 0.5 * r2.Dot(v, v)
	}
	return ke
}

// Potential returns the electrostatic potential energy of every pair,
// k*qi*qj/d. Coincident pairs are skipped.
func Potential(set charge.Set, k float64) float64 {
	pe := 0.0
	for i := 0; i < len(set); i++ {
		for j := i + 1; j < len(set); j++ {
			d := r2.Norm(r2.Sub(set[i].Pos(), set[j].Pos()))
			if d == 0 {
				continue
			}
			pe += k * set[i].Q() * set[j].Q() / d
		}
	}
	return pe
}

// Energy tracks the total energy at the latest tick.
type Energy struct {
	name    string
	k       float64
	total   float64
	samples int
}

func NewEnergy(k float64) *Energy {
	return &Energy{name: "energy", k: k}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(set charge.Set, t float64) {
	e.total = Kinetic(set) + Potential(set, e.k)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total
}

func (e *Energy) Reset() {
	e.total = 0
	e.samples = 0
}

// EnergyDrift is the largest relative change in total energy seen since
// the first observation. The unit-step integrator does not conserve
// energy, so this grows quickly for close approaches.
type EnergyDrift struct {
	name          string
	k             float64
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(k float64) *EnergyDrift {
	return &EnergyDrift{name: "energy_drift", k: k}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(set charge.Set, t float64) {
	energy := Kinetic(set) + Potential(set, e.k)

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
