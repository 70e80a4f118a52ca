package field

import (
	"errors"
	"math"

	"github.com/san-kum/efield/internal/charge"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	DefaultConstant  = 800.0
	DefaultPrecision = 5
)

type Engine struct {
	K         float64
	Precision int32
}

func New() *Engine {
	return &Engine{K: DefaultConstant, Precision: DefaultPrecision}
}

func NewWithConstant(k float64, precision int32) *Engine {
	return &Engine{K: k, Precision: precision}
}

// Round rounds the exact binary value of v to the given number of decimal
// places, half away from zero.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloatWithExponent(v, -places).InexactFloat64()
}

// Force returns the rounded force exerted on `on` by `from`, computed from
// their snapshot positions. A positive product of charges pushes `on` away
// from `from`.
func (e *Engine) Force(on, from *charge.Charge) (r2.Vec, error) {
	fx, fy, err := e.components(on, from)
	if err != nil {
		return r2.Vec{}, err
	}
	return r2.Vec{X: fx.InexactFloat64(), Y: fy.InexactFloat64()}, nil
}

func (e *Engine) components(on, from *charge.Charge) (fx, fy decimal.Decimal, err error) {
	d := r2.Sub(on.Snapshot(), from.Snapshot())
	d2 := d.X*d.X + d.Y*d.Y
	if d2 == 0 {
		return fx, fy, ErrSingularity
	}

	f := e.K * on.Q() * from.Q() / d2
	theta := math.Atan2(d.Y, d.X)
	x, y := f*math.Cos(theta), f*math.Sin(theta)
	if math.IsInf(x, 0) || math.IsInf(y, 0) || math.IsNaN(x) || math.IsNaN(y) {
		return fx, fy, ErrNonFinite
	}
	return decimal.NewFromFloatWithExponent(x, -e.Precision), decimal.NewFromFloatWithExponent(y, -e.Precision), nil
}

// NetForce sums the force on set[i] from every other charge in set. The
// rounded components are summed exactly, so the result does not depend on
// the order of the set.
func (e *Engine) NetForce(set charge.Set, i int) (r2.Vec, error) {
	on := set[i]
	netX, netY := decimal.Zero, decimal.Zero
	for j, from := range set {
		if j == i {
			continue
		}
		fx, fy, err := e.components(on, from)
		if errors.Is(err, ErrSingularity) {
			return r2.Vec{}, &SingularityError{Index: i, Other: j, At: on.Snapshot()}
		}
		if err != nil {
			return r2.Vec{}, err
		}
		netX = netX.Add(fx)
		netY = netY.Add(fy)
	}
	return r2.Vec{X: netX.InexactFloat64(), Y: netY.InexactFloat64()}, nil
}

// Step advances every movable charge by one tick. Net forces for all
// charges are computed first, so an error leaves the set untouched.
// Snapshots are not updated; call SyncSnapshots once Step succeeds.
func (e *Engine) Step(set charge.Set) error {
	forces := make([]r2.Vec, len(set))
	for i, c := range set {
		if !c.IsMovable() {
			continue
		}
		f, err := e.NetForce(set, i)
		if err != nil {
			return err
		}
		forces[i] = f
	}

	for i, c := range set {
		if c.IsMovable() {
			c.Advance(forces[i])
		}
	}
	return nil
}

func (e *Engine) SyncSnapshots(set charge.Set) {
	for _, c := range set {
		c.Sync()
	}
}

// Reset returns every movable charge to its initial position and velocity.
func Reset(set charge.Set) { set.Reset() }

// ResetVelocities restores initial velocities, leaving positions alone.
func ResetVelocities(set charge.Set) { set.ResetVelocities() }
