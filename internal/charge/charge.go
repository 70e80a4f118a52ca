package charge

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

type Kind int

const (
	Fixed Kind = iota
	Movable
)

func (k Kind) String() string {
	switch k {
	case Fixed:
		return "fixed"
	case Movable:
		return "movable"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type Polarity int

const (
	Neutral Polarity = iota
	Positive
	Negative
)

// Display colors per polarity.
const (
	PositiveColor = "#ff0000"
	NegativeColor = "#0000ff"
	NeutralColor  = "#00e000"
)

func (p Polarity) String() string {
	switch p {
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	default:
		return "neutral"
	}
}

func (p Polarity) Color() string {
	switch p {
	case Positive:
		return PositiveColor
	case Negative:
		return NegativeColor
	default:
		return NeutralColor
	}
}

type Charge struct {
	kind Kind
	q    float64
	pos  r2.Vec
	calc r2.Vec
	pos0 r2.Vec
	vel  r2.Vec
	vel0 r2.Vec
}

func NewFixed(q, x, y float64) *Charge {
	p := r2.Vec{X: x, Y: y}
	return &Charge{kind: Fixed, q: q, pos: p, calc: p, pos0: p}
}

func NewMovable(q, x, y, dx0, dy0 float64) *Charge {
	p := r2.Vec{X: x, Y: y}
	v := r2.Vec{X: dx0, Y: dy0}
	return &Charge{kind: Movable, q: q, pos: p, calc: p, pos0: p, vel: v, vel0: v}
}

func (c *Charge) Kind() Kind       { return c.kind }
func (c *Charge) IsMovable() bool  { return c.kind == Movable }
func (c *Charge) Q() float64       { return c.q }
func (c *Charge) Pos() r2.Vec      { return c.pos }
func (c *Charge) Pos0() r2.Vec     { return c.pos0 }
func (c *Charge) Velocity() r2.Vec { return c.vel }
func (c *Charge) Vel0() r2.Vec     { return c.vel0 }

// Snapshot is the position other charges see during a force pass. For a
// fixed charge it is simply its position.
func (c *Charge) Snapshot() r2.Vec {
	if c.kind == Fixed {
		return c.pos
	}
	return c.calc
}

func (c *Charge) Polarity() Polarity { return PolarityOf(c.q) }

func PolarityOf(q float64) Polarity {
	switch {
	case q > 0:
		return Positive
	case q < 0:
		return Negative
	default:
		return Neutral
	}
}

func (c *Charge) Color() string { return c.Polarity().Color() }

func (c *Charge) SetQ(q float64) { c.q = q }

// SetVel0 sets the initial velocity and the current velocity with it.
// No-op for fixed charges.
func (c *Charge) SetVel0(dx0, dy0 float64) {
	if c.kind != Movable {
		return
	}
	c.vel0 = r2.Vec{X: dx0, Y: dy0}
	c.vel = c.vel0
}

// MoveTo places the charge at (x, y). A movable charge's initial position
// and snapshot follow, so the next run starts from the new point.
func (c *Charge) MoveTo(x, y float64) {
	p := r2.Vec{X: x, Y: y}
	c.pos = p
	c.calc = p
	c.pos0 = p
}

// Advance applies one forward-Euler update with an implicit unit timestep:
// the force is added to the velocity, then the velocity to the position.
// The snapshot is left alone.
func (c *Charge) Advance(force r2.Vec) {
	if c.kind != Movable {
		return
	}
	c.vel = r2.Add(c.vel, force)
	c.pos = r2.Add(c.pos, c.vel)
}

// Sync commits the current position as the snapshot for the next tick.
func (c *Charge) Sync() {
	if c.kind == Movable {
		c.calc = c.pos
	}
}

func (c *Charge) Reset() {
	if c.kind != Movable {
		return
	}
	c.pos = c.pos0
	c.calc = c.pos0
	c.vel = c.vel0
}

func (c *Charge) ResetVelocity() {
	if c.kind == Movable {
		c.vel = c.vel0
	}
}

func (c *Charge) Clone() *Charge {
	cc := *c
	return &cc
}

func (c *Charge) String() string {
	if c.kind == Fixed {
		return fmt.Sprintf("fixed q=%g at (%g, %g)", c.q, c.pos.X, c.pos.Y)
	}
	return fmt.Sprintf("movable q=%g at (%g, %g) v=(%g, %g)", c.q, c.pos.X, c.pos.Y, c.vel.X, c.vel.Y)
}
