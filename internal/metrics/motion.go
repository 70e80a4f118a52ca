package metrics

import (
	"math"

	"github.com/san-kum/efield/internal/charge"
	"gonum.org/v1/gonum/spatial/r2"
)

// Displacement is the largest distance any movable charge has travelled
// from its initial position.
type Displacement struct {
	name string
	max  float64
}

func NewDisplacement() *Displacement {
	return &Displacement{name: "max_displacement"}
}

func (d *Displacement) Name() string { return d.name }

func (d *Displacement) Observe(set charge.Set, t float64) {
	for _, c := range set.Movables() {
		d.max = math.Max(d.max, r2.Norm(r2.Sub(c.Pos(), c.Pos0())))
	}
}

func (d *Displacement) Value() float64 { return d.max }

func (d *Displacement) Reset() { d.max = 0 }

// Speed is the mean speed of the movable charges, averaged over ticks.
type Speed struct {
	name    string
	sum     float64
	samples int
}

func NewSpeed() *Speed {
	return &Speed{name: "mean_speed"}
}

func (s *Speed) Name() string { return s.name }

func (s *Speed) Observe(set charge.Set, t float64) {
	movables := set.Movables()
	if len(movables) == 0 {
		return
	}
	total := 0.0
	for _, c := range movables {
		total += r2.Norm(c.Velocity())
	}
	s.sum += total / float64(len(movables))
	s.samples++
}

func (s *Speed) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return s.sum / float64(s.samples)
}

func (s *Speed) Reset() {
	s.sum = 0
	s.samples = 0
}

// Containment is the fraction of ticks on which every charge stayed inside
// the width x height canvas anchored at the origin.
type Containment struct {
	name          string
	width, height float64
	violations    int
	samples       int
}

func NewContainment(width, height float64) *Containment {
	return &Containment{name: "containment", width: width, height: height}
}

func (c *Containment) Name() string { return c.name }

func (c *Containment) Observe(set charge.Set, t float64) {
	c.samples++
	for _, ch := range set {
		p := ch.Pos()
		if p.X < 0 || p.Y < 0 || p.X > c.width || p.Y > c.height {
			c.violations++
			break
		}
	}
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Containment) Reset() {
	c.violations = 0
	c.samples = 0
}
