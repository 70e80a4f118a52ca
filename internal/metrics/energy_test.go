package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/efield/internal/charge"
	"github.com/san-kum/efield/internal/field"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestPotential(t *testing.T) {
	set := charge.Set{charge.NewFixed(1, 0, 0), charge.NewMovable(-1, 40, 0, 0, 0)}

	if got := Potential(set, 800); got != -20 {
		t.Errorf("expected potential -20, got %f", got)
	}
	if got := Kinetic(set); got != 0 {
		t.Errorf("expected no kinetic energy at rest, got %f", got)
	}
}

func TestEnergy(t *testing.T) {
	m := NewEnergy(800)
	set := charge.Set{charge.NewFixed(1, 0, 0), charge.NewMovable(1, 40, 0, 3, 4)}

	m.Observe(set, 0)
	expected := 12.5 + 20
	if math.Abs(m.Value()-expected) > 1e-9 {
		t.Errorf("expected energy %f, got %f", expected, m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestEnergyDrift(t *testing.T) {
	m := NewEnergyDrift(800)
	set := charge.Set{charge.NewFixed(1, 0, 0), charge.NewMovable(-1, 40, 0, 0, 0)}
	eng := field.New()

	m.Observe(set, 0)
	if m.Value() != 0 {
		t.Errorf("expected no drift on first sample, got %f", m.Value())
	}

	for i := 0; i < 5; i++ {
		if err := eng.Step(set); err != nil {
			t.Fatal(err)
		}
		eng.SyncSnapshots(set)
		m.Observe(set, float64(i))
	}
	if m.Value() <= 0 {
		t.Error("expected unit-step integration to drift")
	}
}

func TestMotionMetrics(t *testing.T) {
	set := charge.Set{charge.NewFixed(1, 0, 0), charge.NewMovable(0, 10, 10, 3, 4)}
	d, s, c := NewDisplacement(), NewSpeed(), NewContainment(100, 100)
	coll := Collection{d, s, c}

	set[1].Advance(r2.Vec{})
	coll.OnTick(set, 0.025)
	set[1].Advance(r2.Vec{X: 100})
	coll.OnTick(set, 0.05)

	vals := coll.Values()
	if math.Abs(vals["max_displacement"]-math.Hypot(106, 8)) > 1e-9 {
		t.Errorf("displacement = %f", vals["max_displacement"])
	}
	if math.Abs(vals["mean_speed"]-(5+math.Hypot(103, 4))/2) > 1e-9 {
		t.Errorf("speed = %f", vals["mean_speed"])
	}
	if vals["containment"] != 0.5 {
		t.Errorf("containment = %f", vals["containment"])
	}

	coll.Reset()
	if d.Value() != 0 || s.Value() != 0 || c.Value() != 1 {
		t.Error("expected metrics cleared after reset")
	}
}
