package field_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/efield/internal/charge"
	"github.com/san-kum/efield/internal/field"
	"gonum.org/v1/gonum/spatial/r2"
)

var _ = Describe("Engine", func() {
	var eng *field.Engine

	BeforeEach(func() {
		eng = field.New()
	})

	Describe("Force", func() {
		It("attracts opposite charges with K*q1*q2/d²", func() {
			fixed := charge.NewFixed(1, 0, 0)
			mov := charge.NewMovable(-1, 40, 0, 0, 0)

			f, err := eng.Force(mov, fixed)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.X).To(Equal(-0.5))
			Expect(f.Y).To(BeNumerically("~", 0, 1e-12))
			Expect(math.Atan2(f.Y, f.X) * 180 / math.Pi).To(BeNumerically("~", 180, 1e-9))
		})

		It("repels like charges along the connecting line", func() {
			a := charge.NewMovable(2, 30, 40, 0, 0)
			b := charge.NewFixed(3, 0, 0)

			f, err := eng.Force(a, b)
			Expect(err).NotTo(HaveOccurred())

			want := 800.0 * 2 * 3 / (50 * 50)
			Expect(r2.Norm(f)).To(BeNumerically("~", want, 1e-4))
			Expect(f.X).To(BeNumerically(">", 0))
			Expect(f.Y).To(BeNumerically(">", 0))
			Expect(f.Y / f.X).To(BeNumerically("~", 40.0/30.0, 1e-3))
		})

		It("rounds each component to the configured precision", func() {
			a := charge.NewMovable(1, 7, 3, 0, 0)
			b := charge.NewFixed(1, 0, 0)

			f, err := eng.Force(a, b)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.X).To(Equal(field.Round(f.X, 5)))
			Expect(f.Y).To(Equal(field.Round(f.Y, 5)))
		})

		It("reports coincident charges", func() {
			_, err := eng.Force(charge.NewMovable(1, 5, 5, 0, 0), charge.NewFixed(1, 5, 5))
			Expect(err).To(MatchError(field.ErrSingularity))
		})
	})

	Describe("Step", func() {
		It("leaves a lone movable charge at rest", func() {
			c := charge.NewMovable(1, 10, 10, 0, 0)
			Expect(eng.Step(charge.Set{c})).To(Succeed())
			Expect(c.Pos()).To(Equal(r2.Vec{X: 10, Y: 10}))
			Expect(c.Velocity()).To(Equal(r2.Vec{}))
		})

		It("does not move a neutral charge", func() {
			c := charge.NewMovable(0, 10, 10, 0, 0)
			set := charge.Set{charge.NewFixed(5, 0, 0), c}
			Expect(eng.Step(set)).To(Succeed())
			Expect(c.Pos()).To(Equal(r2.Vec{X: 10, Y: 10}))
			Expect(c.Velocity()).To(Equal(r2.Vec{}))
		})

		It("applies forward Euler with a unit timestep", func() {
			fixed := charge.NewFixed(1, 0, 0)
			mov := charge.NewMovable(-1, 40, 0, 0, 0)

			Expect(eng.Step(charge.Set{fixed, mov})).To(Succeed())
			Expect(mov.Velocity().X).To(Equal(-0.5))
			Expect(mov.Velocity().Y).To(BeNumerically("~", 0, 1e-12))
			Expect(mov.Pos().X).To(Equal(39.5))
			Expect(mov.Snapshot()).To(Equal(r2.Vec{X: 40, Y: 0}))
			Expect(fixed.Pos()).To(Equal(r2.Vec{}))

			eng.SyncSnapshots(charge.Set{fixed, mov})
			Expect(mov.Snapshot()).To(Equal(mov.Pos()))
		})

		It("is independent of traversal order", func() {
			base := charge.Set{
				charge.NewFixed(2, 0, 0),
				charge.NewMovable(-1, 40, 10, 0.2, 0),
				charge.NewMovable(1.5, -30, 25, 0, -0.1),
				charge.NewMovable(-0.5, 15, -35, 0, 0),
				charge.NewFixed(-1, 60, 60),
			}
			forward := base.Clone()
			reversed := base.Clone()
			permuted := make(charge.Set, len(reversed))
			for i := range reversed {
				permuted[len(reversed)-1-i] = reversed[i]
			}

			for tick := 0; tick < 20; tick++ {
				Expect(eng.Step(forward)).To(Succeed())
				eng.SyncSnapshots(forward)
				Expect(eng.Step(permuted)).To(Succeed())
				eng.SyncSnapshots(permuted)
			}

			for i := range forward {
				Expect(reversed[i].Pos()).To(Equal(forward[i].Pos()))
				Expect(reversed[i].Velocity()).To(Equal(forward[i].Velocity()))
			}
		})

		It("aborts without moving anything on coincident charges", func() {
			a := charge.NewMovable(1, 10, 0, 1, 1)
			b := charge.NewMovable(-1, 10, 0, 0, 0)
			c := charge.NewMovable(1, 50, 50, 0, 0)
			set := charge.Set{c, a, b}

			err := eng.Step(set)
			Expect(err).To(MatchError(field.ErrSingularity))

			var se *field.SingularityError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.At).To(Equal(r2.Vec{X: 10, Y: 0}))

			Expect(c.Pos()).To(Equal(r2.Vec{X: 50, Y: 50}))
			Expect(a.Velocity()).To(Equal(r2.Vec{X: 1, Y: 1}))
		})
	})

	Describe("Reset", func() {
		It("restores exact initial values after many steps", func() {
			set := charge.Set{
				charge.NewFixed(1, 0, 0),
				charge.NewMovable(-1, 40, 0, 0, 0.3),
				charge.NewMovable(1, -40, 20, 0.1, 0),
			}
			for i := 0; i < 10; i++ {
				Expect(eng.Step(set)).To(Succeed())
				eng.SyncSnapshots(set)
			}

			field.Reset(set)
			Expect(set[1].Pos()).To(Equal(r2.Vec{X: 40, Y: 0}))
			Expect(set[1].Velocity()).To(Equal(r2.Vec{X: 0, Y: 0.3}))
			Expect(set[2].Pos()).To(Equal(r2.Vec{X: -40, Y: 20}))
			Expect(set[2].Snapshot()).To(Equal(r2.Vec{X: -40, Y: 20}))
			Expect(set[2].Velocity()).To(Equal(r2.Vec{X: 0.1, Y: 0}))
		})

		It("restores only velocities", func() {
			set := charge.Set{charge.NewFixed(1, 0, 0), charge.NewMovable(-1, 40, 0, 0, 0)}
			Expect(eng.Step(set)).To(Succeed())
			eng.SyncSnapshots(set)
			pos := set[1].Pos()

			field.ResetVelocities(set)
			Expect(set[1].Pos()).To(Equal(pos))
			Expect(set[1].Velocity()).To(Equal(r2.Vec{}))
		})
	})
})

var _ = DescribeTable("Round",
	func(in float64, places int32, want float64) {
		Expect(field.Round(in, places)).To(Equal(want))
	},
	Entry("truncates long tails", 0.123456789, int32(5), 0.12346),
	Entry("keeps short values", 0.5, int32(5), 0.5),
	Entry("negative", -1.000004, int32(5), -1.0),
	Entry("integral", 12.0, int32(5), 12.0),
	Entry("rounds the binary value", 0.123455, int32(5), 0.12345),
)
