// Package velocity converts initial velocities between the Cartesian
// components the engine stores and the magnitude/angle form users edit.
//
// Screen coordinates grow downward while users expect up to be positive,
// so the User functions negate dy at the boundary in both directions.
package velocity

import (
	"math"

	"github.com/san-kum/efield/internal/field"
)

const Precision = 5

// ToPolar returns the magnitude and angle in degrees of (dx, dy).
func ToPolar(dx, dy float64) (mag, angle float64) {
	mag = field.Round(math.Hypot(dx, dy), Precision)
	angle = field.Round(math.Atan2(dy, dx)*180/math.Pi, Precision)
	return mag, angle
}

// FromPolar returns the components of a velocity given in degrees.
func FromPolar(mag, angle float64) (dx, dy float64) {
	rad := angle * math.Pi / 180
	dx = field.Round(mag*math.Cos(rad), Precision)
	dy = field.Round(mag*math.Sin(rad), Precision)
	return dx, dy
}

// User is a velocity as shown to the user, with up positive.
type User struct {
	DX, DY     float64
	Mag, Angle float64
}

// ToUser converts an internal (screen-space) velocity for display.
func ToUser(dx, dy float64) User {
	dy = -dy
	mag, angle := ToPolar(dx, dy)
	return User{DX: dx, DY: zero(dy), Mag: mag, Angle: angle}
}

// FromUserPolar converts a user-entered magnitude and angle to internal
// components.
func FromUserPolar(mag, angle float64) (dx, dy float64) {
	dx, dy = FromPolar(mag, angle)
	return dx, zero(-dy)
}

// FromUserCartesian converts user-entered components to internal ones.
func FromUserCartesian(dx, dy float64) (float64, float64) {
	return dx, zero(-dy)
}

// zero folds -0 into 0 so negation never produces a signed zero.
func zero(v float64) float64 {
	if v == 0 {
		return 0
	}
	return v
}
