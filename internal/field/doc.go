// Package field computes pairwise forces between point charges and
// advances movable charges one tick at a time.
//
// Every movable charge accumulates, from every other charge in the set,
//
//	F = K * q1 * q2 / d²
//
// along the line joining the two snapshot positions, with each pairwise
// component rounded to [DefaultPrecision] decimal places before it is
// summed. The net force is added to the velocity and the velocity to the
// position (forward Euler, unit timestep). Fixed charges exert force but
// never move.
//
// # Simultaneity
//
// [Engine.Step] only reads snapshot positions and only writes current
// positions; [Engine.SyncSnapshots] then commits the new positions. The
// result of a tick is therefore independent of the set's order.
//
// # Coincident charges
//
// Two charges at the same snapshot position have no defined force. Step
// reports a [*SingularityError] before moving anything.
package field
