// Package charge defines the point-charge records simulated by the field
// engine.
//
// A [Charge] is either [Fixed] or [Movable]. Both carry a charge value and
// a position; movable charges additionally track their initial position,
// current and initial velocity, and a snapshot position:
//
//   - Pos:  where the charge is drawn
//   - Calc: the snapshot every force computation in a tick reads
//   - Pos0, Vel0: values restored by [Charge.Reset]
//
// The snapshot only changes in [Charge.Sync], after every charge in a
// [Set] has been advanced, so all charges see the same system state for
// a given tick regardless of the order they are visited in.
package charge
