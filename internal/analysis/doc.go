// Package analysis inspects recorded charge tracks.
//
//   - [PowerSpectrum] and [DominantPeriod]: periodicity of one coordinate,
//     e.g. the period of an orbiting charge
//   - [PathToASCII]: the path a charge traced, drawn in screen orientation
//
// # Orbit Period
//
// A movable charge circling a fixed one oscillates in x and y with the
// orbital period:
//
//	period, ok := analysis.DominantPeriod(tr.X[1], interval)
package analysis
