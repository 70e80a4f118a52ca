// Package viz is the live terminal front-end, built on Bubble Tea.
//
// [Model] drives a [sim.Simulator] from a fixed-interval tea.Tick and draws
// the charge set on a Braille [Canvas]: charges are colored by polarity,
// movable charges leave a trail, and the side panel shows the run clock,
// state, stop time and the selected charge.
//
// # Key Bindings
//
//	Space  - Start / pause the run
//	S      - Stop the run
//	R      - Reset charges to their start positions
//	Tab    - Select the next charge
//	Arrows - Move the selected charge (one grid step when the grid is on)
//	F / M  - Add a fixed / movable charge
//	+ / -  - Change the selected charge by one
//	[ / ]  - Rotate the selected charge's start velocity by 15°
//	< / >  - Change its start speed by 0.5
//	, / .  - Move the stop time by one second
//	X / C  - Remove the selected charge / clear all
//	W      - Save the arrangement
//
// Editing is refused while a run is in progress.
package viz
