// Package core provides the primitives shared by every layer of the layout
// engine.
//
// The package defines:
//
//   - [Vec]: small runtime-sized float vector (positions, forces)
//   - [Coord]: integer voxel coordinate with stride arithmetic
//   - error kinds for configuration, geometry and resource failures
//   - [ParallelFor]: chunked data-parallel loop used by the simulator
//
// # Dimensionality
//
// A run is fixed to one dimensionality (2 or 3 for layouts, 1 to 3 for the
// grid). Binary operations on [Vec] and [Coord] assume both operands share it.
//
//	x := core.Vec{0, 0}
//	y := core.Vec{3, 4}
//	d := x.Distance(y) // 5
package core
