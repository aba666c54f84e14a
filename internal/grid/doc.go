// Package grid holds the cell field of the simulation.
//
// A [Grid] owns two equally sized cell buffers in row-major order. The
// front buffer is authoritative between ticks; stages that cannot update a
// cell in place write into the back buffer and the owner calls [Grid.Swap]
// once the stage is complete.
//
//   - [Cell]: mass, velocity, force scratch and occupied footprint
//   - [Grid]: double-buffered storage plus cell geometry
//   - [Fit], [Overlap], [Intersect]: footprint helpers on r2.Box
//
// # Geometry
//
// Cell (x, y) covers [x*cs, (x+1)*cs] x [y*cs, (y+1)*cs] where cs is the
// cell size. Cell footprints never leave that box.
//
// # Thread Safety
//
// Grid is not safe for concurrent mutation. Kernels dispatched over a grid
// must only write indices they own.
package grid
