// Package transport advances velocities and moves mass and momentum
// between cells by footprint overlap.
package transport

import (
	"github.com/san-kum/cellgrav/internal/compute"
	"github.com/san-kum/cellgrav/internal/grid"
	"gonum.org/v1/gonum/spatial/r2"
)

// Integrate applies velocity += force/mass * dt to every cell with mass.
// Each work item updates only its own cell.
func Integrate(b compute.Backend, cells []grid.Cell, dt float64) {
	b.Dispatch(len(cells), func(start, end int) {
		for i := start; i < end; i++ {
			c := &cells[i]
			if c.Mass <= 0 {
				continue
			}
			c.Velocity = r2.Add(c.Velocity, r2.Scale(dt/c.Mass, c.Force))
		}
	})
}
