package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// MaxCells bounds the number of cells a grid may allocate (2187x2187).
const MaxCells = 2187 * 2187

// Cell is one fixed grid cell. Force is scratch recomputed every tick and
// Rect is the occupied footprint, always inside the cell's own box.
type Cell struct {
	Mass     float64
	Velocity r2.Vec
	Force    r2.Vec
	Rect     r2.Box
}

// Grid is a double-buffered rectangular field of cells.
type Grid struct {
	Width    int
	Height   int
	CellSize float64

	buffers [2][]Cell
	front   int
}

func New(width, height int, cellSize float64) (*Grid, error) {
	if width <= 0 || height <= 0 || cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		return nil, fmt.Errorf("%w: %dx%d cell size %g", ErrZeroSize, width, height, cellSize)
	}
	if width > MaxCells/height {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, width, height)
	}

	n := width * height
	g := &Grid{
		Width:    width,
		Height:   height,
		CellSize: cellSize,
		buffers:  [2][]Cell{make([]Cell, n), make([]Cell, n)},
	}
	for b := range g.buffers {
		for i := range g.buffers[b] {
			g.buffers[b][i].Rect = g.CellBox(i)
		}
	}
	return g, nil
}

func (g *Grid) Len() int { return g.Width * g.Height }

// Front returns the authoritative buffer.
func (g *Grid) Front() []Cell { return g.buffers[g.front] }

// Back returns the output buffer of the current stage.
func (g *Grid) Back() []Cell { return g.buffers[1-g.front] }

// Swap makes the back buffer authoritative.
func (g *Grid) Swap() { g.front = 1 - g.front }

func (g *Grid) Index(x, y int) int { return y*g.Width + x }

func (g *Grid) Coords(i int) (x, y int) { return i % g.Width, i / g.Width }

func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

// CellBox returns the fixed box of cell i.
func (g *Grid) CellBox(i int) r2.Box {
	x, y := g.Coords(i)
	cs := g.CellSize
	return r2.Box{
		Min: r2.Vec{X: float64(x) * cs, Y: float64(y) * cs},
		Max: r2.Vec{X: float64(x+1) * cs, Y: float64(y+1) * cs},
	}
}

// CellCenter returns the centre of the fixed box of cell i.
func (g *Grid) CellCenter(i int) r2.Vec {
	x, y := g.Coords(i)
	return r2.Vec{X: (float64(x) + 0.5) * g.CellSize, Y: (float64(y) + 0.5) * g.CellSize}
}

// Bounds returns the simulation domain.
func (g *Grid) Bounds() r2.Box {
	return r2.Box{Max: r2.Vec{X: float64(g.Width) * g.CellSize, Y: float64(g.Height) * g.CellSize}}
}

// Seed overwrites the front buffer with the given masses and velocities.
// velocity may be nil for a field at rest. Footprints reset to the own box.
func (g *Grid) Seed(mass []float64, velocity []r2.Vec) error {
	if len(mass) != g.Len() {
		return fmt.Errorf("%w: got %d masses for %d cells", ErrFieldSize, len(mass), g.Len())
	}
	if velocity != nil && len(velocity) != g.Len() {
		return fmt.Errorf("%w: got %d velocities for %d cells", ErrFieldSize, len(velocity), g.Len())
	}
	for i, m := range mass {
		if m < 0 || math.IsNaN(m) || math.IsInf(m, 0) {
			return fmt.Errorf("%w: cell %d has %g", ErrNegativeMass, i, m)
		}
	}

	front := g.Front()
	for i := range front {
		c := Cell{Mass: mass[i], Rect: g.CellBox(i)}
		if velocity != nil && mass[i] > 0 {
			c.Velocity = velocity[i]
		}
		front[i] = c
	}
	return nil
}

// TotalMass sums the mass of the front buffer.
func (g *Grid) TotalMass() float64 {
	total := 0.0
	for _, c := range g.Front() {
		total += c.Mass
	}
	return total
}

// Scope copies a w x h window of the front buffer starting at (x0, y0).
func (g *Grid) Scope(x0, y0, w, h int) ([]Cell, error) {
	if w <= 0 || h <= 0 || !g.InBounds(x0, y0) || !g.InBounds(x0+w-1, y0+h-1) {
		return nil, fmt.Errorf("%w: %dx%d at (%d,%d) in %dx%d", ErrScopeBounds, w, h, x0, y0, g.Width, g.Height)
	}
	out := make([]Cell, 0, w*h)
	front := g.Front()
	for y := y0; y < y0+h; y++ {
		start := g.Index(x0, y)
		out = append(out, front[start:start+w]...)
	}
	return out, nil
}

// IsValid reports whether every front cell holds finite values.
func (g *Grid) IsValid() bool {
	for _, c := range g.Front() {
		if !finite(c.Mass) || !finite(c.Velocity.X) || !finite(c.Velocity.Y) {
			return false
		}
	}
	return true
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
