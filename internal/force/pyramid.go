package force

import (
	"github.com/san-kum/cellgrav/internal/aggregate"
	"github.com/san-kum/cellgrav/internal/compute"
	"github.com/san-kum/cellgrav/internal/grid"
	"gonum.org/v1/gonum/spatial/r2"
)

// Pyramid walks the 3x3 reduction pyramid top down. At every level the
// nodes that are not adjacent to the cell's ancestor act as point masses;
// adjacent ones are refined at the next level. Level 0 neighbours are
// summed directly.
type Pyramid struct {
	params  Params
	pyramid *aggregate.Pyramid
	scale   []int
}

func NewPyramid(p Params, width, height int) *Pyramid {
	pyr := aggregate.NewPyramid(width, height)
	scale := make([]int, pyr.Depth())
	s := 1
	for k := range scale {
		scale[k] = s
		s *= 3
	}
	return &Pyramid{params: p, pyramid: pyr, scale: scale}
}

func (e *Pyramid) Name() string                { return "pyramid" }
func (e *Pyramid) Pyramid() *aggregate.Pyramid { return e.pyramid }

func (e *Pyramid) Build(b compute.Backend, g *grid.Grid, cells []grid.Cell) {
	e.pyramid.Build(b, cells)
}

func (e *Pyramid) Apply(b compute.Backend, g *grid.Grid, cells []grid.Cell) {
	applyEach(b, cells, func(i int) r2.Vec {
		x, y := g.Coords(i)
		return e.forceAt(cells, x, y, i)
	})
}

func (e *Pyramid) forceAt(cells []grid.Cell, x, y, i int) r2.Vec {
	ci := &cells[i]
	p := position(ci)
	gravity, soft := e.params.Gravity, e.params.Softening

	top := e.pyramid.Depth() - 1
	var f r2.Vec
	for lv := top; lv >= 0; lv-- {
		level := e.pyramid.Level(lv)
		s := e.scale[lv]
		ax, ay := x/s, y/s

		lox, loy, hix, hiy := 0, 0, level.Width-1, level.Height-1
		if lv < top {
			px, py := x/(3*s), y/(3*s)
			lox, loy = max(0, 3*(px-1)), max(0, 3*(py-1))
			hix, hiy = min(hix, 3*(px+2)-1), min(hiy, 3*(py+2)-1)
		}

		for ny := loy; ny <= hiy; ny++ {
			for nx := lox; nx <= hix; nx++ {
				adjacent := abs(nx-ax) <= 1 && abs(ny-ay) <= 1
				if adjacent && (lv > 0 || (nx == ax && ny == ay)) {
					continue
				}
				node := level.At(nx, ny)
				c, ok := node.Centroid()
				if !ok {
					continue
				}
				f = r2.Add(f, pull(gravity, ci.Mass, p, node.Mass, c, soft))
			}
		}
	}
	return f
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
