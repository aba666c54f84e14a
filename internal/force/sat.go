package force

import (
	"github.com/san-kum/cellgrav/internal/aggregate"
	"github.com/san-kum/cellgrav/internal/compute"
	"github.com/san-kum/cellgrav/internal/grid"
	"gonum.org/v1/gonum/spatial/r2"
)

// SAT evaluates the far field from summed-area table queries. Around each
// cell the block of half width NearRadius is summed directly; beyond it the
// plane is covered by square rings whose half width grows as r' = 3r + 1.
// A ring is the 3x3 tiling of the outer window minus its centre block, and
// each of its 8 tiles acts as a point mass at its centre of mass.
type SAT struct {
	params Params
	table  *aggregate.SAT[float64]
}

func NewSAT(p Params, width, height int) *SAT {
	return &SAT{params: p, table: aggregate.NewSAT[float64](width, height)}
}

func (s *SAT) Name() string                   { return "sat" }
func (s *SAT) Table() *aggregate.SAT[float64] { return s.table }

func (s *SAT) Build(b compute.Backend, g *grid.Grid, cells []grid.Cell) {
	s.table.Build(b, aggregate.CellMoments(cells))
}

func (s *SAT) Apply(b compute.Backend, g *grid.Grid, cells []grid.Cell) {
	applyEach(b, cells, func(i int) r2.Vec {
		x, y := g.Coords(i)
		return s.forceAt(g, cells, i, x, y)
	})
}

func (s *SAT) forceAt(g *grid.Grid, cells []grid.Cell, i, x, y int) r2.Vec {
	ci := &cells[i]
	p := position(ci)
	gravity, soft := s.params.Gravity, s.params.Softening

	r := s.params.NearRadius
	var f r2.Vec
	for ny := max(0, y-r); ny <= min(g.Height-1, y+r); ny++ {
		for nx := max(0, x-r); nx <= min(g.Width-1, x+r); nx++ {
			j := g.Index(nx, ny)
			if j == i || cells[j].Mass <= 0 {
				continue
			}
			f = r2.Add(f, pull(gravity, ci.Mass, p, cells[j].Mass, position(&cells[j]), soft))
		}
	}

	for !(x-r <= 0 && y-r <= 0 && x+r >= g.Width-1 && y+r >= g.Height-1) {
		outer := 3*r + 1
		xs := [4]int{x - outer, x - r, x + r + 1, x + outer + 1}
		ys := [4]int{y - outer, y - r, y + r + 1, y + outer + 1}
		for ty := 0; ty < 3; ty++ {
			for tx := 0; tx < 3; tx++ {
				if tx == 1 && ty == 1 {
					continue
				}
				m := s.table.Sum(xs[tx], ys[ty], xs[tx+1]-1, ys[ty+1]-1)
				cx, cy, ok := m.Centroid()
				if !ok {
					continue
				}
				f = r2.Add(f, pull(gravity, ci.Mass, p, m.Mass, r2.Vec{X: cx, Y: cy}, soft))
			}
		}
		r = outer
	}
	return f
}
