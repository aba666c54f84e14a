package force

import (
	"github.com/san-kum/cellgrav/internal/compute"
	"github.com/san-kum/cellgrav/internal/grid"
	"gonum.org/v1/gonum/spatial/r2"
)

// Direct sums every pair of cells. It is the O(N²) reference the
// approximate strategies are checked against.
type Direct struct {
	params Params
}

func NewDirect(p Params) *Direct {
	return &Direct{params: p}
}

func (d *Direct) Name() string { return "direct" }

func (d *Direct) Build(compute.Backend, *grid.Grid, []grid.Cell) {}

func (d *Direct) Apply(b compute.Backend, g *grid.Grid, cells []grid.Cell) {
	applyEach(b, cells, func(i int) r2.Vec {
		ci := &cells[i]
		p := position(ci)
		var f r2.Vec
		for j := range cells {
			cj := &cells[j]
			if j == i || cj.Mass <= 0 {
				continue
			}
			f = r2.Add(f, pull(d.params.Gravity, ci.Mass, p, cj.Mass, position(cj), d.params.Softening))
		}
		return f
	})
}
