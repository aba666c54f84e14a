package metrics

import (
	"github.com/san-kum/cellgrav/internal/grid"
	"github.com/san-kum/cellgrav/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

// Momentum is the mean magnitude of the field's total linear momentum.
// Pairwise gravity conserves it exactly, so growth measures the error of
// the far-field approximation.
type Momentum struct {
	name    string
	sum     float64
	samples int
}

func NewMomentum() *Momentum {
	return &Momentum{
		name: "momentum",
	}
}

func (m *Momentum) Name() string {
	return m.name
}

func (m *Momentum) Observe(r sim.TickResult, g *grid.Grid) {
	m.sum += r2.Norm(TotalMomentum(g.Front()))
	m.samples++
}

func (m *Momentum) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *Momentum) Reset() {
	m.sum = 0
	m.samples = 0
}

func TotalMomentum(cells []grid.Cell) r2.Vec {
	var p r2.Vec
	for _, c := range cells {
		p = r2.Add(p, r2.Scale(c.Mass, c.Velocity))
	}
	return p
}
