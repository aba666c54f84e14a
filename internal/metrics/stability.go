package metrics

import (
	"github.com/san-kum/cellgrav/internal/grid"
	"github.com/san-kum/cellgrav/internal/sim"
)

// Stability is the fraction of ticks whose fastest cell stayed within the
// allowed travel of cellSize*maxCellOffset.
type Stability struct {
	name       string
	limit      float64
	violations int
	samples    int
}

func NewStability(cellSize, maxCellOffset float64) *Stability {
	return &Stability{
		name:  "stability",
		limit: cellSize*maxCellOffset + 1e-9,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(r sim.TickResult, g *grid.Grid) {
	s.samples++
	if r.Stats.MaxVelocity*r.Dt > s.limit {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

type MeanTimeStep struct {
	name    string
	sum     float64
	samples int
}

func NewMeanTimeStep() *MeanTimeStep {
	return &MeanTimeStep{name: "mean_dt"}
}

func (m *MeanTimeStep) Name() string { return m.name }

func (m *MeanTimeStep) Observe(r sim.TickResult, g *grid.Grid) {
	m.sum += r.Dt
	m.samples++
}

func (m *MeanTimeStep) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanTimeStep) Reset() {
	m.sum = 0
	m.samples = 0
}
