// Package stability derives the adaptive time step from per-row field
// statistics.
package stability

import (
	"math"

	"github.com/san-kum/cellgrav/internal/compute"
	"github.com/san-kum/cellgrav/internal/grid"
	"gonum.org/v1/gonum/spatial/r2"
)

// RowStat summarises one grid row. Stats has the same shape for the whole
// grid.
type RowStat struct {
	MaxMass     float64
	MaxVelocity float64
	MaxAccel    float64
	TotalMass   float64
}

type Stats = RowStat

type Params struct {
	CellSize         float64
	Density          float64
	MaxCellOffset    float64
	MaxDeltaTime     float64
	DefaultDeltaTime float64
}

// Controller reduces the field into Stats and picks the next time step.
type Controller struct {
	params Params
	rows   []RowStat
}

func NewController(p Params, height int) *Controller {
	return &Controller{params: p, rows: make([]RowStat, height)}
}

func (c *Controller) Params() Params { return c.params }

// Update reduces cells row by row, then across rows, and returns the stats
// together with the chosen time step.
func (c *Controller) Update(b compute.Backend, g *grid.Grid, cells []grid.Cell) (Stats, float64) {
	ReduceRows(b, g, cells, c.rows)
	stats := Reduce(c.rows)
	return stats, TimeStep(stats, c.params)
}

// ReduceRows writes one RowStat per grid row into rows.
func ReduceRows(b compute.Backend, g *grid.Grid, cells []grid.Cell, rows []RowStat) {
	b.Dispatch(g.Height, func(start, end int) {
		for y := start; y < end; y++ {
			var rs RowStat
			base := y * g.Width
			for x := 0; x < g.Width; x++ {
				cell := &cells[base+x]
				if cell.Mass <= 0 {
					continue
				}
				rs.TotalMass += cell.Mass
				rs.MaxMass = math.Max(rs.MaxMass, cell.Mass)
				rs.MaxVelocity = math.Max(rs.MaxVelocity, r2.Norm(cell.Velocity))
				rs.MaxAccel = math.Max(rs.MaxAccel, r2.Norm(cell.Force)/cell.Mass)
			}
			rows[y] = rs
		}
	})
}

func Reduce(rows []RowStat) Stats {
	var s Stats
	for _, r := range rows {
		s.TotalMass += r.TotalMass
		s.MaxMass = math.Max(s.MaxMass, r.MaxMass)
		s.MaxVelocity = math.Max(s.MaxVelocity, r.MaxVelocity)
		s.MaxAccel = math.Max(s.MaxAccel, r.MaxAccel)
	}
	return s
}

// TimeStep bounds how far any cell may travel in one step to
// CellSize*MaxCellOffset, taking into account velocity, expansion and the
// velocity gained during the step.
func TimeStep(s Stats, p Params) float64 {
	reach := p.CellSize * p.MaxCellOffset

	dt := p.DefaultDeltaTime
	if s.MaxVelocity > 0 {
		dt = reach / s.MaxVelocity
	}

	expansion := s.MaxMass * p.Density / (p.CellSize * p.CellSize)
	if expansion > 0 {
		dt = math.Min(dt, reach/expansion)
	}

	if s.MaxAccel > 0 {
		// largest dt with (v + a*dt)*dt <= reach
		v, a := s.MaxVelocity, s.MaxAccel
		dt = math.Min(dt, (-v+math.Sqrt(v*v+4*a*reach))/(2*a))
	}

	if p.MaxDeltaTime > 0 {
		dt = math.Min(dt, p.MaxDeltaTime)
	}
	return dt
}
