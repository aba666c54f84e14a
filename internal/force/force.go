package force

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/cellgrav/internal/compute"
	"github.com/san-kum/cellgrav/internal/grid"
	"gonum.org/v1/gonum/spatial/r2"
)

var ErrUnknownStrategy = errors.New("force: unknown strategy")

type Params struct {
	Gravity float64
	// Softening is the minimum separation used in the inverse square law.
	Softening float64
	// NearRadius is the half width of the block summed cell by cell by the
	// SAT strategy.
	NearRadius int
}

// Evaluator computes the gravitational force on every cell. Build prepares
// the area aggregate from the current cells and Apply writes cells[i].Force.
type Evaluator interface {
	Name() string
	Build(b compute.Backend, g *grid.Grid, cells []grid.Cell)
	Apply(b compute.Backend, g *grid.Grid, cells []grid.Cell)
}

func New(strategy string, p Params, width, height int) (Evaluator, error) {
	if p.NearRadius < 1 {
		p.NearRadius = 1
	}
	switch strategy {
	case "sat":
		return NewSAT(p, width, height), nil
	case "pyramid":
		return NewPyramid(p, width, height), nil
	case "direct":
		return NewDirect(p), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

func Strategies() []string {
	return []string{"sat", "pyramid", "direct"}
}

// pull returns the force exerted on mass m at p by mass mj at q.
func pull(gravity, m float64, p r2.Vec, mj float64, q r2.Vec, softening float64) r2.Vec {
	d := r2.Sub(q, p)
	r := r2.Norm(d)
	if r == 0 {
		return r2.Vec{}
	}
	rc := math.Max(r, softening)
	return r2.Scale(gravity*m*mj/(rc*rc*r), d)
}

// position is the point a cell's mass acts from.
func position(c *grid.Cell) r2.Vec {
	return grid.Center(c.Rect)
}

func applyEach(b compute.Backend, cells []grid.Cell, fn func(i int) r2.Vec) {
	b.Dispatch(len(cells), func(start, end int) {
		for i := start; i < end; i++ {
			if cells[i].Mass <= 0 {
				cells[i].Force = r2.Vec{}
				continue
			}
			cells[i].Force = fn(i)
		}
	})
}
