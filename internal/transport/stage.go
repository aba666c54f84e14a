package transport

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/cellgrav/internal/compute"
	"github.com/san-kum/cellgrav/internal/grid"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	MinWindow = 3
	MaxWindow = 9
)

var ErrWindow = errors.New("transport: propagation window must be between 3 and 9")

// footprint is where a source cell's mass lands this step.
type footprint struct {
	rect r2.Box
	area float64
}

// Stage moves mass and momentum from the front buffer into the back
// buffer. A source may only reach cells within Reach() of itself, so every
// destination gathers from its own window and is written by exactly one
// work item.
type Stage struct {
	window    int
	expansion bool
	density   float64
	prints    []footprint
}

func NewStage(window int, expansion bool, density float64, cells int) (*Stage, error) {
	if window < MinWindow || window > MaxWindow {
		return nil, fmt.Errorf("%w: got %d", ErrWindow, window)
	}
	return &Stage{
		window:    window,
		expansion: expansion,
		density:   density,
		prints:    make([]footprint, cells),
	}, nil
}

func (s *Stage) Window() int { return s.window }

// Reach is the largest cell offset a source may deliver mass to. Even
// windows round down to the next odd one.
func (s *Stage) Reach() int { return (s.window - 1) / 2 }

// Apply runs the prepass and the gather pass. The caller swaps buffers
// afterwards.
func (s *Stage) Apply(b compute.Backend, g *grid.Grid, dt float64) {
	src, dst := g.Front(), g.Back()
	s.prepass(b, g, src, dt)
	s.pass(b, g, src, dst)
}

func (s *Stage) prepass(b compute.Backend, g *grid.Grid, src []grid.Cell, dt float64) {
	limit := float64(s.Reach()) * g.CellSize
	bounds := g.Bounds()

	b.Dispatch(len(src), func(start, end int) {
		for i := start; i < end; i++ {
			c := &src[i]
			if c.Mass <= 0 {
				s.prints[i] = footprint{}
				continue
			}
			d := r2.Scale(dt, c.Velocity)
			d.X = clamp(d.X, limit)
			d.Y = clamp(d.Y, limit)

			rect := c.Rect
			if grid.Area(rect) <= 0 {
				rect = g.CellBox(i)
			}
			rect = grid.Fit(grid.Translate(rect, d), bounds)
			s.prints[i] = footprint{rect: rect, area: grid.Area(rect)}
		}
	})
}

func (s *Stage) pass(b compute.Backend, g *grid.Grid, src, dst []grid.Cell) {
	k := s.Reach()

	b.Dispatch(len(dst), func(start, end int) {
		for i := start; i < end; i++ {
			x, y := g.Coords(i)
			own := g.CellBox(i)

			var mass float64
			var momentum, centroid r2.Vec
			for sy := max(0, y-k); sy <= min(g.Height-1, y+k); sy++ {
				for sx := max(0, x-k); sx <= min(g.Width-1, x+k); sx++ {
					j := g.Index(sx, sy)
					fp := &s.prints[j]
					if fp.area <= 0 {
						continue
					}
					shared := grid.Intersect(fp.rect, own)
					overlap := grid.Area(shared)
					if overlap <= 0 {
						continue
					}
					dm := overlap / fp.area * src[j].Mass
					mass += dm
					momentum = r2.Add(momentum, r2.Scale(dm, src[j].Velocity))
					if s.expansion {
						centroid = r2.Add(centroid, r2.Scale(dm, grid.Center(shared)))
					}
				}
			}

			out := grid.Cell{Mass: mass, Rect: own}
			if mass > 0 {
				out.Velocity = r2.Scale(1/mass, momentum)
				if s.expansion {
					c := r2.Scale(1/mass, centroid)
					out.Rect = grid.Fit(grid.Square(c, math.Sqrt(mass/s.density)), own)
				}
			}
			dst[i] = out
		}
	})
}

func clamp(v, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, v))
}
