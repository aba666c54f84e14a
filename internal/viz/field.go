package viz

import (
	"fmt"
	"math"

	"github.com/san-kum/cellgrav/internal/aggregate"
	"github.com/san-kum/cellgrav/internal/compute"
	"github.com/san-kum/cellgrav/internal/grid"
	"gonum.org/v1/gonum/spatial/r2"
)

// Mode selects the per-cell quantity shown by the heatmap.
type Mode int

const (
	ModeMass Mode = iota
	ModeMomentum
	ModeForce
	ModeSAT
)

var modeNames = [...]string{"mass", "momentum", "force", "sat"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "unknown"
	}
	return modeNames[m]
}

func (m Mode) Next() Mode { return (m + 1) % Mode(len(modeNames)) }

func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if name == s {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown display mode %q (want one of %v)", s, modeNames)
}

func ModeNames() []string { return modeNames[:] }

func cellValue(c *grid.Cell, mode Mode) float64 {
	switch mode {
	case ModeMomentum:
		return c.Mass * r2.Norm(c.Velocity)
	case ModeForce:
		return r2.Norm(c.Force)
	default:
		return c.Mass
	}
}

type span struct{ lo, hi int }

// spans splits n cells into k contiguous non-empty bands.
func spans(n, k int) []span {
	k = max(1, min(k, n))
	out := make([]span, k)
	for i := range out {
		out[i] = span{i * n / k, max(i*n/k+1, (i+1)*n/k)}
	}
	return out
}

// Sample reduces the cells of g to a cols x rows image of block means,
// normalised to [0,1] by the largest block. Row 0 is the top of the grid.
// ModeSAT reads block sums from a summed-area table instead of visiting
// every cell. The returned size is clamped to the grid size.
func Sample(b compute.Backend, g *grid.Grid, cells []grid.Cell, mode Mode, cols, rows int) (out []float64, w, h int) {
	xs, ys := spans(g.Width, cols), spans(g.Height, rows)
	w, h = len(xs), len(ys)
	out = make([]float64, w*h)

	var sat *aggregate.SAT[float64]
	if mode == ModeSAT {
		sat = aggregate.NewSAT[float64](g.Width, g.Height)
		sat.Build(b, aggregate.CellMoments(cells))
	}

	b.Dispatch(h, func(start, end int) {
		for r := start; r < end; r++ {
			ySpan := ys[h-1-r]
			for c, xSpan := range xs {
				area := float64((xSpan.hi - xSpan.lo) * (ySpan.hi - ySpan.lo))
				var sum float64
				if sat != nil {
					sum = sat.Sum(xSpan.lo, ySpan.lo, xSpan.hi-1, ySpan.hi-1).Mass
				} else {
					for y := ySpan.lo; y < ySpan.hi; y++ {
						for x := xSpan.lo; x < xSpan.hi; x++ {
							sum += cellValue(&cells[g.Index(x, y)], mode)
						}
					}
				}
				out[r*w+c] = sum / area
			}
		}
	})

	peak := 0.0
	for _, v := range out {
		if !math.IsNaN(v) {
			peak = max(peak, v)
		}
	}
	if peak > 0 {
		for i := range out {
			out[i] /= peak
		}
	}
	return out, w, h
}
