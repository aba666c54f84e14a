package aggregate

import (
	"math"

	"github.com/san-kum/cellgrav/internal/compute"
	"github.com/san-kum/cellgrav/internal/grid"
	"gonum.org/v1/gonum/spatial/r2"
)

// Node aggregates a block of cells.
type Node struct {
	Mass        float64
	Moment      r2.Vec
	MaxMass     float64
	MaxVelocity float64
	Bounds      r2.Box
}

// Centroid returns the centre of mass, false for an empty node.
func (n Node) Centroid() (r2.Vec, bool) {
	if n.Mass <= 0 {
		return r2.Vec{}, false
	}
	return r2.Scale(1/n.Mass, n.Moment), true
}

func (n *Node) merge(o Node, first bool) {
	if first {
		*n = o
		return
	}
	n.Mass += o.Mass
	n.Moment = r2.Add(n.Moment, o.Moment)
	n.MaxMass = math.Max(n.MaxMass, o.MaxMass)
	n.MaxVelocity = math.Max(n.MaxVelocity, o.MaxVelocity)
	n.Bounds.Min.X = math.Min(n.Bounds.Min.X, o.Bounds.Min.X)
	n.Bounds.Min.Y = math.Min(n.Bounds.Min.Y, o.Bounds.Min.Y)
	n.Bounds.Max.X = math.Max(n.Bounds.Max.X, o.Bounds.Max.X)
	n.Bounds.Max.Y = math.Max(n.Bounds.Max.Y, o.Bounds.Max.Y)
}

type Level struct {
	Width  int
	Height int
	Nodes  []Node
}

func (l *Level) At(x, y int) *Node { return &l.Nodes[y*l.Width+x] }

// Pyramid is a stack of 3x3 reductions. Level 0 has one node per cell.
type Pyramid struct {
	levels []Level
}

// Dims returns the level sizes of a pyramid over a width x height grid. A
// level is added only while both dimensions are at least 3 and divisible
// by 3.
func Dims(width, height int) [][2]int {
	dims := [][2]int{{width, height}}
	for width >= 3 && height >= 3 && width%3 == 0 && height%3 == 0 {
		width /= 3
		height /= 3
		dims = append(dims, [2]int{width, height})
	}
	return dims
}

func NewPyramid(width, height int) *Pyramid {
	dims := Dims(width, height)
	p := &Pyramid{levels: make([]Level, len(dims))}
	for k, d := range dims {
		p.levels[k] = Level{Width: d[0], Height: d[1], Nodes: make([]Node, d[0]*d[1])}
	}
	return p
}

func (p *Pyramid) Depth() int         { return len(p.levels) }
func (p *Pyramid) Level(k int) *Level { return &p.levels[k] }
func (p *Pyramid) Top() *Level        { return &p.levels[len(p.levels)-1] }

// Build reduces cells into every level. Each level is one dispatch over its
// nodes and only reads the finished level below it.
func (p *Pyramid) Build(b compute.Backend, cells []grid.Cell) {
	leaves := &p.levels[0]
	b.Dispatch(len(leaves.Nodes), func(start, end int) {
		for i := start; i < end; i++ {
			c := &cells[i]
			leaves.Nodes[i] = Node{
				Mass:        c.Mass,
				Moment:      r2.Scale(c.Mass, grid.Center(c.Rect)),
				MaxMass:     c.Mass,
				MaxVelocity: r2.Norm(c.Velocity),
				Bounds:      c.Rect,
			}
		}
	})

	for k := 1; k < len(p.levels); k++ {
		src, dst := &p.levels[k-1], &p.levels[k]
		b.Dispatch(len(dst.Nodes), func(start, end int) {
			for i := start; i < end; i++ {
				x, y := i%dst.Width, i/dst.Width
				var n Node
				first := true
				for dy := 0; dy < 3; dy++ {
					for dx := 0; dx < 3; dx++ {
						n.merge(*src.At(3*x+dx, 3*y+dy), first)
						first = false
					}
				}
				dst.Nodes[i] = n
			}
		})
	}
}

// Totals reduces the coarsest level to a single node, so the result covers
// the whole grid even when the pyramid stops early.
func (p *Pyramid) Totals() Node {
	var total Node
	for i, n := range p.Top().Nodes {
		total.merge(n, i == 0)
	}
	return total
}
