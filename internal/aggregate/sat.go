package aggregate

import (
	"github.com/san-kum/cellgrav/internal/compute"
	"github.com/san-kum/cellgrav/internal/grid"
)

type Float interface {
	~float32 | ~float64
}

// Moment is the zeroth and first mass moment of a region.
type Moment[T Float] struct {
	Mass T
	MX   T
	MY   T
}

func (m Moment[T]) Add(o Moment[T]) Moment[T] {
	return Moment[T]{Mass: m.Mass + o.Mass, MX: m.MX + o.MX, MY: m.MY + o.MY}
}

func (m Moment[T]) Sub(o Moment[T]) Moment[T] {
	return Moment[T]{Mass: m.Mass - o.Mass, MX: m.MX - o.MX, MY: m.MY - o.MY}
}

// Centroid returns the centre of mass, false when the region is empty.
func (m Moment[T]) Centroid() (x, y T, ok bool) {
	if m.Mass <= 0 {
		return 0, 0, false
	}
	return m.MX / m.Mass, m.MY / m.Mass, true
}

// SAT is a summed-area table of mass moments. Entry (x, y) holds the sum
// over all cells (i, j) with i <= x and j <= y.
type SAT[T Float] struct {
	width  int
	height int
	in     []Moment[T]
	out    []Moment[T]
}

func NewSAT[T Float](width, height int) *SAT[T] {
	n := width * height
	return &SAT[T]{
		width:  width,
		height: height,
		in:     make([]Moment[T], n),
		out:    make([]Moment[T], n),
	}
}

func (s *SAT[T]) Width() int  { return s.width }
func (s *SAT[T]) Height() int { return s.height }

// Build fills the table from sample(i), i being the row-major cell index.
// The passes are init, row scan, transpose, row scan, transpose; each pass
// reads one buffer and writes the other.
func (s *SAT[T]) Build(b compute.Backend, sample func(i int) Moment[T]) {
	n := s.width * s.height

	b.Dispatch(n, func(start, end int) {
		for i := start; i < end; i++ {
			s.out[i] = sample(i)
		}
	})
	s.swap()

	s.scanRows(b, s.width, s.height)
	s.swap()
	s.transpose(b, s.width, s.height)
	s.swap()
	s.scanRows(b, s.height, s.width)
	s.swap()
	s.transpose(b, s.height, s.width)
	s.swap()
}

func (s *SAT[T]) swap() { s.in, s.out = s.out, s.in }

// scanRows writes inclusive prefix sums of each row of a cols x rows layout.
func (s *SAT[T]) scanRows(b compute.Backend, cols, rows int) {
	b.Dispatch(rows, func(start, end int) {
		for r := start; r < end; r++ {
			base := r * cols
			var acc Moment[T]
			for c := 0; c < cols; c++ {
				acc = acc.Add(s.in[base+c])
				s.out[base+c] = acc
			}
		}
	})
}

// transpose reads a cols x rows layout and writes its rows x cols transpose.
func (s *SAT[T]) transpose(b compute.Backend, cols, rows int) {
	b.Dispatch(cols*rows, func(start, end int) {
		for i := start; i < end; i++ {
			// i indexes the output, which has rows columns.
			c, r := i/rows, i%rows
			s.out[i] = s.in[r*cols+c]
		}
	})
}

// At returns the inclusive prefix at (x, y). Negative coordinates yield
// zero and coordinates past the edge clamp to it.
func (s *SAT[T]) At(x, y int) Moment[T] {
	if x < 0 || y < 0 {
		return Moment[T]{}
	}
	if x >= s.width {
		x = s.width - 1
	}
	if y >= s.height {
		y = s.height - 1
	}
	return s.in[y*s.width+x]
}

// Sum returns the moments of the inclusive cell rectangle [x0,x1]x[y0,y1]
// clipped to the grid. Empty rectangles sum to zero.
func (s *SAT[T]) Sum(x0, y0, x1, y1 int) Moment[T] {
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 >= s.width {
		x1 = s.width - 1
	}
	if y1 >= s.height {
		y1 = s.height - 1
	}
	if x0 > x1 || y0 > y1 {
		return Moment[T]{}
	}
	return s.At(x1, y1).Sub(s.At(x0-1, y1)).Sub(s.At(x1, y0-1)).Add(s.At(x0-1, y0-1))
}

// Total returns the moments of the whole grid.
func (s *SAT[T]) Total() Moment[T] {
	return s.At(s.width-1, s.height-1)
}

// CellMoments samples cells by mass and footprint centre.
func CellMoments(cells []grid.Cell) func(i int) Moment[float64] {
	return func(i int) Moment[float64] {
		c := &cells[i]
		if c.Mass <= 0 {
			return Moment[float64]{}
		}
		p := grid.Center(c.Rect)
		return Moment[float64]{Mass: c.Mass, MX: c.Mass * p.X, MY: c.Mass * p.Y}
	}
}
