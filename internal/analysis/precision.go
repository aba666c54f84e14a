package analysis

import (
	"math"
	"math/rand"
	"strconv"

	"github.com/san-kum/cellgrav/internal/aggregate"
	"github.com/san-kum/cellgrav/internal/compute"
	"gonum.org/v1/gonum/floats"
)

type Params struct {
	Resolution int
	// Exponent selects the value range [0, 10^Exponent].
	Exponent   int
	SampleSize int
	Iterations int
	Seed       int64
}

// Fixed7 formats as a fixed point number with 7 decimals in CSV output.
type Fixed7 float64

func (f Fixed7) MarshalCSV() (string, error) {
	return strconv.FormatFloat(float64(f), 'f', 7, 64), nil
}

func (f *Fixed7) UnmarshalCSV(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = Fixed7(v)
	return nil
}

type Report struct {
	Resolution    int    `csv:"resolution"`
	Exponent      int    `csv:"exponent"`
	SampleSize    int    `csv:"sample_size"`
	PositionError Fixed7 `csv:"position_error"`
	ValueError    Fixed7 `csv:"value_error"`
}

// Compare fills a random field, builds it into float32 and float64 SATs,
// and for every cell compares the SampleSize x SampleSize window starting
// there. PositionError is the mean centroid distance in cells, ValueError
// the mean relative mass difference, both averaged over Iterations fields.
func Compare(b compute.Backend, p Params) Report {
	n := p.Resolution
	iterations := max(1, p.Iterations)
	hi := math.Pow(10, float64(p.Exponent))
	rng := rand.New(rand.NewSource(p.Seed))

	values := make([]float64, n*n)
	sat32 := aggregate.NewSAT[float32](n, n)
	sat64 := aggregate.NewSAT[float64](n, n)
	rowPos := make([]float64, n)
	rowVal := make([]float64, n)

	var pos, val float64
	for it := 0; it < iterations; it++ {
		for i := range values {
			values[i] = rng.Float64() * hi
		}

		sat64.Build(b, func(i int) aggregate.Moment[float64] {
			v := values[i]
			x, y := float64(i%n)+0.5, float64(i/n)+0.5
			return aggregate.Moment[float64]{Mass: v, MX: v * x, MY: v * y}
		})
		sat32.Build(b, func(i int) aggregate.Moment[float32] {
			v := float32(values[i])
			x, y := float32(i%n)+0.5, float32(i/n)+0.5
			return aggregate.Moment[float32]{Mass: v, MX: v * x, MY: v * y}
		})

		s := p.SampleSize
		b.Dispatch(n, func(start, end int) {
			for y := start; y < end; y++ {
				var dp, dv float64
				for x := 0; x < n; x++ {
					m64 := sat64.Sum(x, y, x+s-1, y+s-1)
					m32 := sat32.Sum(x, y, x+s-1, y+s-1)
					if m64.Mass <= 0 {
						continue
					}
					cx64, cy64, _ := m64.Centroid()
					cx32, cy32, ok := m32.Centroid()
					if !ok {
						dp += float64(s)
						dv++
						continue
					}
					dp += math.Hypot(float64(cx32)-cx64, float64(cy32)-cy64)
					dv += math.Abs(float64(m32.Mass)-m64.Mass) / m64.Mass
				}
				rowPos[y] = dp
				rowVal[y] = dv
			}
		})

		cells := float64(n * n)
		pos += floats.Sum(rowPos) / cells
		val += floats.Sum(rowVal) / cells
	}

	return Report{
		Resolution:    n,
		Exponent:      p.Exponent,
		SampleSize:    p.SampleSize,
		PositionError: Fixed7(pos / float64(iterations)),
		ValueError:    Fixed7(val / float64(iterations)),
	}
}
