package aggregate

import (
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/cellgrav/internal/compute"
	"github.com/san-kum/cellgrav/internal/grid"
	"gonum.org/v1/gonum/spatial/r2"
)

func seededGrid(t *testing.T, w, h int, rng *rand.Rand) *grid.Grid {
	t.Helper()
	g, err := grid.New(w, h, 1)
	if err != nil {
		t.Fatalf("new grid: %v", err)
	}
	mass := make([]float64, w*h)
	vel := make([]r2.Vec, w*h)
	for i := range mass {
		mass[i] = rng.Float64()
		vel[i] = r2.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64()}
	}
	if err := g.Seed(mass, vel); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return g
}

func TestDims(t *testing.T) {
	tests := []struct {
		w, h  int
		depth int
	}{
		{27, 27, 4},
		{81, 27, 4},
		{9, 3, 2},
		{28, 28, 1},
		{2, 2, 1},
		{6, 9, 2},
	}
	for _, tt := range tests {
		if got := len(Dims(tt.w, tt.h)); got != tt.depth {
			t.Errorf("%dx%d: expected depth %d, got %d", tt.w, tt.h, tt.depth, got)
		}
	}
}

func TestPyramidTotals(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	shapes := [][2]int{{27, 27}, {81, 9}, {28, 28}, {10, 7}}

	for _, sh := range shapes {
		g := seededGrid(t, sh[0], sh[1], rng)
		p := NewPyramid(sh[0], sh[1])
		p.Build(compute.NewCPUBackendWithWorkers(3), g.Front())

		wantMass, wantMax, wantVel := 0.0, 0.0, 0.0
		var wantMoment r2.Vec
		for i, c := range g.Front() {
			wantMass += c.Mass
			wantMax = math.Max(wantMax, c.Mass)
			wantVel = math.Max(wantVel, r2.Norm(c.Velocity))
			wantMoment = r2.Add(wantMoment, r2.Scale(c.Mass, g.CellCenter(i)))
		}

		tot := p.Totals()
		if math.Abs(tot.Mass-wantMass) > 1e-9 {
			t.Errorf("%v: expected mass %f, got %f", sh, wantMass, tot.Mass)
		}
		if tot.MaxMass != wantMax {
			t.Errorf("%v: expected max mass %f, got %f", sh, wantMax, tot.MaxMass)
		}
		if tot.MaxVelocity != wantVel {
			t.Errorf("%v: expected max velocity %f, got %f", sh, wantVel, tot.MaxVelocity)
		}
		if r2.Norm(r2.Sub(tot.Moment, wantMoment)) > 1e-7 {
			t.Errorf("%v: expected moment %v, got %v", sh, wantMoment, tot.Moment)
		}
		if tot.Bounds != g.Bounds() {
			t.Errorf("%v: expected bounds %v, got %v", sh, g.Bounds(), tot.Bounds)
		}
	}
}

func TestPyramidIndivisibleSizeKeepsLeavesOnly(t *testing.T) {
	g := seededGrid(t, 28, 28, rand.New(rand.NewSource(5)))
	p := NewPyramid(28, 28)
	p.Build(compute.NewSerialBackend(), g.Front())

	if p.Depth() != 1 {
		t.Fatalf("expected only level 0, got depth %d", p.Depth())
	}
	if math.Abs(p.Totals().Mass-g.TotalMass()) > 1e-9 {
		t.Errorf("expected total %f, got %f", g.TotalMass(), p.Totals().Mass)
	}
}

func TestPyramidLevelBlocks(t *testing.T) {
	g, _ := grid.New(9, 9, 1)
	mass := make([]float64, 81)
	for i := range mass {
		mass[i] = 1
	}
	_ = g.Seed(mass, nil)

	p := NewPyramid(9, 9)
	p.Build(compute.NewSerialBackend(), g.Front())

	mid := p.Level(1).At(1, 1)
	if mid.Mass != 9 {
		t.Errorf("expected block mass 9, got %f", mid.Mass)
	}
	c, ok := mid.Centroid()
	if !ok || c != (r2.Vec{X: 4.5, Y: 4.5}) {
		t.Errorf("expected centroid (4.5,4.5), got %v", c)
	}
	if p.Top().Width != 1 || p.Top().Nodes[0].Mass != 81 {
		t.Errorf("unexpected top level %+v", p.Top())
	}
}
