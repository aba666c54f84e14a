package transport

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/cellgrav/internal/compute"
	"github.com/san-kum/cellgrav/internal/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

func masses(cells []grid.Cell) []float64 {
	out := make([]float64, len(cells))
	for i, c := range cells {
		out[i] = c.Mass
	}
	return out
}

func step(t *testing.T, g *grid.Grid, s *Stage, dt float64) {
	t.Helper()
	s.Apply(compute.NewCPUBackendWithWorkers(3), g, dt)
	g.Swap()
}

func TestNewStageWindow(t *testing.T) {
	for _, w := range []int{2, 10} {
		if _, err := NewStage(w, false, 1, 9); !errors.Is(err, ErrWindow) {
			t.Errorf("window %d: expected ErrWindow, got %v", w, err)
		}
	}
	tests := []struct{ window, reach int }{{3, 1}, {4, 1}, {5, 2}, {8, 3}, {9, 4}}
	for _, tt := range tests {
		s, err := NewStage(tt.window, false, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, tt.reach, s.Reach())
	}
}

func TestMassConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(21))

	for window := MinWindow; window <= MaxWindow; window++ {
		for _, expansion := range []bool{false, true} {
			g, _ := grid.New(17, 13, 1)
			n := g.Len()
			mass := make([]float64, n)
			vel := make([]r2.Vec, n)
			for i := range mass {
				if rng.Float64() < 0.2 {
					continue
				}
				mass[i] = rng.Float64() * 2
				vel[i] = r2.Vec{X: rng.NormFloat64() * 3, Y: rng.NormFloat64() * 3}
			}
			require.NoError(t, g.Seed(mass, vel))
			before := floats.Sum(masses(g.Front()))

			s, err := NewStage(window, expansion, 1, n)
			require.NoError(t, err)
			for k := 0; k < 10; k++ {
				step(t, g, s, 0.4)
			}

			after := floats.Sum(masses(g.Front()))
			assert.Less(t, math.Abs(after-before)/before, 1e-5, "window %d expansion %v", window, expansion)
			for i, c := range g.Front() {
				require.GreaterOrEqual(t, c.Mass, 0.0, "cell %d", i)
				own := g.CellBox(i)
				require.InDelta(t, grid.Area(c.Rect), grid.Overlap(c.Rect, own), 1e-12, "footprint %d escaped its cell", i)
			}
		}
	}
}

func TestMovingCellSplitsByOverlap(t *testing.T) {
	g, _ := grid.New(2, 1, 1)
	require.NoError(t, g.Seed([]float64{1, 0}, []r2.Vec{{X: 0.5}, {}}))

	s, _ := NewStage(3, false, 1, g.Len())
	step(t, g, s, 0.6)

	front := g.Front()
	assert.InDelta(t, 0.7, front[0].Mass, 1e-12)
	assert.InDelta(t, 0.3, front[1].Mass, 1e-12)
	assert.InDelta(t, 0.5, front[0].Velocity.X, 1e-12)
	assert.InDelta(t, 0.5, front[1].Velocity.X, 1e-12)
}

func TestMomentumMixes(t *testing.T) {
	g, _ := grid.New(2, 1, 1)
	require.NoError(t, g.Seed([]float64{1, 1}, []r2.Vec{{X: 1}, {}}))

	s, _ := NewStage(3, false, 1, g.Len())
	step(t, g, s, 0.5)

	front := g.Front()
	assert.InDelta(t, 0.5, front[0].Mass, 1e-12)
	assert.InDelta(t, 1.5, front[1].Mass, 1e-12)
	assert.InDelta(t, 1.0, front[0].Velocity.X, 1e-12)
	assert.InDelta(t, 0.5/1.5, front[1].Velocity.X, 1e-12)
}

func TestRestingFieldIsStationary(t *testing.T) {
	for _, expansion := range []bool{false, true} {
		g, _ := grid.New(9, 9, 1)
		rng := rand.New(rand.NewSource(4))
		mass := make([]float64, g.Len())
		for i := range mass {
			mass[i] = rng.Float64()
		}
		require.NoError(t, g.Seed(mass, nil))

		s, _ := NewStage(5, expansion, 1, g.Len())
		for k := 0; k < 5; k++ {
			step(t, g, s, 0.3)
		}
		for i, c := range g.Front() {
			assert.InDelta(t, mass[i], c.Mass, 1e-12)
			assert.Equal(t, r2.Vec{}, c.Velocity)
		}
	}
}

func TestDisplacementIsClampedToWindow(t *testing.T) {
	g, _ := grid.New(7, 1, 1)
	mass := make([]float64, 7)
	vel := make([]r2.Vec, 7)
	mass[0] = 1
	vel[0] = r2.Vec{X: 100}
	require.NoError(t, g.Seed(mass, vel))

	s, _ := NewStage(3, false, 1, g.Len())
	step(t, g, s, 1)

	assert.InDelta(t, 1, g.Front()[1].Mass, 1e-12)
	assert.InDelta(t, 1, g.TotalMass(), 1e-12)
}

func TestBoundaryKeepsMassInside(t *testing.T) {
	g, _ := grid.New(3, 3, 1)
	mass := make([]float64, 9)
	vel := make([]r2.Vec, 9)
	mass[0] = 2
	vel[0] = r2.Vec{X: -1, Y: -1}
	require.NoError(t, g.Seed(mass, vel))

	s, _ := NewStage(3, false, 1, g.Len())
	step(t, g, s, 0.5)

	assert.InDelta(t, 2, g.Front()[0].Mass, 1e-12)
}

func TestExpansionFootprint(t *testing.T) {
	g, _ := grid.New(3, 3, 1)
	mass := make([]float64, 9)
	mass[4] = 0.25
	require.NoError(t, g.Seed(mass, nil))

	s, _ := NewStage(3, true, 1, g.Len())
	step(t, g, s, 0.1)

	c := g.Front()[4]
	assert.InDelta(t, 0.25, grid.Area(c.Rect), 1e-12)
	assert.Equal(t, r2.Vec{X: 1.5, Y: 1.5}, grid.Center(c.Rect))
	assert.Equal(t, g.CellBox(0), g.Front()[0].Rect)
}

func TestIntegrate(t *testing.T) {
	cells := []grid.Cell{
		{Mass: 2, Velocity: r2.Vec{X: 1}, Force: r2.Vec{Y: 4}},
		{Mass: 0, Force: r2.Vec{X: 10}},
	}
	Integrate(compute.NewSerialBackend(), cells, 0.5)
	assert.Equal(t, r2.Vec{X: 1, Y: 1}, cells[0].Velocity)
	assert.Equal(t, r2.Vec{}, cells[1].Velocity)
}
