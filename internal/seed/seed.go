package seed

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"
)

type Params struct {
	CellSize       float64
	MassMultiplier float64
	MassBias       [2]float64
	VelocityBias   [2]float64
	// Swirl adds a rotation about the grid centre that grows with radius.
	Swirl bool
}

// Generate turns a luminance field into cell masses and velocities:
// mass = multiplier * luminance * U(massBias). With Swirl each cell gets a
// tangential speed of width/81 * U(velocityBias) plus an inward pull, both
// faded towards the centre.
func Generate(f *Field, p Params, rng *rand.Rand) ([]float64, []r2.Vec) {
	n := f.Width * f.Height
	mass := make([]float64, n)
	vel := make([]r2.Vec, n)

	cs := p.CellSize
	c := r2.Vec{
		X: float64(f.Width/2)*cs + cs/2,
		Y: float64(f.Height/2)*cs + cs/2,
	}
	halfWidth := float64(f.Width/2) * cs
	speed := float64(f.Width) / 81

	for i := 0; i < n; i++ {
		x, y := i%f.Width, i/f.Width
		pos := r2.Vec{X: float64(x)*cs + cs/2, Y: float64(y)*cs + cs/2}

		if p.Swirl {
			toCenter := r2.Sub(c, pos)
			dist := r2.Norm(toCenter)
			var dir r2.Vec
			if dist > 0 {
				dir = r2.Scale(1/dist, toCenter)
			}
			t := 1.0
			if halfWidth > 0 {
				t = clamp01(dist / halfWidth)
			}

			v := r2.Scale(speed*uniform(rng, p.VelocityBias), dir)
			v = r2.Vec{X: v.Y, Y: -v.X}
			v = r2.Add(v, r2.Scale(t, dir))
			vel[i] = r2.Scale(t, v)
		}

		mass[i] = p.MassMultiplier * f.Values[i] * uniform(rng, p.MassBias)
	}
	return mass, vel
}

func uniform(rng *rand.Rand, r [2]float64) float64 {
	return r[0] + rng.Float64()*(r[1]-r[0])
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
