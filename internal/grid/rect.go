package grid

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Area returns the area of b, zero for empty or inverted boxes.
func Area(b r2.Box) float64 {
	w := b.Max.X - b.Min.X
	h := b.Max.Y - b.Min.Y
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Intersect returns the intersection of a and b. The result may be empty,
// in which case Area reports zero.
func Intersect(a, b r2.Box) r2.Box {
	return r2.Box{
		Min: r2.Vec{X: math.Max(a.Min.X, b.Min.X), Y: math.Max(a.Min.Y, b.Min.Y)},
		Max: r2.Vec{X: math.Min(a.Max.X, b.Max.X), Y: math.Min(a.Max.Y, b.Max.Y)},
	}
}

// Overlap returns the area shared by a and b.
func Overlap(a, b r2.Box) float64 {
	return Area(Intersect(a, b))
}

// Translate moves b by d.
func Translate(b r2.Box, d r2.Vec) r2.Box {
	return r2.Box{Min: r2.Add(b.Min, d), Max: r2.Add(b.Max, d)}
}

// Center returns the midpoint of b.
func Center(b r2.Box) r2.Vec {
	return r2.Scale(0.5, r2.Add(b.Min, b.Max))
}

// Square returns the axis-aligned square of the given side centred on c.
func Square(c r2.Vec, side float64) r2.Box {
	h := side / 2
	return r2.Box{
		Min: r2.Vec{X: c.X - h, Y: c.Y - h},
		Max: r2.Vec{X: c.X + h, Y: c.Y + h},
	}
}

// Fit places rect inside bounds. An axis larger than bounds is shrunk to
// it, otherwise the rect is shifted by the smallest amount that brings it
// inside.
func Fit(rect, bounds r2.Box) r2.Box {
	rect.Min.X, rect.Max.X = fitAxis(rect.Min.X, rect.Max.X, bounds.Min.X, bounds.Max.X)
	rect.Min.Y, rect.Max.Y = fitAxis(rect.Min.Y, rect.Max.Y, bounds.Min.Y, bounds.Max.Y)
	return rect
}

func fitAxis(lo, hi, blo, bhi float64) (float64, float64) {
	if hi-lo >= bhi-blo {
		return blo, bhi
	}
	if lo < blo {
		return blo, hi + (blo - lo)
	}
	if hi > bhi {
		return lo - (hi - bhi), bhi
	}
	return lo, hi
}
