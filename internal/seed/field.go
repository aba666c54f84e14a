// Package seed builds initial mass and velocity fields.
package seed

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"math/rand"
	"os"
)

var ErrUnknownPattern = errors.New("seed: unknown pattern")

// Field is a row-major luminance map with values in [0, 1].
type Field struct {
	Width  int
	Height int
	Values []float64
}

func NewField(width, height int) *Field {
	return &Field{Width: width, Height: height, Values: make([]float64, width*height)}
}

// FromImage decodes a PNG or JPEG and samples its luminance onto a
// width x height grid with nearest-neighbour lookup. Row 0 of the field is
// the bottom row of the image.
func FromImage(r io.Reader, width, height int) (*Field, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode seed image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("decode seed image: empty image")
	}

	f := NewField(width, height)
	for y := 0; y < height; y++ {
		sy := b.Max.Y - 1 - (y*b.Dy())/height
		for x := 0; x < width; x++ {
			sx := b.Min.X + (x*b.Dx())/width
			r, g, bl, _ := img.At(sx, sy).RGBA()
			f.Values[y*width+x] = (float64(r) + float64(g) + float64(bl)) / (3 * 0xffff)
		}
	}
	return f, nil
}

func FromFile(path string, width, height int) (*Field, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return FromImage(file, width, height)
}

// Patterns lists the generated field names accepted by Pattern.
func Patterns() []string {
	return []string{"disc", "uniform", "noise", "ring"}
}

// Pattern generates a synthetic luminance field.
func Pattern(name string, width, height int, rng *rand.Rand) (*Field, error) {
	f := NewField(width, height)
	cx, cy := float64(width)/2, float64(height)/2
	radius := math.Min(cx, cy)

	for i := range f.Values {
		x, y := float64(i%width)+0.5, float64(i/width)+0.5
		d := math.Hypot(x-cx, y-cy) / radius

		var v float64
		switch name {
		case "uniform":
			v = 1
		case "disc":
			v = math.Max(0, 1-d)
		case "noise":
			v = rng.Float64()
		case "ring":
			v = math.Exp(-math.Pow((d-0.6)/0.12, 2))
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownPattern, name)
		}
		f.Values[i] = v
	}
	return f, nil
}
