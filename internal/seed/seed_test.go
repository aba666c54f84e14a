package seed

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestPatterns(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, name := range Patterns() {
		f, err := Pattern(name, 27, 27, rng)
		require.NoError(t, err, name)
		for i, v := range f.Values {
			require.True(t, v >= 0 && v <= 1, "%s value %d = %f", name, i, v)
		}
	}

	_, err := Pattern("spiral", 3, 3, rng)
	assert.True(t, errors.Is(err, ErrUnknownPattern))
}

func TestFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	img.Set(1, 0, color.Black)
	img.Set(0, 1, color.RGBA{R: 255, A: 255})
	img.Set(1, 1, color.White)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	f, err := FromImage(&buf, 2, 2)
	require.NoError(t, err)

	// field row 0 is the bottom image row
	assert.InDelta(t, 1.0/3, f.Values[0], 1e-9)
	assert.InDelta(t, 1, f.Values[1], 1e-9)
	assert.InDelta(t, 1, f.Values[2], 1e-9)
	assert.InDelta(t, 0, f.Values[3], 1e-9)
}

func TestFromImageRejectsGarbage(t *testing.T) {
	_, err := FromImage(bytes.NewReader([]byte("not an image")), 3, 3)
	assert.Error(t, err)
}

func TestGenerateMassBias(t *testing.T) {
	f, _ := Pattern("uniform", 9, 9, nil)
	p := Params{CellSize: 1, MassMultiplier: 2, MassBias: [2]float64{0.75, 1.25}}
	mass, vel := Generate(f, p, rand.New(rand.NewSource(3)))

	for i, m := range mass {
		assert.True(t, m >= 1.5 && m <= 2.5, "mass %d = %f", i, m)
		assert.Equal(t, r2.Vec{}, vel[i])
	}
}

func TestGenerateSwirl(t *testing.T) {
	f, _ := Pattern("uniform", 81, 81, nil)
	p := Params{CellSize: 1, MassMultiplier: 1, MassBias: [2]float64{1, 1}, VelocityBias: [2]float64{1, 1}, Swirl: true}
	_, vel := Generate(f, p, rand.New(rand.NewSource(3)))

	center := 40*81 + 40
	assert.Equal(t, r2.Vec{}, vel[center])

	// a cell on the horizontal axis right of the centre: tangential part
	// points along +y, radial part points towards -x
	edge := 40*81 + 80
	v := vel[edge]
	assert.InDelta(t, -1.0, v.X, 1e-9)
	assert.Greater(t, v.Y, 0.0)
	assert.InDelta(t, 1.0, math.Abs(v.Y), 1e-9)
}
