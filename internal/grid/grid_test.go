package grid

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestNewRejectsBadSizes(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		cs   float64
		want error
	}{
		{"zero width", 0, 3, 1, ErrZeroSize},
		{"negative height", 3, -1, 1, ErrZeroSize},
		{"zero cell size", 3, 3, 0, ErrZeroSize},
		{"too large", 5000, 5000, 1, ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.w, tt.h, tt.cs)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSwapExchangesBuffers(t *testing.T) {
	g, err := New(3, 2, 1)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	g.Back()[0].Mass = 7
	if g.Front()[0].Mass != 0 {
		t.Fatalf("back write leaked into front")
	}
	g.Swap()
	if g.Front()[0].Mass != 7 {
		t.Errorf("expected swapped front mass 7, got %f", g.Front()[0].Mass)
	}
}

func TestGeometry(t *testing.T) {
	g, _ := New(4, 3, 2)
	i := g.Index(3, 2)
	if i != 11 {
		t.Fatalf("expected index 11, got %d", i)
	}
	x, y := g.Coords(i)
	if x != 3 || y != 2 {
		t.Errorf("expected (3,2), got (%d,%d)", x, y)
	}
	box := g.CellBox(i)
	if box.Min != (r2.Vec{X: 6, Y: 4}) || box.Max != (r2.Vec{X: 8, Y: 6}) {
		t.Errorf("unexpected box %+v", box)
	}
	if c := g.CellCenter(i); c != (r2.Vec{X: 7, Y: 5}) {
		t.Errorf("unexpected center %+v", c)
	}
	if b := g.Bounds(); b.Max != (r2.Vec{X: 8, Y: 6}) {
		t.Errorf("unexpected bounds %+v", b)
	}
}

func TestSeed(t *testing.T) {
	g, _ := New(2, 2, 1)

	if err := g.Seed([]float64{1, 2, 3}, nil); !errors.Is(err, ErrFieldSize) {
		t.Errorf("expected ErrFieldSize, got %v", err)
	}
	if err := g.Seed([]float64{1, -2, 3, 4}, nil); !errors.Is(err, ErrNegativeMass) {
		t.Errorf("expected ErrNegativeMass, got %v", err)
	}

	vel := []r2.Vec{{X: 1}, {X: 2}, {X: 3}, {X: 4}}
	if err := g.Seed([]float64{1, 0, 3, 4}, vel); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if g.TotalMass() != 8 {
		t.Errorf("expected total mass 8, got %f", g.TotalMass())
	}
	if g.Front()[1].Velocity != (r2.Vec{}) {
		t.Errorf("empty cell kept velocity %+v", g.Front()[1].Velocity)
	}
	if g.Front()[3].Rect != g.CellBox(3) {
		t.Errorf("footprint not reset to own box")
	}
}

func TestScope(t *testing.T) {
	g, _ := New(4, 4, 1)
	mass := make([]float64, 16)
	for i := range mass {
		mass[i] = float64(i)
	}
	_ = g.Seed(mass, nil)

	cells, err := g.Scope(1, 2, 2, 2)
	if err != nil {
		t.Fatalf("scope failed: %v", err)
	}
	want := []float64{9, 10, 13, 14}
	for i, c := range cells {
		if c.Mass != want[i] {
			t.Errorf("cell %d: expected %f, got %f", i, want[i], c.Mass)
		}
	}

	if _, err := g.Scope(3, 3, 2, 1); !errors.Is(err, ErrScopeBounds) {
		t.Errorf("expected ErrScopeBounds, got %v", err)
	}
}
