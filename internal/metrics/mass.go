package metrics

import (
	"math"

	"github.com/san-kum/cellgrav/internal/grid"
	"github.com/san-kum/cellgrav/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

// MassDrift records the largest relative deviation of total mass from the
// initial mass.
type MassDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

// NewMassDrift uses initial as the reference; zero means the first
// observation becomes the reference.
func NewMassDrift(initial float64) *MassDrift {
	return &MassDrift{
		name:    "mass_drift",
		initial: initial,
	}
}

func (m *MassDrift) Name() string { return m.name }

func (m *MassDrift) Observe(r sim.TickResult, g *grid.Grid) {
	if m.samples == 0 && m.initial == 0 {
		m.initial = r.Mass
	}
	m.samples++
	if m.initial != 0 {
		drift := math.Abs(r.Mass-m.initial) / m.initial
		m.maxDrift = math.Max(m.maxDrift, drift)
	}
}

func (m *MassDrift) Value() float64 { return m.maxDrift }

func (m *MassDrift) Reset() {
	m.maxDrift = 0
	m.samples = 0
}

// KineticEnergy is the mean total kinetic energy of the field per tick.
type KineticEnergy struct {
	name    string
	total   float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(r sim.TickResult, g *grid.Grid) {
	e := 0.0
	for _, c := range g.Front() {
		e += 0.5 * c.Mass * r2.Dot(c.Velocity, c.Velocity)
	}
	k.total += e
	k.samples++
}

func (k *KineticEnergy) Value() float64 {
	if k.samples == 0 {
		return 0
	}
	return k.total / float64(k.samples)
}

func (k *KineticEnergy) Reset() {
	k.total = 0
	k.samples = 0
}
