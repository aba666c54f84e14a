package sim

import (
	"github.com/san-kum/cellgrav/internal/grid"
	"github.com/san-kum/cellgrav/internal/stability"
)

// Config holds the physical and numerical parameters of a simulation.
type Config struct {
	Width             int
	Height            int
	CellSize          float64
	Gravity           float64
	Density           float64
	PropagationWindow int
	MaxCellOffset     float64
	MaxDeltaTime      float64
	DefaultDeltaTime  float64
	Force             string
	NearRadius        int
	Softening         float64
	Expansion         bool
	PyramidMinLevels  int
	ValidateState     bool
}

func DefaultConfig() Config {
	return Config{
		Width:             81,
		Height:            81,
		CellSize:          1,
		Gravity:           9.8,
		Density:           1,
		PropagationWindow: 3,
		MaxCellOffset:     0.1,
		MaxDeltaTime:      1,
		DefaultDeltaTime:  0.02,
		Force:             "sat",
		NearRadius:        1,
		Softening:         0.5,
		Expansion:         true,
		PyramidMinLevels:  2,
	}
}

// TickResult describes one completed tick. Stats are measured on the field
// the time step was derived from; Mass is the total after transport.
type TickResult struct {
	Tick  int
	Time  float64
	Dt    float64
	Mass  float64
	Stats stability.Stats
}

// Metric accumulates a scalar over a run.
type Metric interface {
	Name() string
	Observe(r TickResult, g *grid.Grid)
	Value() float64
	Reset()
}

// Observer is notified after every tick. The grid must be treated as
// read-only.
type Observer interface {
	OnTick(r TickResult, g *grid.Grid)
}

type Result struct {
	Ticks       []TickResult
	Metrics     map[string]float64
	InitialMass float64
	FinalMass   float64
	MassDrift   float64
	TicksTaken  int
}
