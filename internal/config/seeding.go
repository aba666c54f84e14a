package config

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/cellgrav/internal/compute"
	"github.com/san-kum/cellgrav/internal/seed"
	"github.com/san-kum/cellgrav/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

func (c *Config) SeedParams() seed.Params {
	return seed.Params{
		CellSize:       c.CellSize,
		MassMultiplier: c.Seed.MassMultiplier,
		MassBias:       [2]float64{c.Seed.MassBias.Min, c.Seed.MassBias.Max},
		VelocityBias:   [2]float64{c.Seed.VelocityBias.Min, c.Seed.VelocityBias.Max},
		Swirl:          c.Seed.Swirl,
	}
}

// InitialField builds the seed masses and velocities described by the
// seed section, reading the image when the source is "image".
func (c *Config) InitialField() ([]float64, []r2.Vec, error) {
	rng := rand.New(rand.NewSource(c.Seed.Seed))

	var field *seed.Field
	var err error
	if c.Seed.Source == "image" {
		field, err = seed.FromFile(c.Seed.Image, c.Width, c.Height)
	} else {
		field, err = seed.Pattern(c.Seed.Source, c.Width, c.Height, rng)
	}
	if err != nil {
		return nil, nil, err
	}

	mass, vel := seed.Generate(field, c.SeedParams(), rng)
	return mass, vel, nil
}

// NewSimulator builds a simulator on b and seeds it from the seed section.
// A nil backend selects the configured one.
func (c *Config) NewSimulator(b compute.Backend) (*sim.Simulator, error) {
	if b == nil {
		var err error
		if b, err = compute.New(c.Backend); err != nil {
			return nil, err
		}
	}
	s, err := sim.New(c.Sim(), b)
	if err != nil {
		return nil, err
	}
	mass, vel, err := c.InitialField()
	if err != nil {
		return nil, fmt.Errorf("seed field: %w", err)
	}
	if err := s.Seed(mass, vel); err != nil {
		return nil, err
	}
	return s, nil
}
