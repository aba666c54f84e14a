package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/cellgrav/internal/sim"
	"gopkg.in/yaml.v3"
)

const (
	DefaultResolution       = 81
	DefaultCellSize         = 1.0
	DefaultGravity          = 9.8
	DefaultDensity          = 1.0
	DefaultWindow           = 3
	DefaultMaxCellOffset    = 0.1
	DefaultMaxDeltaTime     = 1.0
	DefaultDefaultDeltaTime = 0.02
	DefaultTicks            = 200
	DefaultMassMultiplier   = 1.0
)

// Resolutions are the square grid sizes offered by presets and the CLI.
// Powers of three keep the full reduction pyramid available.
var Resolutions = []int{27, 81, 243, 729, 2187}

type Config struct {
	Resolution        string     `yaml:"resolution,omitempty"`
	Width             int        `yaml:"width"`
	Height            int        `yaml:"height"`
	CellSize          float64    `yaml:"cell_size"`
	Gravity           float64    `yaml:"gravity"`
	Density           float64    `yaml:"density"`
	PropagationWindow int        `yaml:"propagation_window"`
	MaxCellOffset     float64    `yaml:"max_cell_offset"`
	MaxDeltaTime      float64    `yaml:"max_delta_time"`
	DefaultDeltaTime  float64    `yaml:"default_delta_time"`
	Force             string     `yaml:"force"`
	NearRadius        int        `yaml:"near_radius"`
	Softening         float64    `yaml:"softening"`
	Expansion         bool       `yaml:"expansion"`
	PyramidMinLevels  int        `yaml:"pyramid_min_levels"`
	ValidateState     bool       `yaml:"validate_state"`
	Backend           string     `yaml:"backend"`
	Ticks             int        `yaml:"ticks"`
	Seed              SeedConfig `yaml:"seed"`
}

type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

type SeedConfig struct {
	Source         string  `yaml:"source"`
	Image          string  `yaml:"image,omitempty"`
	Seed           int64   `yaml:"seed"`
	MassMultiplier float64 `yaml:"mass_multiplier"`
	MassBias       Range   `yaml:"mass_bias"`
	VelocityBias   Range   `yaml:"velocity_bias"`
	Swirl          bool    `yaml:"swirl"`
}

func DefaultConfig() *Config {
	return &Config{
		Width:             DefaultResolution,
		Height:            DefaultResolution,
		CellSize:          DefaultCellSize,
		Gravity:           DefaultGravity,
		Density:           DefaultDensity,
		PropagationWindow: DefaultWindow,
		MaxCellOffset:     DefaultMaxCellOffset,
		MaxDeltaTime:      DefaultMaxDeltaTime,
		DefaultDeltaTime:  DefaultDefaultDeltaTime,
		Force:             "sat",
		NearRadius:        1,
		Softening:         0.5 * DefaultCellSize,
		Expansion:         true,
		PyramidMinLevels:  2,
		Backend:           "cpu",
		Ticks:             DefaultTicks,
		Seed: SeedConfig{
			Source:         "disc",
			Seed:           1,
			MassMultiplier: DefaultMassMultiplier,
			MassBias:       Range{Min: 0.75, Max: 1.25},
			VelocityBias:   Range{Min: 0.825, Max: 1.125},
			Swirl:          true,
		},
	}
}

func Load(path string) (*Config, error) {
	return LoadInto(path, DefaultConfig())
}

// LoadInto overlays the file at path on a copy of base. Keys the file does
// not name keep their base values; base itself is not modified.
func LoadInto(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.ApplyResolution(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyResolution copies a "WxH" or "N" resolution string into Width and
// Height.
func (c *Config) ApplyResolution() error {
	if c.Resolution == "" {
		return nil
	}
	w, h, err := ParseResolution(c.Resolution)
	if err != nil {
		return err
	}
	c.Width, c.Height = w, h
	return nil
}

func ParseResolution(s string) (int, int, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) > 2 {
		return 0, 0, fmt.Errorf("invalid resolution %q", s)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid resolution %q: %w", s, err)
	}
	h := w
	if len(parts) == 2 {
		if h, err = strconv.Atoi(parts[1]); err != nil {
			return 0, 0, fmt.Errorf("invalid resolution %q: %w", s, err)
		}
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid resolution %q: dimensions must be positive", s)
	}
	return w, h, nil
}

func (c *Config) Sim() sim.Config {
	return sim.Config{
		Width:             c.Width,
		Height:            c.Height,
		CellSize:          c.CellSize,
		Gravity:           c.Gravity,
		Density:           c.Density,
		PropagationWindow: c.PropagationWindow,
		MaxCellOffset:     c.MaxCellOffset,
		MaxDeltaTime:      c.MaxDeltaTime,
		DefaultDeltaTime:  c.DefaultDeltaTime,
		Force:             c.Force,
		NearRadius:        c.NearRadius,
		Softening:         c.Softening,
		Expansion:         c.Expansion,
		PyramidMinLevels:  c.PyramidMinLevels,
		ValidateState:     c.ValidateState,
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
