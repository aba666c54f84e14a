package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnknownPreset = errors.New("unknown preset")

func preset(mutate func(c *Config)) *Config {
	c := DefaultConfig()
	mutate(c)
	return c
}

var Presets = map[string]map[string]*Config{
	"galaxy": {
		"small": preset(func(c *Config) {
			c.Width, c.Height = 81, 81
			c.Ticks = 300
		}),
		"large": preset(func(c *Config) {
			c.Width, c.Height = 243, 243
			c.PropagationWindow = 5
			c.Ticks = 500
		}),
		"huge": preset(func(c *Config) {
			c.Width, c.Height = 729, 729
			c.PropagationWindow = 5
			c.Force = "pyramid"
			c.Ticks = 1000
		}),
	},
	"collapse": {
		"cloud": preset(func(c *Config) {
			c.Width, c.Height = 81, 81
			c.Seed.Source = "noise"
			c.Seed.Swirl = false
			c.Ticks = 400
		}),
		"ring": preset(func(c *Config) {
			c.Width, c.Height = 81, 81
			c.Seed.Source = "ring"
			c.Seed.Swirl = false
			c.Force = "pyramid"
		}),
	},
	"static": {
		"uniform": preset(func(c *Config) {
			c.Width, c.Height = 27, 27
			c.Gravity = 0
			c.Seed.Source = "uniform"
			c.Seed.Swirl = false
			c.Ticks = 50
		}),
		"reference": preset(func(c *Config) {
			c.Width, c.Height = 27, 27
			c.Force = "direct"
			c.Expansion = false
			c.Ticks = 100
		}),
	},
}

func GetPreset(group, name string) *Config {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	cfg, ok := groupPresets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(group string) []string {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(groupPresets))
	for name := range groupPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListGroups() []string {
	groups := make([]string, 0, len(Presets))
	for g := range Presets {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// Lookup resolves a "group/name" preset reference to a copy of the preset.
func Lookup(ref string) (*Config, error) {
	group, name, ok := strings.Cut(ref, "/")
	if !ok {
		return nil, fmt.Errorf("%w: %q (want group/name)", ErrUnknownPreset, ref)
	}
	cfg := GetPreset(group, name)
	if cfg == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, ref)
	}
	return cfg, nil
}
