package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/cellgrav/internal/compute"
	"github.com/san-kum/cellgrav/internal/sim"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Force != "sat" {
		t.Errorf("expected force sat, got %s", cfg.Force)
	}
	if cfg.Width != 81 || cfg.Height != 81 {
		t.Errorf("expected 81x81, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.MaxCellOffset <= 0 {
		t.Error("max cell offset should be positive")
	}
	if _, err := sim.New(cfg.Sim(), compute.NewSerialBackend()); err != nil {
		t.Errorf("default config rejected: %v", err)
	}
}

func TestParseResolution(t *testing.T) {
	tests := []struct {
		in      string
		w, h    int
		wantErr bool
	}{
		{"81", 81, 81, false},
		{"243x81", 243, 81, false},
		{" 27X9 ", 27, 9, false},
		{"0x9", 0, 0, true},
		{"axb", 0, 0, true},
		{"3x3x3", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			w, h, err := ParseResolution(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if w != tt.w || h != tt.h {
				t.Errorf("expected %dx%d, got %dx%d", tt.w, tt.h, w, h)
			}
		})
	}
}

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")

	cfg := DefaultConfig()
	cfg.Force = "pyramid"
	cfg.Seed.MassBias = Range{Min: 0.5, Max: 1.5}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Force != "pyramid" {
		t.Errorf("expected pyramid, got %s", loaded.Force)
	}
	if loaded.Seed.MassBias.Max != 1.5 {
		t.Errorf("expected mass bias max 1.5, got %f", loaded.Seed.MassBias.Max)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := "resolution: 27x9\ngravity: 1.5\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Width != 27 || cfg.Height != 9 {
		t.Errorf("expected 27x9, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Gravity != 1.5 {
		t.Errorf("expected gravity 1.5, got %f", cfg.Gravity)
	}
	if cfg.Density != DefaultDensity {
		t.Errorf("expected default density, got %f", cfg.Density)
	}
}

func TestLoadIntoKeepsPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	if err := os.WriteFile(path, []byte("gravity: 3\nseed:\n  seed: 42\n"), 0644); err != nil {
		t.Fatal(err)
	}

	base, err := Lookup("collapse/ring")
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadInto(path, base)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Gravity != 3 {
		t.Errorf("expected gravity 3, got %f", cfg.Gravity)
	}
	if cfg.Seed.Seed != 42 {
		t.Errorf("expected seed 42, got %d", cfg.Seed.Seed)
	}
	if cfg.Force != "pyramid" {
		t.Errorf("expected preset force pyramid, got %s", cfg.Force)
	}
	if cfg.Seed.Source != "ring" || cfg.Seed.Swirl {
		t.Errorf("expected preset seed ring without swirl, got %s swirl=%v", cfg.Seed.Source, cfg.Seed.Swirl)
	}
	if cfg.Seed.MassMultiplier != DefaultMassMultiplier {
		t.Errorf("expected nested defaults kept, got multiplier %f", cfg.Seed.MassMultiplier)
	}
	if base.Gravity == 3 {
		t.Error("base config was modified")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("galaxy", "large")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Width != 243 {
		t.Errorf("expected width 243, got %d", cfg.Width)
	}

	cfg.Width = 1
	if GetPreset("galaxy", "large").Width != 243 {
		t.Error("preset mutated through returned copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("galaxy", "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("nonexistent", "small") != nil {
		t.Error("expected nil for nonexistent group")
	}
}

func TestPresetsAreRunnable(t *testing.T) {
	for _, group := range ListGroups() {
		for _, name := range ListPresets(group) {
			cfg := GetPreset(group, name)
			if cfg.Width*cfg.Height > 243*243 {
				continue
			}
			if _, err := sim.New(cfg.Sim(), compute.NewSerialBackend()); err != nil {
				t.Errorf("%s/%s rejected: %v", group, name, err)
			}
		}
	}
}

func TestPresetTicks(t *testing.T) {
	cfg := GetPreset("static", "uniform")
	s, err := sim.New(cfg.Sim(), compute.NewSerialBackend())
	if err != nil {
		t.Fatal(err)
	}
	mass := make([]float64, cfg.Width*cfg.Height)
	for i := range mass {
		mass[i] = 1
	}
	_ = s.Seed(mass, nil)
	if _, err := s.Run(context.Background(), 3); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if s.Grid().TotalMass() != float64(len(mass)) {
		t.Errorf("static preset changed total mass")
	}
}

func TestInitialField(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 27, 27

	mass, vel, err := cfg.InitialField()
	if err != nil {
		t.Fatalf("initial field failed: %v", err)
	}
	if len(mass) != 27*27 || len(vel) != 27*27 {
		t.Fatalf("expected %d cells, got %d/%d", 27*27, len(mass), len(vel))
	}

	again, _, _ := cfg.InitialField()
	for i := range mass {
		if mass[i] != again[i] {
			t.Fatalf("seed %d not reproducible at cell %d", cfg.Seed.Seed, i)
		}
	}

	cfg.Seed.Source = "image"
	cfg.Seed.Image = filepath.Join(t.TempDir(), "missing.png")
	if _, _, err := cfg.InitialField(); err == nil {
		t.Error("expected error for missing image")
	}
}

func TestNewSimulator(t *testing.T) {
	cfg := GetPreset("galaxy", "small")
	cfg.Backend = "serial"

	s, err := cfg.NewSimulator(nil)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if s.Backend().Name() != "serial" {
		t.Errorf("expected serial backend, got %s", s.Backend().Name())
	}
	if s.InitialMass() <= 0 {
		t.Error("expected seeded mass")
	}

	cfg.Backend = "quantum"
	if _, err := cfg.NewSimulator(nil); err == nil {
		t.Error("expected unknown backend error")
	}
}

func TestLookup(t *testing.T) {
	cfg, err := Lookup("collapse/ring")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if cfg.Seed.Source != "ring" {
		t.Errorf("expected ring seed, got %s", cfg.Seed.Source)
	}

	for _, ref := range []string{"collapse", "collapse/none", "nope/ring"} {
		if _, err := Lookup(ref); !errors.Is(err, ErrUnknownPreset) {
			t.Errorf("%q: expected ErrUnknownPreset, got %v", ref, err)
		}
	}
}
