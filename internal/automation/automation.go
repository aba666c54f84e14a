package automation

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/san-kum/cellgrav/internal/compute"
	"github.com/san-kum/cellgrav/internal/config"
	"github.com/san-kum/cellgrav/internal/logger"
	"github.com/san-kum/cellgrav/internal/metrics"
	"github.com/san-kum/cellgrav/internal/sim"
	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep runs a preset, optionally patched by config keys, for a
// number of ticks.
type ScenarioStep struct {
	Name      string    `yaml:"name"`
	Preset    string    `yaml:"preset"`
	Overrides yaml.Node `yaml:"overrides"`
	Ticks     int       `yaml:"ticks"`
}

// StepResult summarises one finished step.
type StepResult struct {
	Name      string
	Config    *config.Config
	Result    *sim.Result
	Last      sim.TickResult
	MassDrift float64
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// Config resolves the step preset and applies its overrides.
func (s ScenarioStep) Config() (*config.Config, error) {
	ref := s.Preset
	if ref == "" {
		ref = "galaxy/small"
	}
	cfg, err := config.Lookup(ref)
	if err != nil {
		return nil, err
	}
	if s.Overrides.Kind != 0 {
		if err := s.Overrides.Decode(cfg); err != nil {
			return nil, fmt.Errorf("overrides: %w", err)
		}
	}
	if err := cfg.ApplyResolution(); err != nil {
		return nil, err
	}
	if s.Ticks > 0 {
		cfg.Ticks = s.Ticks
	}
	return cfg, nil
}

// RunScenario executes all steps in order, each on a fresh simulator.
func RunScenario(ctx context.Context, scenario *Scenario, backend compute.Backend) ([]StepResult, error) {
	log := logger.WithComponent("scenario")
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step-%d", i+1)
		}
		log.Info("running step", "step", i+1, "of", len(scenario.Steps), "name", name, "preset", step.Preset)

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		s, err := cfg.NewSimulator(backend)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		s.AddMetric(metrics.NewMassDrift(s.InitialMass()))
		s.AddMetric(metrics.NewStability(cfg.CellSize, cfg.MaxCellOffset))

		result, err := s.Run(ctx, cfg.Ticks)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{
			Name:      name,
			Config:    cfg,
			Result:    result,
			Last:      s.Last(),
			MassDrift: result.Metrics["mass_drift"],
		})
	}

	return results, nil
}

// ParameterSweep runs a preset across evenly spaced values of one config
// key, such as "gravity" or "max_cell_offset".
type ParameterSweep struct {
	Preset   string
	Param    string
	Min      float64
	Max      float64
	NumSteps int
	Ticks    int
	Parallel int
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue   float64
	MassDrift    float64
	MeanDt       float64
	PeakVelocity float64
	Stability    float64
}

func setParam(cfg *config.Config, key string, value float64) error {
	node := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		{Kind: yaml.ScalarNode, Value: strconv.FormatFloat(value, 'g', -1, 64)},
	}}
	return node.Decode(cfg)
}

func sweepMetrics(cfg *config.Config) func() []sim.Metric {
	return func() []sim.Metric {
		return []sim.Metric{
			metrics.NewMassDrift(0),
			metrics.NewMeanTimeStep(),
			metrics.NewStability(cfg.CellSize, cfg.MaxCellOffset),
		}
	}
}

func peakVelocity(r *sim.Result) float64 {
	peak := 0.0
	for _, t := range r.Ticks {
		peak = math.Max(peak, t.Stats.MaxVelocity)
	}
	return peak
}

// RunSweep executes a parameter sweep as a sim.Ensemble.
func RunSweep(ctx context.Context, sweep *ParameterSweep, backend compute.Backend) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.NumSteps)
	}
	base, err := config.Lookup(sweep.Preset)
	if err != nil {
		return nil, err
	}
	mass, vel, err := base.InitialField()
	if err != nil {
		return nil, err
	}

	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.Max - sweep.Min) / float64(sweep.NumSteps-1)
	}

	values := make([]float64, sweep.NumSteps)
	members := make([]sim.Member, sweep.NumSteps)
	for i := range members {
		values[i] = sweep.Min + float64(i)*paramStep
		cfg := base.Clone()
		if err := setParam(cfg, sweep.Param, values[i]); err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.Param, values[i], err)
		}
		members[i] = sim.Member{Config: cfg.Sim(), Mass: mass, Velocity: vel, Metrics: sweepMetrics(cfg)}
	}

	ticks := sweep.Ticks
	if ticks <= 0 {
		ticks = base.Ticks
	}
	runs, err := sim.NewEnsemble(backend, sweep.Parallel, members...).Run(ctx, ticks)
	if err != nil {
		return nil, err
	}

	results := make([]SweepResult, len(runs))
	for i, r := range runs {
		results[i] = SweepResult{
			ParamValue:   values[i],
			MassDrift:    r.Metrics["mass_drift"],
			MeanDt:       r.Metrics["mean_dt"],
			PeakVelocity: peakVelocity(r),
			Stability:    r.Metrics["stability"],
		}
	}
	return results, nil
}

// MonteCarloConfig reruns a preset with different seeds of the stochastic
// initial field.
type MonteCarloConfig struct {
	Preset    string
	NumTrials int
	Ticks     int
	Seed      int64
	Parallel  int
	// MaxDrift bounds the relative mass drift of a stable trial.
	MaxDrift float64
}

// MonteCarloResult holds statistics from Monte Carlo runs
type MonteCarloResult struct {
	TrialID   int
	Seed      int64
	MassDrift float64
	Stable    bool // finite state and drift within bounds
}

// RunMonteCarlo executes NumTrials seeds concurrently.
func RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig, backend compute.Backend) ([]MonteCarloResult, error) {
	base, err := config.Lookup(mc.Preset)
	if err != nil {
		return nil, err
	}

	members := make([]sim.Member, mc.NumTrials)
	for i := range members {
		cfg := base.Clone()
		cfg.Seed.Seed = mc.Seed + int64(i)
		mass, vel, err := cfg.InitialField()
		if err != nil {
			return nil, err
		}
		members[i] = sim.Member{Config: cfg.Sim(), Mass: mass, Velocity: vel, Metrics: sweepMetrics(cfg)}
	}

	ticks := mc.Ticks
	if ticks <= 0 {
		ticks = base.Ticks
	}
	maxDrift := mc.MaxDrift
	if maxDrift <= 0 {
		maxDrift = 1e-6
	}

	runs, err := sim.NewEnsemble(backend, mc.Parallel, members...).Run(ctx, ticks)
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, len(runs))
	for i, r := range runs {
		drift := r.Metrics["mass_drift"]
		results[i] = MonteCarloResult{
			TrialID:   i,
			Seed:      mc.Seed + int64(i),
			MassDrift: drift,
			Stable:    !math.IsNaN(drift) && drift <= maxDrift,
		}
	}
	return results, nil
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
