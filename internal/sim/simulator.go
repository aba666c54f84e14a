package sim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/cellgrav/internal/aggregate"
	"github.com/san-kum/cellgrav/internal/compute"
	"github.com/san-kum/cellgrav/internal/force"
	"github.com/san-kum/cellgrav/internal/grid"
	"github.com/san-kum/cellgrav/internal/logger"
	"github.com/san-kum/cellgrav/internal/stability"
	"github.com/san-kum/cellgrav/internal/transport"
	"gonum.org/v1/gonum/spatial/r2"
)

// Simulator owns the grid and every per-tick stage. A tick runs force
// evaluation, the stability controller, integration and transport, then
// swaps the grid buffers.
type Simulator struct {
	cfg        Config
	grid       *grid.Grid
	backend    compute.Backend
	evaluator  force.Evaluator
	controller *stability.Controller
	stage      *transport.Stage
	metrics    []Metric
	observers  []Observer

	tick        int
	time        float64
	last        TickResult
	initialMass float64
}

func New(cfg Config, backend compute.Backend) (*Simulator, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if backend == nil {
		backend = compute.AutoSelectBackend()
	}

	g, err := grid.New(cfg.Width, cfg.Height, cfg.CellSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if cfg.Force == "pyramid" {
		if depth := len(aggregate.Dims(cfg.Width, cfg.Height)); depth < cfg.PyramidMinLevels {
			return nil, fmt.Errorf("%w: %dx%d gives %d pyramid levels, need %d",
				ErrInvalidConfig, cfg.Width, cfg.Height, depth, cfg.PyramidMinLevels)
		}
	}

	ev, err := force.New(cfg.Force, force.Params{
		Gravity:    cfg.Gravity,
		Softening:  cfg.Softening,
		NearRadius: cfg.NearRadius,
	}, cfg.Width, cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	stage, err := transport.NewStage(cfg.PropagationWindow, cfg.Expansion, cfg.Density, g.Len())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	controller := stability.NewController(stability.Params{
		CellSize:         cfg.CellSize,
		Density:          cfg.Density,
		MaxCellOffset:    cfg.MaxCellOffset,
		MaxDeltaTime:     cfg.MaxDeltaTime,
		DefaultDeltaTime: cfg.DefaultDeltaTime,
	}, cfg.Height)

	logger.WithComponent("sim").Debug("simulator created",
		"width", cfg.Width, "height", cfg.Height, "force", ev.Name(), "backend", backend.Name())

	return &Simulator{
		cfg:        cfg,
		grid:       g,
		backend:    backend,
		evaluator:  ev,
		controller: controller,
		stage:      stage,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}, nil
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Config() Config             { return s.cfg }
func (s *Simulator) Grid() *grid.Grid           { return s.grid }
func (s *Simulator) Backend() compute.Backend   { return s.backend }
func (s *Simulator) Evaluator() force.Evaluator { return s.evaluator }
func (s *Simulator) Front() []grid.Cell         { return s.grid.Front() }
func (s *Simulator) Last() TickResult           { return s.last }
func (s *Simulator) Time() float64              { return s.time }
func (s *Simulator) Ticks() int                 { return s.tick }
func (s *Simulator) Stats() stability.Stats     { return s.last.Stats }
func (s *Simulator) CurrentTimeStep() float64   { return s.last.Dt }
func (s *Simulator) InitialMass() float64       { return s.initialMass }
func (s *Simulator) Scope(x0, y0, w, h int) ([]grid.Cell, error) {
	return s.grid.Scope(x0, y0, w, h)
}

// Seed loads a mass field and optional velocities and resets the clock.
func (s *Simulator) Seed(mass []float64, velocity []r2.Vec) error {
	if err := s.grid.Seed(mass, velocity); err != nil {
		return err
	}
	s.tick = 0
	s.time = 0
	s.initialMass = s.grid.TotalMass()
	s.last = TickResult{Mass: s.initialMass}
	return nil
}

// PyramidTotals reports whole-grid aggregates from the pyramid built during
// the last tick. It is only available with the pyramid strategy.
func (s *Simulator) PyramidTotals() (aggregate.Node, bool) {
	ev, ok := s.evaluator.(*force.Pyramid)
	if !ok {
		return aggregate.Node{}, false
	}
	return ev.Pyramid().Totals(), true
}

// Tick advances the simulation by one adaptive step. The context is only
// consulted before the step starts; a started tick always completes.
func (s *Simulator) Tick(ctx context.Context) (TickResult, error) {
	if err := ctx.Err(); err != nil {
		return s.last, err
	}

	b := s.backend
	cells := s.grid.Front()

	s.evaluator.Build(b, s.grid, cells)
	s.evaluator.Apply(b, s.grid, cells)

	stats, dt := s.controller.Update(b, s.grid, cells)

	transport.Integrate(b, cells, dt)
	s.stage.Apply(b, s.grid, dt)
	s.grid.Swap()

	s.tick++
	s.time += dt
	r := TickResult{
		Tick:  s.tick,
		Time:  s.time,
		Dt:    dt,
		Mass:  s.grid.TotalMass(),
		Stats: stats,
	}
	s.last = r

	if s.cfg.ValidateState && !s.grid.IsValid() {
		return r, &TickError{Tick: s.tick, Time: s.time, Wrapped: ErrInvalidState}
	}

	for _, m := range s.metrics {
		m.Observe(r, s.grid)
	}
	for _, obs := range s.observers {
		obs.OnTick(r, s.grid)
	}
	return r, nil
}

// Run performs up to ticks steps and collects their results. Cancellation
// returns the partial result together with the context error.
func (s *Simulator) Run(ctx context.Context, ticks int) (*Result, error) {
	if ticks <= 0 {
		return nil, fmt.Errorf("%w: ticks must be positive, got %d", ErrInvalidConfig, ticks)
	}

	result := &Result{
		Ticks:       make([]TickResult, 0, ticks),
		Metrics:     make(map[string]float64),
		InitialMass: s.grid.TotalMass(),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	var runErr error
	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
		}
		if runErr != nil {
			break
		}

		r, err := s.Tick(ctx)
		if err != nil {
			var te *TickError
			if errors.As(err, &te) {
				logger.WithComponent("sim").Error("tick failed", "tick", te.Tick, "error", te.Wrapped)
			}
			runErr = err
			break
		}
		result.Ticks = append(result.Ticks, r)
		result.TicksTaken++
	}

	result.FinalMass = s.grid.TotalMass()
	if result.InitialMass != 0 {
		result.MassDrift = math.Abs(result.FinalMass-result.InitialMass) / result.InitialMass
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, runErr
}

func validateConfig(cfg Config) error {
	switch {
	case cfg.Width <= 0 || cfg.Height <= 0:
		return fmt.Errorf("%w: resolution must be positive, got %dx%d", ErrInvalidConfig, cfg.Width, cfg.Height)
	case !(cfg.CellSize > 0):
		return fmt.Errorf("%w: cell size must be positive, got %f", ErrInvalidConfig, cfg.CellSize)
	case !(cfg.Density > 0):
		return fmt.Errorf("%w: density must be positive, got %f", ErrInvalidConfig, cfg.Density)
	case cfg.Gravity < 0 || math.IsNaN(cfg.Gravity):
		return fmt.Errorf("%w: gravity must be non-negative, got %f", ErrInvalidConfig, cfg.Gravity)
	case !(cfg.MaxCellOffset > 0) || cfg.MaxCellOffset > 1:
		return fmt.Errorf("%w: max cell offset must be in (0, 1], got %f", ErrInvalidConfig, cfg.MaxCellOffset)
	case !(cfg.MaxDeltaTime > 0):
		return fmt.Errorf("%w: max delta time must be positive, got %f", ErrInvalidConfig, cfg.MaxDeltaTime)
	case !(cfg.DefaultDeltaTime > 0):
		return fmt.Errorf("%w: default delta time must be positive, got %f", ErrInvalidConfig, cfg.DefaultDeltaTime)
	case cfg.Softening < 0:
		return fmt.Errorf("%w: softening must be non-negative, got %f", ErrInvalidConfig, cfg.Softening)
	case cfg.NearRadius < 1:
		return fmt.Errorf("%w: near radius must be at least 1, got %d", ErrInvalidConfig, cfg.NearRadius)
	}
	return nil
}
