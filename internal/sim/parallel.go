package sim

import (
	"context"

	"github.com/san-kum/cellgrav/internal/compute"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r2"
)

// Member is one simulation of an ensemble.
type Member struct {
	Config   Config
	Mass     []float64
	Velocity []r2.Vec
	Metrics  func() []Metric
}

// Ensemble runs independent simulations concurrently. Every member gets its
// own grid; they only share the backend's worker budget.
type Ensemble struct {
	backend  compute.Backend
	members  []Member
	parallel int
}

func NewEnsemble(backend compute.Backend, parallel int, members ...Member) *Ensemble {
	if parallel < 1 {
		parallel = 1
	}
	return &Ensemble{backend: backend, members: members, parallel: parallel}
}

// Run executes ticks steps on every member. Results keep member order; the
// first error cancels the remaining members.
func (e *Ensemble) Run(ctx context.Context, ticks int) ([]*Result, error) {
	results := make([]*Result, len(e.members))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallel)

	for i, m := range e.members {
		g.Go(func() error {
			s, err := New(m.Config, e.backend)
			if err != nil {
				return err
			}
			if err := s.Seed(m.Mass, m.Velocity); err != nil {
				return err
			}
			if m.Metrics != nil {
				for _, metric := range m.Metrics() {
					s.AddMetric(metric)
				}
			}
			results[i], err = s.Run(ctx, ticks)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
