// Package sim runs the self-gravitating mass grid.
//
// A [Simulator] wires the per-tick stages together:
//
//   - force evaluation from an area aggregate (SAT or pyramid)
//   - the stability controller, which picks the time step
//   - velocity integration and overlap transport into the back buffer
//   - the buffer swap
//
// # Example
//
//	s, _ := sim.New(sim.DefaultConfig(), compute.NewCPUBackend())
//	_ = s.Seed(mass, nil)
//	result, _ := s.Run(ctx, 200)
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. Observers run on the ticking
// goroutine and must copy what they keep. Use [Ensemble] to run several
// simulations in parallel.
package sim
