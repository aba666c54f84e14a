// Package analysis measures the numerical quality of the area aggregates.
//
// The summed-area table accumulates over the whole grid, so single
// precision loses accuracy as resolution and mass magnitudes grow. This
// package quantifies that loss:
//
//   - [Compare]: float32 vs float64 window sums over random fields
//   - [RunBatch]: sweep of resolution, value magnitude and window size
//   - [WriteReports]: space separated report rows
//
// # Example
//
//	reports, _ := analysis.RunBatch(ctx, backend, analysis.DefaultBatch())
//	_ = analysis.AppendReports("precision.txt", reports)
package analysis
