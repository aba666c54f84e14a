// Package compute provides data-parallel dispatch backends.
//
// Every simulation stage is expressed as a [Kernel] over a range of work
// items (cells, rows or aggregate nodes). Items are grouped in blocks of
// [GroupSize]; a backend decides how groups map onto workers:
//
//   - CPU: groups spread over runtime.NumCPU() goroutines
//   - Serial: single goroutine, useful for debugging and small grids
//
// # Usage
//
//	backend, _ := compute.New("cpu")
//	backend.Dispatch(len(cells), func(start, end int) {
//		for i := start; i < end; i++ {
//			// write only index i
//		}
//	})
//
// Dispatch blocks until all items are done, so consecutive dispatches are
// ordered stages.
package compute
