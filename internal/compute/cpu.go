package compute

import (
	"runtime"
	"sync"
)

type CPUBackend struct {
	workers int
}

func NewCPUBackend() *CPUBackend {
	return &CPUBackend{
		workers: runtime.NumCPU(),
	}
}

// NewCPUBackendWithWorkers pins the worker count, mostly for benchmarks.
func NewCPUBackendWithWorkers(workers int) *CPUBackend {
	if workers < 1 {
		workers = 1
	}
	return &CPUBackend{workers: workers}
}

func (c *CPUBackend) Name() string    { return "cpu" }
func (c *CPUBackend) Available() bool { return c.workers > 0 }
func (c *CPUBackend) Cleanup()        {}
func (c *CPUBackend) Workers() int    { return c.workers }

// Dispatch splits n items into groups of GroupSize and hands contiguous runs
// of groups to the workers.
func (c *CPUBackend) Dispatch(n int, kernel Kernel) {
	if n <= 0 {
		return
	}

	groups := Groups(n)
	workers := c.workers
	if groups < workers {
		workers = groups
	}
	if workers <= 1 {
		kernel(0, n)
		return
	}

	groupsPerWorker := (groups + workers - 1) / workers
	chunkSize := groupsPerWorker * GroupSize

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		if start >= n {
			break
		}
		end := start + chunkSize
		if end > n {
			end = n
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			kernel(s, e)
		}(start, end)
	}

	wg.Wait()
}
