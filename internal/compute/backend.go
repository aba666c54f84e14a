package compute

import (
	"errors"
	"fmt"
)

// GroupSize is the number of work items per dispatch group.
const GroupSize = 128

var ErrUnknownBackend = errors.New("compute: unknown backend")

// Kernel processes work items in [start, end). A kernel must only write
// state owned by the items it is given.
type Kernel func(start, end int)

// Backend runs data-parallel kernels. Dispatch returns once every work item
// has been processed, which makes each call a barrier between stages.
type Backend interface {
	Name() string
	Available() bool
	Dispatch(n int, kernel Kernel)
	Cleanup()
}

// Groups returns the number of dispatch groups needed for n items.
func Groups(n int) int {
	return (n + GroupSize - 1) / GroupSize
}

// New returns the backend registered under name.
func New(name string) (Backend, error) {
	switch name {
	case "", "auto":
		return AutoSelectBackend(), nil
	case "cpu":
		return NewCPUBackend(), nil
	case "serial":
		return NewSerialBackend(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}

func AutoSelectBackend() Backend {
	cpu := NewCPUBackend()
	if cpu.Available() {
		return cpu
	}
	return NewSerialBackend()
}

// Names lists the selectable backends.
func Names() []string {
	return []string{"cpu", "serial"}
}
