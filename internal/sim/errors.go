package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig wraps every configuration rejection.
	ErrInvalidConfig = errors.New("sim: invalid configuration")

	// ErrInvalidState indicates a non-finite mass or velocity after a tick.
	ErrInvalidState = errors.New("sim: invalid state (NaN or Inf detected)")
)

// TickError wraps an error with the tick it occurred at.
type TickError struct {
	Tick    int
	Time    float64
	Wrapped error
}

func (e *TickError) Error() string {
	return fmt.Sprintf("tick %d (t=%.4f): %v", e.Tick, e.Time, e.Wrapped)
}

func (e *TickError) Unwrap() error {
	return e.Wrapped
}
