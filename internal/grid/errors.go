package grid

import "errors"

var (
	// ErrZeroSize indicates a grid with a non-positive dimension or cell size.
	ErrZeroSize = errors.New("grid: width, height and cell size must be positive")

	// ErrTooLarge indicates the requested cell count exceeds MaxCells.
	ErrTooLarge = errors.New("grid: cell count exceeds limit")

	// ErrFieldSize indicates a seed field that does not match the grid shape.
	ErrFieldSize = errors.New("grid: seed field size mismatch")

	// ErrNegativeMass indicates a negative or non-finite seed mass.
	ErrNegativeMass = errors.New("grid: seed mass must be finite and non-negative")

	// ErrScopeBounds indicates a scope window outside the grid.
	ErrScopeBounds = errors.New("grid: scope window out of bounds")
)
