package dynamo

import "errors"

// Domain errors for numeric operations.
var (
	// ErrInvalidState indicates a state vector with NaN or Inf entries.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrSingular indicates a matrix that cannot be inverted.
	ErrSingular = errors.New("dynamo: singular matrix")

	// ErrDimensionMismatch indicates mismatched state/control dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)
