package aflc

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is matched by every *ConfigurationError.
	ErrConfiguration = errors.New("aflc: invalid configuration")

	// ErrSingularTransform indicates an orientation that yields a
	// non-invertible kinematic transform.
	ErrSingularTransform = errors.New("aflc: singular frame transform")

	// ErrNumerical indicates NaN or Inf in inputs or in a computed quantity.
	ErrNumerical = errors.New("aflc: non-finite value")

	// ErrNotInitialized indicates a tick before InitReferenceModel.
	ErrNotInitialized = errors.New("aflc: reference model not initialized")
)

// ConfigurationError rejects a gain set at construction.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("aflc: invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Stage names a step of the per-tick pipeline.
type Stage int

const (
	StageIdle Stage = iota
	StageTransform
	StageReference
	StageAntiWindup
	StageSurface
	StageAdaptation
	StageSynthesis
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageTransform:
		return "frame-transform"
	case StageReference:
		return "reference-update"
	case StageAntiWindup:
		return "anti-windup"
	case StageSurface:
		return "error-surface"
	case StageAdaptation:
		return "adaptive-law"
	case StageSynthesis:
		return "control-synthesis"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// TickError reports a failed tick. The controller state was rolled back.
type TickError struct {
	Tick    uint64
	Stage   Stage
	Wrapped error
}

func (e *TickError) Error() string {
	return fmt.Sprintf("aflc: tick %d failed at %s: %v", e.Tick, e.Stage, e.Wrapped)
}

func (e *TickError) Unwrap() error {
	return e.Wrapped
}
