package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every error produced by the engine matches exactly one of
// these with errors.Is.
var (
	// ErrConfiguration is reported before any simulation work begins.
	ErrConfiguration = errors.New("core: configuration error")

	// ErrGeometry indicates bad input bounds or a residency bug.
	ErrGeometry = errors.New("core: geometry error")

	// ErrResource indicates a worker failed; the run continues best effort.
	ErrResource = errors.New("core: resource error")
)

// Configuration failures.
var (
	ErrUnsupportedDimension = errors.New("core: unsupported dimensionality")
	ErrEllipseFactors       = errors.New("core: malformed ellipse factors")
	ErrParameterBounds      = errors.New("core: parameter out of valid bounds")
)

// Geometry failures.
var (
	ErrOutsideGrid   = errors.New("core: position outside grid")
	ErrAlreadyPlaced = errors.New("core: particle already placed")
	ErrNotPlaced     = errors.New("core: particle not placed")
)

// ConfigError wraps a configuration failure with the offending field.
type ConfigError struct {
	Field   string
	Wrapped error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Wrapped)
}

func (e *ConfigError) Unwrap() []error { return []error{ErrConfiguration, e.Wrapped} }

// Invalid builds a ConfigError for a parameter that failed validation.
func Invalid(field string, format string, args ...any) error {
	return &ConfigError{
		Field:   field,
		Wrapped: fmt.Errorf("%w: %s", ErrParameterBounds, fmt.Sprintf(format, args...)),
	}
}

// GeometryError carries a diagnostic dump of the particle and grid involved
// in a failed placement.
type GeometryError struct {
	Op       string
	Particle string
	Grid     string
	Wrapped  error
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Wrapped)
}

func (e *GeometryError) Unwrap() []error { return []error{ErrGeometry, e.Wrapped} }

// Dump returns the full diagnostic text.
func (e *GeometryError) Dump() string {
	return fmt.Sprintf("%s: %v\nparticle: %s\ngrid: %s", e.Op, e.Wrapped, e.Particle, e.Grid)
}

// ResourceError reports a worker that failed while processing a voxel.
type ResourceError struct {
	Worker  int
	Voxel   int
	Wrapped error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("worker %d (voxel %d): %v", e.Worker, e.Voxel, e.Wrapped)
}

func (e *ResourceError) Unwrap() []error { return []error{ErrResource, e.Wrapped} }
