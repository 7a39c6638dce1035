package catalog

import "errors"

var (
	// ErrUnknownPipeline is returned when no pipeline is registered for a kind.
	ErrUnknownPipeline = errors.New("unknown pipeline kind")

	// ErrInvalidConfig is returned when a run configuration violates the
	// pipeline's schema.
	ErrInvalidConfig = errors.New("invalid run configuration")
)
