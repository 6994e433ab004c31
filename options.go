package lorekeep

import (
	"github.com/rs/zerolog"

	"github.com/lorekeep/lorekeep/pkg/capability"
	"github.com/lorekeep/lorekeep/pkg/capability/heuristic"
	"github.com/lorekeep/lorekeep/pkg/errors"
)

// Option configures the engine.
type Option func(*Engine) error

// WithCapability sets the intelligence capability every component
// shares. Defaults to the offline heuristic backend.
func WithCapability(cap capability.Analyzer) Option {
	return func(e *Engine) error {
		if cap == nil {
			return errors.NewValidationError("capability", nil, "capability must not be nil")
		}
		e.capability = cap
		return nil
	}
}

// WithWriter sets a separate capability for phrasing entity documents.
// Defaults to the main capability.
func WithWriter(writer capability.Analyzer) Option {
	return func(e *Engine) error {
		if writer == nil {
			return errors.NewValidationError("writer", nil, "writer must not be nil")
		}
		e.writer = writer
		return nil
	}
}

// WithLogger sets the logger shared by every component. Defaults to a
// no-op logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// defaultCapability returns the backend used when none is configured.
func defaultCapability() capability.Analyzer {
	return heuristic.New()
}
