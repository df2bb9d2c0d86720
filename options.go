package parkmerge

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/parkmerge/pkg/errors"
	"github.com/agentstation/parkmerge/pkg/reconciler"
)

// config holds Engine settings
type config struct {
	reconcilerOptions []reconciler.Option
	logger            *zerolog.Logger
}

func defaultConfig() *config {
	return &config{}
}

// Option is a function that configures an Engine
type Option func(*config) error

// WithReconcilerOptions passes options through to the reconciler. Options
// accumulate across calls; later ones win.
func WithReconcilerOptions(opts ...reconciler.Option) Option {
	return func(c *config) error {
		c.reconcilerOptions = append(c.reconcilerOptions, opts...)
		return nil
	}
}

// WithLogger sets the logger every run of the Engine logs to
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			return &errors.ValidationError{
				Field:   "logger",
				Message: "cannot be nil",
			}
		}
		c.logger = logger
		return nil
	}
}
