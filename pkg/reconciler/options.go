package reconciler

import (
	"fmt"
	"math"

	"github.com/agentstation/parkmerge/pkg/authority"
	"github.com/agentstation/parkmerge/pkg/constants"
	"github.com/agentstation/parkmerge/pkg/errors"
	"github.com/agentstation/parkmerge/pkg/records"
	"github.com/agentstation/parkmerge/pkg/scorer"
)

// options configures a reconciler.
type options struct {
	tolerance   float64
	threshold   float64
	weights     scorer.Weights
	workers     int
	sourceA     records.Source
	sourceB     records.Source
	strategy    Strategy
	authorities authority.Authority
	tracking    bool
}

func defaultOptions() *options {
	authorities := authority.New()
	a, b := records.DefaultSources()
	return &options{
		tolerance:   constants.DefaultCoordTolerance,
		threshold:   constants.DefaultMatchThreshold,
		weights:     scorer.DefaultWeights(),
		workers:     constants.DefaultWorkers,
		sourceA:     a,
		sourceB:     b,
		strategy:    NewAuthorityStrategy(authorities),
		authorities: authorities,
		tracking:    true,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (options *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithTolerance sets the per-axis coordinate tolerance in degrees.
func WithTolerance(tolerance float64) Option {
	return func(r *options) error {
		if tolerance < 0 || math.IsNaN(tolerance) || math.IsInf(tolerance, 0) {
			return &errors.ValidationError{
				Field:   "tolerance",
				Value:   tolerance,
				Message: "must be a finite, non-negative number of degrees",
			}
		}
		r.tolerance = tolerance
		return nil
	}
}

// WithThreshold sets the inclusive match acceptance threshold.
func WithThreshold(threshold float64) Option {
	return func(r *options) error {
		if threshold <= 0 || threshold > 1 || math.IsNaN(threshold) {
			return &errors.ValidationError{
				Field:   "threshold",
				Value:   threshold,
				Message: "must be in (0, 1]",
			}
		}
		r.threshold = threshold
		return nil
	}
}

// WithWeights sets the attribute weights used by the scorer.
func WithWeights(weights scorer.Weights) Option {
	return func(r *options) error {
		if err := weights.Validate(); err != nil {
			return err
		}
		r.weights = weights
		return nil
	}
}

// WithWorkers bounds the goroutines that fill the score matrix.
func WithWorkers(workers int) Option {
	return func(r *options) error {
		if workers < 1 {
			return &errors.ValidationError{
				Field:   "workers",
				Value:   workers,
				Message: "must be at least 1",
			}
		}
		r.workers = workers
		return nil
	}
}

// WithSources sets the identity and display names of both sources.
func WithSources(a, b records.Source) Option {
	return func(r *options) error {
		for _, src := range []struct {
			field string
			s     records.Source
		}{{"sources.a", a}, {"sources.b", b}} {
			if src.s.Name == "" {
				return &errors.ValidationError{
					Field:   src.field,
					Value:   src.s,
					Message: "name cannot be empty",
				}
			}
		}
		if a.Name == b.Name {
			return &errors.ValidationError{
				Field:   "sources",
				Value:   a.Name,
				Message: fmt.Sprintf("sources must have distinct names, both are %q", a.Name),
			}
		}
		if a.ID == "" {
			a.ID = constants.SourceAID
		}
		if b.ID == "" {
			b.ID = constants.SourceBID
		}
		r.sourceA, r.sourceB = a, b
		return nil
	}
}

// WithStrategy sets the field selection strategy.
func WithStrategy(strategy Strategy) Option {
	return func(r *options) error {
		if strategy == nil {
			return &errors.ValidationError{
				Field:   "strategy",
				Message: "cannot be nil",
			}
		}
		r.strategy = strategy
		return nil
	}
}

// WithAuthority sets the field authorities and switches to the authority strategy.
func WithAuthority(authorities authority.Authority) Option {
	return func(r *options) error {
		if authorities == nil {
			return &errors.ValidationError{
				Field:   "authorities",
				Message: "cannot be nil",
			}
		}
		r.authorities = authorities
		r.strategy = NewAuthorityStrategy(authorities)
		return nil
	}
}

// WithProvenance enables field-level tracking.
func WithProvenance(enabled bool) Option {
	return func(r *options) error {
		r.tracking = enabled
		return nil
	}
}
