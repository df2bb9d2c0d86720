// Package parkmerge merges parking listings scraped from two map services
// into one deduplicated list.
//
// Records from source A and source B are scored pairwise on coordinates,
// name, address and phone, paired greedily, merged field by field and
// checked for contradictions such as paid versus free. Records without a
// partner are kept with their provenance, so every input appears in the
// output exactly once.
//
// Most callers need only the package-level functions:
//
//	merged := parkmerge.ResolveAndMerge(yandex, twogis)
//
// An Engine adds configuration, the single-source fallback and event hooks.
package parkmerge

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentstation/parkmerge/pkg/logging"
	"github.com/agentstation/parkmerge/pkg/reconciler"
	"github.com/agentstation/parkmerge/pkg/records"
)

// Engine runs merges with one configuration and notifies registered hooks.
type Engine interface {
	// ResolveAndMerge matches a against b and merges the result
	ResolveAndMerge(ctx context.Context, a, b []records.Record) *reconciler.Result

	// MergeUnmatchedOnly wraps the records of one side as standalone output
	MergeUnmatchedOnly(ctx context.Context, recs []records.Record, side records.Side) *reconciler.Result

	// Merge resolves both sides when both have data and falls back to a
	// single-source merge when only one does
	Merge(ctx context.Context, a, b []records.Record) *reconciler.Result

	// Last returns the result of the most recent run, or nil
	Last() *reconciler.Result

	// Reconciler returns the underlying reconciler
	Reconciler() reconciler.Reconciler

	// OnMatched registers a callback for matched records
	OnMatched(MatchedHook)

	// OnUnmatched registers a callback for single-source records
	OnUnmatched(UnmatchedHook)

	// OnConflict registers a callback for records with conflicts
	OnConflict(ConflictHook)
}

// engine is the internal implementation of the Engine interface
type engine struct {
	mu         sync.RWMutex
	config     *config
	reconciler reconciler.Reconciler
	last       *reconciler.Result

	// Event hooks
	hooks *hooks
}

// New creates a new Engine with the given options
func New(opts ...Option) (Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("applying options: %w", err)
		}
	}

	r, err := reconciler.New(cfg.reconcilerOptions...)
	if err != nil {
		return nil, fmt.Errorf("creating reconciler: %w", err)
	}

	return &engine{
		config:     cfg,
		reconciler: r,
		hooks:      newHooks(),
	}, nil
}

// Reconciler returns the underlying reconciler
func (e *engine) Reconciler() reconciler.Reconciler {
	return e.reconciler
}

// ResolveAndMerge matches a against b and merges the result
func (e *engine) ResolveAndMerge(ctx context.Context, a, b []records.Record) *reconciler.Result {
	return e.finish(e.reconciler.ResolveAndMerge(e.context(ctx), a, b))
}

// MergeUnmatchedOnly wraps the records of one side as standalone output
func (e *engine) MergeUnmatchedOnly(ctx context.Context, recs []records.Record, side records.Side) *reconciler.Result {
	return e.finish(e.reconciler.MergeUnmatchedOnly(e.context(ctx), recs, side))
}

// Merge picks the merge mode from which sides have data
func (e *engine) Merge(ctx context.Context, a, b []records.Record) *reconciler.Result {
	ctx = e.context(ctx)
	srcA, srcB := e.reconciler.Sources()

	var result *reconciler.Result
	switch {
	case len(a) > 0 && len(b) > 0:
		result = e.reconciler.ResolveAndMerge(ctx, a, b)
	case len(a) > 0:
		result = e.reconciler.MergeUnmatchedOnly(ctx, a, records.SideA)
		result.Warnings = append(result.Warnings, fmt.Sprintf("no records from %s, merged %s alone", srcB.Name, srcA.Name))
	case len(b) > 0:
		result = e.reconciler.MergeUnmatchedOnly(ctx, b, records.SideB)
		result.Warnings = append(result.Warnings, fmt.Sprintf("no records from %s, merged %s alone", srcA.Name, srcB.Name))
	default:
		result = e.reconciler.ResolveAndMerge(ctx, a, b)
	}
	return e.finish(result)
}

// Last returns the result of the most recent run
func (e *engine) Last() *reconciler.Result {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.last
}

// OnMatched registers a callback for matched records
func (e *engine) OnMatched(fn MatchedHook) {
	e.hooks.OnMatched(fn)
}

// OnUnmatched registers a callback for single-source records
func (e *engine) OnUnmatched(fn UnmatchedHook) {
	e.hooks.OnUnmatched(fn)
}

// OnConflict registers a callback for records with conflicts
func (e *engine) OnConflict(fn ConflictHook) {
	e.hooks.OnConflict(fn)
}

func (e *engine) context(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if e.config.logger != nil {
		ctx = logging.WithLogger(ctx, e.config.logger)
	}
	return ctx
}

// finish stores the result and triggers hooks in output order
func (e *engine) finish(result *reconciler.Result) *reconciler.Result {
	e.mu.Lock()
	e.last = result
	e.mu.Unlock()

	e.hooks.trigger(result)
	return result
}

var defaultReconciler = sync.OnceValue(func() reconciler.Reconciler {
	r, err := reconciler.New()
	if err != nil {
		panic(fmt.Sprintf("parkmerge: default reconciler: %v", err))
	}
	return r
})

// ResolveAndMerge merges two sources with the default configuration and
// returns the canonical records. Either list empty yields no records.
func ResolveAndMerge(a, b []records.Record) []records.Merged {
	return defaultReconciler().ResolveAndMerge(context.Background(), a, b).Records
}

// MergeUnmatchedOnly wraps one source's records with the default configuration.
func MergeUnmatchedOnly(recs []records.Record, side records.Side) []records.Merged {
	return defaultReconciler().MergeUnmatchedOnly(context.Background(), recs, side).Records
}
