// Package reconciler resolves parking listings from two sources into one
// canonical list. It scores every cross-source pair, greedily pairs each
// source-A record with its best source-B record, merges the pairs field by
// field, flags semantic conflicts and passes unmatched records through with
// their provenance. The run never fails: malformed values only drop out of
// scoring and merging.
package reconciler

import (
	"context"
	"fmt"

	"github.com/agentstation/parkmerge/pkg/constants"
	"github.com/agentstation/parkmerge/pkg/logging"
	"github.com/agentstation/parkmerge/pkg/match"
	"github.com/agentstation/parkmerge/pkg/provenance"
	"github.com/agentstation/parkmerge/pkg/records"
	"github.com/agentstation/parkmerge/pkg/scorer"
)

// Reconciler is the main interface for merging listings from two sources.
type Reconciler interface {
	// ResolveAndMerge matches a against b and returns every input record
	// exactly once: matched pairs in A order, then A-only records in A
	// order, then B-only records in B order. Either list empty yields an
	// empty result with a warning.
	ResolveAndMerge(ctx context.Context, a, b []records.Record) *Result

	// MergeUnmatchedOnly wraps the records of one side as standalone
	// output, for runs where the other source has no data.
	MergeUnmatchedOnly(ctx context.Context, recs []records.Record, side records.Side) *Result

	// Explain scores one pair attribute by attribute.
	Explain(a, b records.Record) scorer.Breakdown

	// Sources returns the configured sources, A then B.
	Sources() (records.Source, records.Source)
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	scorer   *scorer.Scorer
	matcher  *match.Matcher
	merger   *merger
	strategy Strategy
	sourceA  records.Source
	sourceB  records.Source
	tracking bool
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}

	s := scorer.New(options.tolerance, options.weights)
	r := &reconciler{
		scorer:   s,
		matcher:  match.New(s, options.threshold, options.workers),
		merger:   newMerger(options.strategy, options.sourceA, options.sourceB),
		strategy: options.strategy,
		sourceA:  options.sourceA,
		sourceB:  options.sourceB,
		tracking: options.tracking,
	}
	return r, nil
}

// Sources returns the configured sources.
func (r *reconciler) Sources() (records.Source, records.Source) {
	return r.sourceA, r.sourceB
}

// Explain scores one pair attribute by attribute.
func (r *reconciler) Explain(a, b records.Record) scorer.Breakdown {
	return r.scorer.Explain(a, b)
}

// ResolveAndMerge performs the full match and merge run.
func (r *reconciler) ResolveAndMerge(ctx context.Context, a, b []records.Record) *Result {
	result := r.newResult()
	ctx = logging.WithOperation(logging.WithRun(ctx, result.RunID), "resolve_and_merge")
	logger := logging.FromContext(ctx)

	result.Metadata.Stats.SourceARecords = len(a)
	result.Metadata.Stats.SourceBRecords = len(b)

	if len(a) == 0 || len(b) == 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"nothing to merge: %s has %d records, %s has %d",
			r.sourceA.Name, len(a), r.sourceB.Name, len(b)))
		result.Finalize()
		logger.Info().
			Int("source_a", len(a)).
			Int("source_b", len(b)).
			Msg("Nothing to merge")
		return result
	}

	// Step 1: Score every pair and keep the best candidate per A record
	result.Candidates = r.matcher.Match(ctx, a, b)

	// Step 2: First claim on each B record wins
	assignment := match.Assign(result.Candidates, len(a), len(b))
	result.Superseded = assignment.Superseded
	for _, c := range assignment.Superseded {
		logger.Debug().
			Int("index_a", c.IndexA).
			Int("index_b", c.IndexB).
			Float64("score", c.Score).
			Msg("Candidate superseded, B record already claimed")
	}

	// Step 3: Merge pairs, then pass the leftovers through
	tracker := provenance.NewTracker(r.tracking)
	for _, p := range assignment.Pairs {
		merged, choices := r.merger.merge(a[p.IndexA], b[p.IndexB])
		merged.IndexA, merged.IndexB = p.IndexA, p.IndexB
		merged.Score = p.Score
		merged.Confidence = fmt.Sprintf(constants.ConfidenceFormat, p.Score)
		result.emit(tracker, merged, choices)
	}
	for i, used := range assignment.UsedA {
		if !used {
			r.emitSingle(result, tracker, a[i], i, records.SideA)
		}
	}
	for j, used := range assignment.UsedB {
		if !used {
			r.emitSingle(result, tracker, b[j], j, records.SideB)
		}
	}

	result.Provenance = tracker.Map()
	result.Finalize()

	stats := result.Metadata.Stats
	logger.Info().
		Int("source_a", stats.SourceARecords).
		Int("source_b", stats.SourceBRecords).
		Int("candidates", stats.Candidates).
		Int("matched", stats.Matched).
		Int("source_a_only", stats.SourceAOnly).
		Int("source_b_only", stats.SourceBOnly).
		Int("review_required", stats.ReviewRequired).
		Dur("duration", result.Metadata.Duration).
		Msg("Merge completed")
	return result
}

// MergeUnmatchedOnly wraps the records of one side as standalone output.
func (r *reconciler) MergeUnmatchedOnly(ctx context.Context, recs []records.Record, side records.Side) *Result {
	result := r.newResult()
	ctx = logging.WithOperation(logging.WithRun(ctx, result.RunID), "merge_unmatched_only")

	if side != records.SideA && side != records.SideB {
		result.Warnings = append(result.Warnings, fmt.Sprintf("unknown side %q, treating records as side a", side))
		side = records.SideA
	}
	source := r.sourceA
	if side == records.SideB {
		source = r.sourceB
		result.Metadata.Stats.SourceBRecords = len(recs)
	} else {
		result.Metadata.Stats.SourceARecords = len(recs)
	}
	logger := logging.FromContext(logging.WithSource(ctx, source.Name))

	tracker := provenance.NewTracker(r.tracking)
	for i, rec := range recs {
		r.emitSingle(result, tracker, rec, i, side)
	}

	result.Provenance = tracker.Map()
	result.Finalize()

	logger.Info().
		Str("side", side.String()).
		Int("records", len(result.Records)).
		Msg("Single-source merge completed")
	return result
}

func (r *reconciler) newResult() *Result {
	result := NewResult()
	result.Metadata.Sources = []records.Source{r.sourceA, r.sourceB}
	result.Metadata.Strategy = r.strategy.Type()
	result.Metadata.Threshold = r.matcher.Threshold()
	return result
}

func (r *reconciler) emitSingle(result *Result, tracker provenance.Tracker, rec records.Record, index int, side records.Side) {
	merged, choices := r.merger.single(rec, side)
	if side == records.SideB {
		merged.IndexB = index
	} else {
		merged.IndexA = index
	}
	result.emit(tracker, merged, choices)
}

// emit appends a merged record and tracks its field provenance under its output index.
func (r *Result) emit(tracker provenance.Tracker, merged records.Merged, choices []choice) {
	index := len(r.Records)
	r.Records = append(r.Records, merged)
	for _, c := range choices {
		tracker.Track(index, c.field, c.prov)
	}
}
