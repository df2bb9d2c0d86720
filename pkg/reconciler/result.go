package reconciler

import (
	"fmt"
	"time"

	"github.com/agentstation/utc"
	"github.com/google/uuid"

	"github.com/agentstation/parkmerge/pkg/match"
	"github.com/agentstation/parkmerge/pkg/provenance"
	"github.com/agentstation/parkmerge/pkg/records"
)

// Result represents the outcome of a merge run.
type Result struct {
	// RunID identifies the run in logs and exports
	RunID string `json:"run_id" yaml:"run_id"`

	// Core data, in output order
	Records []records.Merged `json:"records" yaml:"records"`

	// Candidates are the accepted best pairs before first-claim bookkeeping
	Candidates []match.Candidate `json:"candidates,omitempty" yaml:"candidates,omitempty"`

	// Superseded are candidates whose B record was already claimed
	Superseded []match.Candidate `json:"superseded,omitempty" yaml:"superseded,omitempty"`

	// Metadata
	Metadata ResultMetadata `json:"metadata" yaml:"metadata"`

	// Provenance tracking, keyed by output index and field
	Provenance provenance.Map `json:"provenance,omitempty" yaml:"provenance,omitempty"`

	// Issues that did not stop the run
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// ResultMetadata contains metadata about the merge run.
type ResultMetadata struct {
	// StartTime when the run started
	StartTime utc.Time `json:"start_time" yaml:"start_time"`

	// EndTime when the run completed
	EndTime utc.Time `json:"end_time" yaml:"end_time"`

	// Duration of the run
	Duration time.Duration `json:"duration" yaml:"duration"`

	// Sources that were merged
	Sources []records.Source `json:"sources" yaml:"sources"`

	// Strategy used to pick field values
	Strategy StrategyType `json:"strategy" yaml:"strategy"`

	// Threshold used to accept candidates
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// Statistics about the run
	Stats ResultStatistics `json:"stats" yaml:"stats"`
}

// ResultStatistics contains statistics about the merge run.
type ResultStatistics struct {
	SourceARecords int   `json:"source_a_records" yaml:"source_a_records"`
	SourceBRecords int   `json:"source_b_records" yaml:"source_b_records"`
	Candidates     int   `json:"candidates" yaml:"candidates"`
	Superseded     int   `json:"superseded" yaml:"superseded"`
	Matched        int   `json:"matched" yaml:"matched"`
	SourceAOnly    int   `json:"source_a_only" yaml:"source_a_only"`
	SourceBOnly    int   `json:"source_b_only" yaml:"source_b_only"`
	Conflicts      int   `json:"conflicts" yaml:"conflicts"`
	ReviewRequired int   `json:"review_required" yaml:"review_required"`
	TotalTimeMs    int64 `json:"total_time_ms" yaml:"total_time_ms"`
}

// Inputs returns the number of input records the run consumed.
func (s ResultStatistics) Inputs() int {
	return s.SourceARecords + s.SourceBRecords
}

// Outputs returns the number of input records accounted for in the output.
// A matched record accounts for two inputs.
func (s ResultStatistics) Outputs() int {
	return 2*s.Matched + s.SourceAOnly + s.SourceBOnly
}

// IsEmpty returns true if the run produced no records.
func (r *Result) IsEmpty() bool {
	return len(r.Records) == 0
}

// HasWarnings returns true if there are warnings.
func (r *Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	s := r.Metadata.Stats
	if r.IsEmpty() {
		if r.HasWarnings() {
			return fmt.Sprintf("Merge produced no records (%s)", r.Warnings[0])
		}
		return "Merge produced no records"
	}
	return fmt.Sprintf(
		"Merged %d records: %d matched, %d only in %s, %d only in %s; %d need review",
		len(r.Records), s.Matched,
		s.SourceAOnly, r.sourceName(records.SideA),
		s.SourceBOnly, r.sourceName(records.SideB),
		s.ReviewRequired,
	)
}

// sourceName returns the display name of side. Sources lists A then B.
func (r *Result) sourceName(side records.Side) string {
	i := 0
	if side == records.SideB {
		i = 1
	}
	if i < len(r.Metadata.Sources) {
		return r.Metadata.Sources[i].Name
	}
	return side.String()
}

// NewResult creates a new result with defaults.
func NewResult() *Result {
	return &Result{
		RunID:      uuid.NewString(),
		Records:    []records.Merged{},
		Provenance: make(provenance.Map),
		Warnings:   []string{},
		Metadata: ResultMetadata{
			StartTime: utc.Now(),
			Sources:   []records.Source{},
		},
	}
}

// count fills the per-record statistics from Records.
func (r *Result) count() {
	s := &r.Metadata.Stats
	s.Matched, s.SourceAOnly, s.SourceBOnly, s.Conflicts, s.ReviewRequired = 0, 0, 0, 0, 0
	for _, rec := range r.Records {
		switch rec.Provenance {
		case records.ProvenanceMatched:
			s.Matched++
		case records.ProvenanceSourceAOnly:
			s.SourceAOnly++
		case records.ProvenanceSourceBOnly:
			s.SourceBOnly++
		}
		s.Conflicts += len(rec.Conflicts)
		if rec.ReviewRequired {
			s.ReviewRequired++
		}
	}
	s.Candidates = len(r.Candidates)
	s.Superseded = len(r.Superseded)
}

// Finalize calculates duration and marks completion.
func (r *Result) Finalize() {
	r.count()
	r.Metadata.EndTime = utc.Now()
	r.Metadata.Duration = r.Metadata.EndTime.Time.Sub(r.Metadata.StartTime.Time)
	r.Metadata.Stats.TotalTimeMs = r.Metadata.Duration.Milliseconds()
}
