package records

import (
	"fmt"
	"strings"
)

// Provenance tells whether a merged record came from a cross-source match
// or from one source alone.
type Provenance string

const (
	ProvenanceMatched     Provenance = "matched"
	ProvenanceSourceAOnly Provenance = "sourceA-only"
	ProvenanceSourceBOnly Provenance = "sourceB-only"
)

// OnlyFrom returns the single-source provenance for a side.
func OnlyFrom(side Side) Provenance {
	if side == SideB {
		return ProvenanceSourceBOnly
	}
	return ProvenanceSourceAOnly
}

// ConflictKind classifies a contradiction between two matched records.
type ConflictKind string

const (
	ConflictPaidFree ConflictKind = "paid-free"
	ConflictAccess   ConflictKind = "access"
	ConflictPrice    ConflictKind = "price"
)

// Conflict is one semantic contradiction between the two sides of a match.
type Conflict struct {
	Kind    ConflictKind `json:"kind" yaml:"kind"`
	Field   Field        `json:"field" yaml:"field"`
	ValueA  string       `json:"value_a" yaml:"value_a"`
	ValueB  string       `json:"value_b" yaml:"value_b"`
	Message string       `json:"message" yaml:"message"`
}

// String returns the human-readable description.
func (c Conflict) String() string {
	return c.Message
}

// Merged is one canonical output record.
type Merged struct {
	// Record holds the canonical display fields chosen or combined from the two sides.
	Record `yaml:",inline"`

	// Confidence is the match score rendered with two decimals, empty when unmatched.
	Confidence string     `json:"confidence" yaml:"confidence"`
	Score      float64    `json:"score" yaml:"score"`
	Conflicts  []Conflict `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`

	// ReviewRequired is advisory: the match stands even when conflicts were found.
	ReviewRequired bool       `json:"review_required" yaml:"review_required"`
	Note           string     `json:"note,omitempty" yaml:"note,omitempty"`
	Provenance     Provenance `json:"provenance" yaml:"provenance"`

	// IndexA and IndexB locate the inputs; -1 when a side is absent.
	IndexA int `json:"index_a" yaml:"index_a"`
	IndexB int `json:"index_b" yaml:"index_b"`

	// SummaryA and SummaryB list the labelled non-empty attributes each source reported.
	SummaryA string `json:"summary_a,omitempty" yaml:"summary_a,omitempty"`
	SummaryB string `json:"summary_b,omitempty" yaml:"summary_b,omitempty"`
}

// Matched reports whether the record came from a cross-source match.
func (m Merged) Matched() bool {
	return m.Provenance == ProvenanceMatched
}

// ConflictText joins the conflict messages with "; ".
func (m Merged) ConflictText() string {
	msgs := make([]string, len(m.Conflicts))
	for i, c := range m.Conflicts {
		msgs[i] = c.Message
	}
	return strings.Join(msgs, "; ")
}

// Index returns the input index for a side.
func (m Merged) Index(side Side) int {
	if side == SideB {
		return m.IndexB
	}
	return m.IndexA
}

// summaryLabels prefixes attributes in a source summary. Unlabelled fields
// are listed bare, as the source shows them.
var summaryLabels = []struct {
	field Field
	label string
}{
	{FieldName, ""},
	{FieldURL, ""},
	{FieldCategory, ""},
	{FieldAddress, ""},
	{FieldPhone, "Phone"},
	{FieldParkingType, "Type"},
	{FieldTariffs, "Tariffs"},
	{FieldRating, "Rating"},
	{FieldReviewCount, "Reviews"},
	{FieldHours, "Hours"},
	{FieldCapacity, "Capacity"},
}

// Summary renders the non-empty attributes of r one per line.
func Summary(r Record) string {
	var lines []string
	for _, sl := range summaryLabels {
		v := r.Get(sl.field)
		if v == "" {
			continue
		}
		if sl.label == "" {
			lines = append(lines, v)
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", sl.label, v))
	}
	return strings.Join(lines, "\n")
}
