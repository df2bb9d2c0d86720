package reconciler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agentstation/parkmerge/internal/keywords"
	"github.com/agentstation/parkmerge/pkg/constants"
	"github.com/agentstation/parkmerge/pkg/normalize"
	"github.com/agentstation/parkmerge/pkg/provenance"
	"github.com/agentstation/parkmerge/pkg/records"
)

// Merger builds canonical records from matched pairs and lone records.
type Merger interface {
	// Merge combines a matched pair. Score, confidence and input indexes
	// are left for the caller; IndexA and IndexB are -1.
	Merge(a, b records.Record) records.Merged

	// Single wraps a record that found no partner on the other side.
	Single(r records.Record, side records.Side) records.Merged
}

// pickedFields take one side's value whole, in strategy order.
var pickedFields = []records.Field{
	records.FieldName,
	records.FieldCoordinates,
	records.FieldAddress,
	records.FieldPhone,
	records.FieldWebsite,
	records.FieldCategory,
	records.FieldParkingName,
	records.FieldURL,
	records.FieldPrices,
	records.FieldHours,
	records.FieldDescription,
}

// choice is the provenance of one output field.
type choice struct {
	field records.Field
	prov  provenance.Provenance
}

// merger is the default Merger.
type merger struct {
	strategy Strategy
	sources  map[records.Side]records.Source
}

// NewMerger returns a Merger that picks fields with strategy and labels
// tariffs and notes with the source names.
func NewMerger(strategy Strategy, a, b records.Source) Merger {
	return newMerger(strategy, a, b)
}

func newMerger(strategy Strategy, a, b records.Source) *merger {
	return &merger{
		strategy: strategy,
		sources:  map[records.Side]records.Source{records.SideA: a, records.SideB: b},
	}
}

// Merge combines a matched pair.
func (m *merger) Merge(a, b records.Record) records.Merged {
	out, _ := m.merge(a, b)
	return out
}

// Single wraps a record that found no partner.
func (m *merger) Single(r records.Record, side records.Side) records.Merged {
	out, _ := m.single(r, side)
	return out
}

func (m *merger) merge(a, b records.Record) (records.Merged, []choice) {
	out := records.Merged{
		Provenance: records.ProvenanceMatched,
		IndexA:     -1,
		IndexB:     -1,
		SummaryA:   records.Summary(a),
		SummaryB:   records.Summary(b),
	}
	var choices []choice

	for _, f := range pickedFields {
		values := map[records.Side]string{records.SideA: a.Get(f), records.SideB: b.Get(f)}
		v, side, reason := m.strategy.ResolveConflict(f, values)
		if side == "" {
			continue
		}
		out.Set(f, v)
		choices = append(choices, m.picked(f, v, side, reason, values[side.Other()]))
	}

	choices = append(choices, m.parkingType(&out.Record, a, b)...)

	if v := m.tariffs(a, b); v != "" {
		out.Tariffs = v
		choices = append(choices, combined(records.FieldTariffs, v, "union of both sources"))
	}

	reductions := []struct {
		field  records.Field
		reduce func(a, b string) (string, bool)
		reason string
	}{
		{records.FieldCapacity, maxCapacity, "maximum of both capacities"},
		{records.FieldRating, meanRating, "mean of both ratings"},
		{records.FieldReviewCount, sumReviews, "sum of both review counts"},
	}
	for _, r := range reductions {
		va, vb := a.Get(r.field), b.Get(r.field)
		v, both := r.reduce(va, vb)
		if v == "" {
			continue
		}
		out.Set(r.field, v)
		switch {
		case both:
			choices = append(choices, combined(r.field, v, r.reason))
		case hasNumber(va):
			choices = append(choices, m.picked(r.field, v, records.SideA, "only side with a value", ""))
		default:
			choices = append(choices, m.picked(r.field, v, records.SideB, "only side with a value", ""))
		}
	}

	out.Conflicts = FindConflicts(a, b)
	if len(out.Conflicts) > 0 {
		out.ReviewRequired = true
		out.Note = constants.ReviewRequiredNote
	}
	return out, choices
}

// parkingType sets the parking type and access of out. A guarded descriptor
// on exactly one side wins, and that side also supplies the access value.
// Otherwise side A's type is kept unless it is missing or the unknown
// sentinel, and access is picked like any other field.
func (m *merger) parkingType(out *records.Record, a, b records.Record) []choice {
	guardedA := keywords.Guarded.Match(a.ParkingType)
	guardedB := keywords.Guarded.Match(b.ParkingType)
	byside := map[records.Side]records.Record{records.SideA: a, records.SideB: b}

	var choices []choice
	accessPicked := false

	if guardedA != guardedB {
		side := records.SideA
		if guardedB {
			side = records.SideB
		}
		chosen, other := byside[side], byside[side.Other()]
		out.ParkingType = chosen.ParkingType
		choices = append(choices, m.picked(records.FieldParkingType, chosen.ParkingType, side, "guarded descriptor", other.ParkingType))
		if chosen.Access != "" {
			out.Access = chosen.Access
			choices = append(choices, m.picked(records.FieldAccess, chosen.Access, side, "follows guarded parking type", other.Access))
			accessPicked = true
		}
	} else if keywords.IsUnknown(a.ParkingType) {
		out.ParkingType = b.ParkingType
		if b.ParkingType != "" {
			choices = append(choices, m.picked(records.FieldParkingType, b.ParkingType, records.SideB, "side A type unknown", a.ParkingType))
		}
	} else {
		order := []records.Side{records.SideA, records.SideB}
		if !keywords.Known(a.ParkingType) {
			order = []records.Side{records.SideB, records.SideA}
		}
		for _, side := range order {
			if v := byside[side].ParkingType; v != "" {
				out.ParkingType = v
				reason := "side A preferred"
				if side == records.SideB {
					reason = "side A type missing"
				}
				choices = append(choices, m.picked(records.FieldParkingType, v, side, reason, byside[side.Other()].ParkingType))
				break
			}
		}
	}

	if !accessPicked {
		values := map[records.Side]string{records.SideA: a.Access, records.SideB: b.Access}
		if v, side, reason := m.strategy.ResolveConflict(records.FieldAccess, values); side != "" {
			out.Access = v
			choices = append(choices, m.picked(records.FieldAccess, v, side, reason, values[side.Other()]))
		}
	}
	return choices
}

// tariffs joins both sides' tariff text, each prefixed with its source name.
func (m *merger) tariffs(a, b records.Record) string {
	var parts []string
	for _, side := range []records.Side{records.SideA, records.SideB} {
		t := a.Tariffs
		if side == records.SideB {
			t = b.Tariffs
		}
		if t != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", m.sources[side].Name, t))
		}
	}
	return strings.Join(parts, constants.TariffSeparator)
}

func (m *merger) single(r records.Record, side records.Side) (records.Merged, []choice) {
	rec := r
	rec.Extra = nil
	out := records.Merged{
		Record:     rec,
		Provenance: records.OnlyFrom(side),
		IndexA:     -1,
		IndexB:     -1,
		Note:       fmt.Sprintf("%s %s", constants.NoOtherSourceNote, m.sources[side.Other()].Name),
	}
	if side == records.SideB {
		out.SummaryB = records.Summary(r)
	} else {
		out.SummaryA = records.Summary(r)
	}

	var choices []choice
	for _, f := range records.Fields {
		if v := rec.Get(f); v != "" {
			choices = append(choices, m.picked(f, v, side, "single source", ""))
		}
	}
	return out, choices
}

func (m *merger) picked(field records.Field, value string, side records.Side, reason, rejected string) choice {
	if rejected == value {
		rejected = ""
	}
	return choice{
		field: field,
		prov: provenance.Provenance{
			Side:     side,
			Source:   m.sources[side].Name,
			Value:    value,
			Reason:   reason,
			Rejected: rejected,
		},
	}
}

func combined(field records.Field, value, reason string) choice {
	return choice{
		field: field,
		prov: provenance.Provenance{
			Source: provenance.Combined,
			Value:  value,
			Reason: reason,
		},
	}
}

// maxCapacity keeps the larger first integer. both reports whether both
// sides contributed.
func maxCapacity(a, b string) (string, bool) {
	ca, okA := normalize.FirstInt(a)
	cb, okB := normalize.FirstInt(b)
	switch {
	case okA && okB:
		return strconv.Itoa(max(ca, cb)), true
	case okA:
		return strconv.Itoa(ca), false
	case okB:
		return strconv.Itoa(cb), false
	}
	return "", false
}

// meanRating averages the first decimals to one place. A lone rating is
// kept at its own precision.
func meanRating(a, b string) (string, bool) {
	ra, okA := normalize.FirstFloat(a)
	rb, okB := normalize.FirstFloat(b)
	switch {
	case okA && okB:
		return fmt.Sprintf(constants.RatingMeanFormat, (ra+rb)/2), true
	case okA:
		return formatRating(ra), false
	case okB:
		return formatRating(rb), false
	}
	return "", false
}

// sumReviews adds the first integers; a zero total renders empty.
func sumReviews(a, b string) (string, bool) {
	ca, okA := normalize.FirstInt(a)
	cb, okB := normalize.FirstInt(b)
	total := ca + cb
	if total <= 0 {
		return "", false
	}
	return strconv.Itoa(total), okA && okB
}

// formatRating renders f in its shortest form with at least one fractional digit.
func formatRating(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func hasNumber(s string) bool {
	_, ok := normalize.FirstInt(s)
	return ok
}
