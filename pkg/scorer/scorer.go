// Package scorer combines the attribute comparators into one weighted
// confidence score for a pair of listings.
//
// The score is the weighted average over the attributes that were
// comparable on both sides. A pair with only a name comparison is divided by
// the name weight alone, so missing attributes are not counted as evidence
// against a match. A pair with nothing comparable scores 0.
package scorer

import (
	"github.com/agentstation/parkmerge/pkg/compare"
	"github.com/agentstation/parkmerge/pkg/constants"
	"github.com/agentstation/parkmerge/pkg/errors"
	"github.com/agentstation/parkmerge/pkg/records"
)

// Attribute names a scored attribute.
type Attribute string

// Scored attributes in evaluation order.
const (
	AttrCoordinates Attribute = "coordinates"
	AttrName        Attribute = "name"
	AttrAddress     Attribute = "address"
	AttrPhone       Attribute = "phone"
)

// Weights holds the importance of each attribute.
type Weights struct {
	Coordinates float64 `json:"coordinates" yaml:"coordinates"`
	Name        float64 `json:"name" yaml:"name"`
	Address     float64 `json:"address" yaml:"address"`
	Phone       float64 `json:"phone" yaml:"phone"`
}

// DefaultWeights returns coordinates 3.0, name 2.0, phone 2.0, address 1.5.
func DefaultWeights() Weights {
	return Weights{
		Coordinates: constants.WeightCoordinates,
		Name:        constants.WeightName,
		Address:     constants.WeightAddress,
		Phone:       constants.WeightPhone,
	}
}

// Validate checks that no weight is negative and at least one is positive.
func (w Weights) Validate() error {
	all := []struct {
		attr Attribute
		v    float64
	}{
		{AttrCoordinates, w.Coordinates},
		{AttrName, w.Name},
		{AttrAddress, w.Address},
		{AttrPhone, w.Phone},
	}
	var sum float64
	for _, a := range all {
		if a.v < 0 {
			return &errors.ValidationError{
				Field:   "weights." + string(a.attr),
				Value:   a.v,
				Message: "weight cannot be negative",
			}
		}
		sum += a.v
	}
	if sum == 0 {
		return &errors.ValidationError{
			Field:   "weights",
			Value:   w,
			Message: "at least one weight must be positive",
		}
	}
	return nil
}

// Part is one attribute's contribution to a score.
type Part struct {
	Attribute Attribute `json:"attribute" yaml:"attribute"`
	Score     float64   `json:"score" yaml:"score"`
	Weight    float64   `json:"weight" yaml:"weight"`
}

// Breakdown explains a score.
type Breakdown struct {
	Parts []Part  `json:"parts" yaml:"parts"`
	Score float64 `json:"score" yaml:"score"`

	// DistanceMetres is the haversine distance between the two points; nil
	// when either coordinate does not parse.
	DistanceMetres *float64 `json:"distance_metres,omitempty" yaml:"distance_metres,omitempty"`
}

// Comparable reports whether any attribute contributed.
func (b Breakdown) Comparable() bool {
	return len(b.Parts) > 0
}

// Scorer scores pairs of records. A Scorer is immutable and safe for concurrent use.
type Scorer struct {
	tolerance float64
	weights   Weights
}

// New returns a Scorer with the given coordinate tolerance in degrees and weights.
func New(tolerance float64, weights Weights) *Scorer {
	return &Scorer{tolerance: tolerance, weights: weights}
}

// Default returns a Scorer with the default tolerance and weights.
func Default() *Scorer {
	return New(constants.DefaultCoordTolerance, DefaultWeights())
}

// Tolerance returns the coordinate tolerance in degrees.
func (s *Scorer) Tolerance() float64 {
	return s.tolerance
}

// Weights returns the attribute weights.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score returns the weighted confidence that a and b describe the same facility.
func (s *Scorer) Score(a, b records.Record) float64 {
	return s.parts(a, b, nil)
}

// Explain returns the score together with each attribute's contribution.
func (s *Scorer) Explain(a, b records.Record) Breakdown {
	var parts []Part
	bd := Breakdown{Score: s.parts(a, b, &parts)}
	bd.Parts = parts
	if d, ok := compare.Distance(a.Coordinates, b.Coordinates); ok {
		bd.DistanceMetres = &d
	}
	return bd
}

// parts evaluates every comparator once. When out is non-nil the included
// contributions are appended to it.
func (s *Scorer) parts(a, b records.Record, out *[]Part) float64 {
	var weighted, total float64
	add := func(attr Attribute, score float64, ok bool, weight float64) {
		if !ok || weight == 0 {
			return
		}
		weighted += score * weight
		total += weight
		if out != nil {
			*out = append(*out, Part{Attribute: attr, Score: score, Weight: weight})
		}
	}

	score, ok := compare.Coordinates(a.Coordinates, b.Coordinates, s.tolerance)
	add(AttrCoordinates, score, ok, s.weights.Coordinates)

	score, ok = compare.Text(a.Name, b.Name)
	add(AttrName, score, ok, s.weights.Name)

	score, ok = compare.Text(a.Address, b.Address)
	add(AttrAddress, score, ok, s.weights.Address)

	score, ok = compare.Phone(a.Phone, b.Phone)
	add(AttrPhone, score, ok, s.weights.Phone)

	if total == 0 {
		return 0
	}
	return weighted / total
}
