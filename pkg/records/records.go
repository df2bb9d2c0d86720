// Package records defines the listing records exchanged between scrapers,
// the resolve-and-merge engine and report writers.
//
// A Record is one parking facility as a single source describes it. Every
// attribute is plain text; absence is the empty string. A Merged record is
// the canonical result of a match between two sources, or of a record that
// had no counterpart.
package records

import (
	"sort"
	"strings"

	"github.com/agentstation/parkmerge/pkg/constants"
	"github.com/agentstation/parkmerge/pkg/normalize"
)

// Side identifies which input list a record came from.
type Side string

const (
	SideA Side = "a"
	SideB Side = "b"
)

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// String returns the side as text.
func (s Side) String() string {
	return string(s)
}

// ParseSide accepts "a"/"b" and the source identifiers "sourceA"/"sourceB".
func ParseSide(s string) (Side, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a", strings.ToLower(constants.SourceAID):
		return SideA, true
	case "b", strings.ToLower(constants.SourceBID):
		return SideB, true
	}
	return "", false
}

// Source names one listing provider.
type Source struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// DefaultSources returns the default pair of listing providers.
func DefaultSources() (Source, Source) {
	return Source{ID: constants.SourceAID, Name: constants.DefaultSourceAName},
		Source{ID: constants.SourceBID, Name: constants.DefaultSourceBName}
}

// Field is the canonical key of a record attribute.
type Field string

// Record attributes.
const (
	FieldName        Field = "name"
	FieldCoordinates Field = "coordinates"
	FieldAddress     Field = "address"
	FieldPhone       Field = "phone"
	FieldWebsite     Field = "website"
	FieldCategory    Field = "category"
	FieldParkingName Field = "parking_name"
	FieldURL         Field = "url"
	FieldParkingType Field = "parking_type"
	FieldAccess      Field = "access"
	FieldTariffs     Field = "tariffs"
	FieldPrices      Field = "prices"
	FieldHours       Field = "hours"
	FieldCapacity    Field = "capacity"
	FieldRating      Field = "rating"
	FieldReviewCount Field = "review_count"
	FieldDescription Field = "description"
)

// Fields lists every known attribute in column order.
var Fields = []Field{
	FieldName, FieldCoordinates, FieldAddress, FieldPhone, FieldWebsite,
	FieldCategory, FieldParkingName, FieldURL, FieldParkingType, FieldAccess,
	FieldTariffs, FieldPrices, FieldHours, FieldCapacity, FieldRating,
	FieldReviewCount, FieldDescription,
}

// aliases maps input column headers onto canonical fields. Keys are lower-case.
var aliases = map[string]Field{
	"название объекта":  FieldName,
	"координаты":        FieldCoordinates,
	"адрес":             FieldAddress,
	"телефон":           FieldPhone,
	"сайт":              FieldWebsite,
	"тип объекта":       FieldCategory,
	"название парковки": FieldParkingName,
	"ссылка":            FieldURL,
	"ссылка на объект":  FieldURL,
	"тип парковки":      FieldParkingType,
	"доступ":            FieldAccess,
	"тарифы":            FieldTariffs,
	"цены":              FieldPrices,
	"время работы":      FieldHours,
	"вместимость":       FieldCapacity,
	"оценка":            FieldRating,
	"количество оценок": FieldReviewCount,
	"описание":          FieldDescription,
	"opening_hours":     FieldHours,
	"coords":            FieldCoordinates,
	"reviews":           FieldReviewCount,
}

// ParseField resolves a column header to a canonical field.
func ParseField(key string) (Field, bool) {
	k := strings.ToLower(strings.TrimSpace(key))
	for _, f := range Fields {
		if string(f) == k {
			return f, true
		}
	}
	f, ok := aliases[k]
	return f, ok
}

// Record is one parking facility as described by a single source.
type Record struct {
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Coordinates string `json:"coordinates,omitempty" yaml:"coordinates,omitempty"`
	Address     string `json:"address,omitempty" yaml:"address,omitempty"`
	Phone       string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Website     string `json:"website,omitempty" yaml:"website,omitempty"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
	ParkingName string `json:"parking_name,omitempty" yaml:"parking_name,omitempty"`
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
	ParkingType string `json:"parking_type,omitempty" yaml:"parking_type,omitempty"`
	Access      string `json:"access,omitempty" yaml:"access,omitempty"`
	Tariffs     string `json:"tariffs,omitempty" yaml:"tariffs,omitempty"`
	Prices      string `json:"prices,omitempty" yaml:"prices,omitempty"`
	Hours       string `json:"hours,omitempty" yaml:"hours,omitempty"`
	Capacity    string `json:"capacity,omitempty" yaml:"capacity,omitempty"`
	Rating      string `json:"rating,omitempty" yaml:"rating,omitempty"`
	ReviewCount string `json:"review_count,omitempty" yaml:"review_count,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Extra holds columns with no canonical field. It is carried through
	// ingestion and never consulted by matching or merging.
	Extra map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// FromMap builds a Record from a flat key/value row. Keys may be canonical
// field names or the scraper's Russian column headers; when both name the
// same field the canonical key wins. Values are trimmed, inner whitespace is
// collapsed and null sentinels become "".
func FromMap(m map[string]string) Record {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var r Record
	var aliased []string
	for _, k := range keys {
		f, ok := ParseField(k)
		switch {
		case !ok:
			v := normalize.Clean(m[k])
			if v == "" {
				continue
			}
			if r.Extra == nil {
				r.Extra = make(map[string]string)
			}
			r.Extra[k] = v
		case string(f) == strings.ToLower(strings.TrimSpace(k)):
			r.Set(f, normalize.Clean(m[k]))
		default:
			aliased = append(aliased, k)
		}
	}
	for _, k := range aliased {
		f, _ := ParseField(k)
		if r.Get(f) == "" {
			r.Set(f, normalize.Clean(m[k]))
		}
	}
	return r
}

// ToMap returns the non-empty attributes keyed by canonical field name,
// followed by Extra columns.
func (r Record) ToMap() map[string]string {
	m := make(map[string]string, len(Fields)+len(r.Extra))
	for _, f := range Fields {
		if v := r.Get(f); v != "" {
			m[string(f)] = v
		}
	}
	for k, v := range r.Extra {
		if _, exists := m[k]; !exists {
			m[k] = v
		}
	}
	return m
}

// ExtraKeys returns the Extra column names in sorted order.
func (r Record) ExtraKeys() []string {
	keys := make([]string, 0, len(r.Extra))
	for k := range r.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsEmpty reports whether no attribute carries a value.
func (r Record) IsEmpty() bool {
	for _, f := range Fields {
		if r.Get(f) != "" {
			return false
		}
	}
	return len(r.Extra) == 0
}

// Get returns the value of a canonical field.
func (r Record) Get(f Field) string {
	if p := r.ptr(f); p != nil {
		return *p
	}
	return ""
}

// Set assigns the value of a canonical field. Unknown fields are ignored.
func (r *Record) Set(f Field, v string) {
	if p := r.ptr(f); p != nil {
		*p = v
	}
}

func (r *Record) ptr(f Field) *string {
	switch f {
	case FieldName:
		return &r.Name
	case FieldCoordinates:
		return &r.Coordinates
	case FieldAddress:
		return &r.Address
	case FieldPhone:
		return &r.Phone
	case FieldWebsite:
		return &r.Website
	case FieldCategory:
		return &r.Category
	case FieldParkingName:
		return &r.ParkingName
	case FieldURL:
		return &r.URL
	case FieldParkingType:
		return &r.ParkingType
	case FieldAccess:
		return &r.Access
	case FieldTariffs:
		return &r.Tariffs
	case FieldPrices:
		return &r.Prices
	case FieldHours:
		return &r.Hours
	case FieldCapacity:
		return &r.Capacity
	case FieldRating:
		return &r.Rating
	case FieldReviewCount:
		return &r.ReviewCount
	case FieldDescription:
		return &r.Description
	}
	return nil
}
