// Package compare holds the attribute comparators used to score a pair of
// listings. Each comparator returns a similarity in [0,1] and a flag telling
// whether the attribute was comparable at all: an attribute missing on either
// side is excluded from scoring rather than counted as a mismatch.
package compare

import (
	"math"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/agentstation/parkmerge/pkg/constants"
	"github.com/agentstation/parkmerge/pkg/normalize"
)

// earthRadius is the mean Earth radius in metres.
const earthRadius = 6371000.0

// Coordinates returns 1 when both points parse and lie within tolerance
// degrees of each other on both axes, else 0. The score is binary.
// ok is false when either side is empty. A non-empty value that does not
// parse is comparable and scores 0.
func Coordinates(a, b string, tolerance float64) (score float64, ok bool) {
	if a == "" || b == "" {
		return 0, false
	}
	pa, okA := normalize.Coordinates(a)
	pb, okB := normalize.Coordinates(b)
	if !okA || !okB {
		return 0, false
	}
	if math.Abs(pa.Lat-pb.Lat) <= tolerance && math.Abs(pa.Lon-pb.Lon) <= tolerance {
		return 1, true
	}
	return 0, true
}

// Text returns the gestalt pattern-matching ratio of the normalized forms of
// a and b: twice the number of characters in matching blocks divided by the
// total length. Texts that normalize to nothing score 0.
func Text(a, b string) (score float64, ok bool) {
	if a == "" || b == "" {
		return 0, false
	}
	na, nb := normalize.Text(a), normalize.Text(b)
	if na == "" || nb == "" {
		return 0, true
	}
	if na == nb {
		return 1, true
	}
	m := difflib.NewMatcher(runes(na), runes(nb))
	return m.Ratio(), true
}

// Phone returns 1 when the digit strings of a and b are equal or share the
// last seven digits, else 0. Values without any digits are not comparable.
func Phone(a, b string) (score float64, ok bool) {
	da, db := normalize.Digits(a), normalize.Digits(b)
	if da == "" || db == "" {
		return 0, false
	}
	if da == db || suffix(da, constants.PhoneSuffixDigits) == suffix(db, constants.PhoneSuffixDigits) {
		return 1, true
	}
	return 0, true
}

// Distance returns the great-circle distance in metres between the two
// coordinate strings. ok is false when either does not parse.
func Distance(a, b string) (metres float64, ok bool) {
	pa, okA := normalize.Coordinates(a)
	pb, okB := normalize.Coordinates(b)
	if !okA || !okB {
		return 0, false
	}
	return Haversine(pa, pb), true
}

// Haversine returns the great-circle distance in metres between two points.
func Haversine(a, b normalize.Point) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadius * math.Asin(math.Min(1, math.Sqrt(h)))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// suffix returns the last n bytes of an ASCII digit string.
func suffix(digits string, n int) string {
	if len(digits) <= n {
		return digits
	}
	return digits[len(digits)-n:]
}

// runes splits s into one-character strings so the matcher works on
// characters rather than lines.
func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
