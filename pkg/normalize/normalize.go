// Package normalize canonicalizes the free-text fields of scraped parking
// listings before they are compared: display text, coordinate pairs and the
// numbers embedded in capacity, rating and review-count strings.
//
// Every function here fails soft. Malformed input yields an empty string or
// ok == false, never an error.
package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	// punctuation is everything that is not a word character or whitespace.
	punctuation = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s]`)

	// coordNoise strips everything except digits, signs, separators and whitespace.
	coordNoise = regexp.MustCompile(`[^\d.,\s-]`)
	coordSplit = regexp.MustCompile(`[,;\s]+`)

	nonDigit = regexp.MustCompile(`\D`)
	intToken = regexp.MustCompile(`\d+`)
	// floatToken matches "4", "4." and "4.5" but never a leading dot.
	floatToken = regexp.MustCompile(`\d+\.?\d*`)

	lower = cases.Lower(language.Und)
)

// stopWords inflate similarity without telling facilities apart: legal-entity
// abbreviations and generic nouns for parking and shopping centres.
var stopWords = map[string]struct{}{
	"ооо":      {},
	"зао":      {},
	"оао":      {},
	"торговый": {},
	"центр":    {},
	"тц":       {},
	"тк":       {},
	"парковка": {},
	"стоянка":  {},
	"llc":      {},
	"ltd":      {},
	"parking":  {},
	"lot":      {},
	"mall":     {},
}

// nullSentinels are textual nulls left behind by spreadsheet and dataframe exports.
var nullSentinels = map[string]struct{}{
	"nan":  {},
	"none": {},
	"null": {},
}

// IsNullSentinel reports whether s is empty or a textual null ("nan", "none", "null").
func IsNullSentinel(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	_, ok := nullSentinels[strings.ToLower(s)]
	return ok
}

// Clean trims s, collapses inner whitespace and maps null sentinels to "".
func Clean(s string) string {
	if IsNullSentinel(s) {
		return ""
	}
	return strings.Join(strings.Fields(s), " ")
}

// Text returns the comparison form of s: lower-cased, punctuation replaced by
// spaces, whitespace collapsed and stop words removed. Text is idempotent.
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFC.String(lower.String(s))
	s = punctuation.ReplaceAllString(s, " ")

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if _, stop := stopWords[w]; !stop {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// Point is a parsed coordinate pair. The first number of the source text is
// Lat and the second is Lon; sources that write "lon,lat" are compared as-is.
type Point struct {
	Lat float64
	Lon float64
}

// Coordinates parses the first two numbers of s. Unit markers, brackets and
// other stray characters are ignored. ok is false for null sentinels, for
// fewer than two numeric tokens, or when either token is not a number.
func Coordinates(s string) (p Point, ok bool) {
	if IsNullSentinel(s) {
		return Point{}, false
	}
	cleaned := strings.TrimSpace(coordNoise.ReplaceAllString(s, ""))
	parts := coordSplit.Split(cleaned, -1)
	if len(parts) < 2 {
		return Point{}, false
	}
	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return Point{}, false
	}
	lon, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Point{}, false
	}
	return Point{Lat: lat, Lon: lon}, true
}

// Digits returns only the ASCII digits of s.
func Digits(s string) string {
	return nonDigit.ReplaceAllString(s, "")
}

// FirstInt returns the first run of digits in s as an integer.
func FirstInt(s string) (int, bool) {
	if IsNullSentinel(s) {
		return 0, false
	}
	tok := intToken.FindString(s)
	if tok == "" {
		return 0, false
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FirstFloat returns the first decimal number in s. Only "." is accepted as
// the decimal separator, so "4,5" yields 4.
func FirstFloat(s string) (float64, bool) {
	if IsNullSentinel(s) {
		return 0, false
	}
	tok := floatToken.FindString(s)
	if tok == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
