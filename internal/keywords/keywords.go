// Package keywords detects keyword families in free-text parking descriptors
// such as "платная", "закрытая охраняемая" or "free parking".
//
// A family is a list of stems. A stem matches only at the start of a word,
// case-insensitively, so the paid stem "платн" does not fire inside
// "бесплатная". A family may also exclude another family: words belonging to
// the excluded family are removed before the stems are searched.
package keywords

import (
	"fmt"
	"regexp"
	"strings"
)

// wordStart anchors a stem to the beginning of the text or to a non-word rune.
const wordStart = `(?:^|[^\p{L}\p{N}_])`

// Set is a compiled keyword family. A Set is safe for concurrent use.
type Set struct {
	name   string
	stems  []string
	find   *regexp.Regexp
	strip  *regexp.Regexp
	except *Set
}

// New compiles a keyword family from stems.
func New(name string, stems ...string) (*Set, error) {
	if len(stems) == 0 {
		return nil, fmt.Errorf("keyword set %q has no stems", name)
	}
	quoted := make([]string, 0, len(stems))
	for _, stem := range stems {
		stem = strings.TrimSpace(stem)
		if stem == "" {
			return nil, fmt.Errorf("keyword set %q has an empty stem", name)
		}
		quoted = append(quoted, regexp.QuoteMeta(stem))
	}
	alt := strings.Join(quoted, "|")

	find, err := regexp.Compile(`(?i)` + wordStart + `(?:` + alt + `)`)
	if err != nil {
		return nil, fmt.Errorf("failed to compile keyword set %q: %w", name, err)
	}
	strip, err := regexp.Compile(`(?i)` + wordStart + `(?:` + alt + `)[\p{L}\p{N}_]*`)
	if err != nil {
		return nil, fmt.Errorf("failed to compile keyword set %q: %w", name, err)
	}

	return &Set{
		name:  name,
		stems: append([]string(nil), stems...),
		find:  find,
		strip: strip,
	}, nil
}

// MustNew compiles a keyword family and panics on error.
func MustNew(name string, stems ...string) *Set {
	s, err := New(name, stems...)
	if err != nil {
		panic(err)
	}
	return s
}

// Except returns a copy of s that ignores words belonging to other.
func (s *Set) Except(other *Set) *Set {
	cp := *s
	cp.except = other
	return &cp
}

// Name returns the family name.
func (s *Set) Name() string {
	return s.name
}

// Stems returns the stems the family was built from.
func (s *Set) Stems() []string {
	return append([]string(nil), s.stems...)
}

// Match reports whether text contains a word starting with one of the stems.
func (s *Set) Match(text string) bool {
	if text == "" {
		return false
	}
	if s.except != nil {
		text = s.except.Strip(text)
	}
	return s.find.MatchString(text)
}

// Strip replaces every word of the family in text with a space.
func (s *Set) Strip(text string) string {
	return s.strip.ReplaceAllString(text, " ")
}

// MatchAny reports whether any of the texts matches.
func (s *Set) MatchAny(texts ...string) bool {
	for _, text := range texts {
		if s.Match(text) {
			return true
		}
	}
	return false
}

// Predefined families for Russian and English parking descriptors.
var (
	// Free marks parking without charge.
	Free = MustNew("free", "бесплатн", "без оплат", "free", "unpaid")

	// Paid marks parking with a charge. Free phrases never count as paid.
	Paid = MustNew("paid", "платн", "оплат", "paid").Except(Free)

	// Guarded marks closed or guarded access.
	Guarded = MustNew("guarded", "закрыт", "охраня", "closed", "guarded", "secured")
)

// unknownValues are the sentinel parking types scrapers write when they
// could not tell what kind of parking a listing is.
var unknownValues = map[string]struct{}{
	"unknown":    {},
	"неизвестно": {},
}

// IsUnknown reports whether a parking-type value is the unknown sentinel.
func IsUnknown(value string) bool {
	_, ok := unknownValues[strings.ToLower(strings.TrimSpace(value))]
	return ok
}

// Known reports whether a parking-type value is non-empty and not the unknown sentinel.
func Known(value string) bool {
	return strings.TrimSpace(value) != "" && !IsUnknown(value)
}
