// Package authority decides which source is preferred for each merged field.
//
// Fields that are picked rather than combined (name, address, phone, price,
// opening hours and so on) take the value of the most authoritative side
// that has one. By default side A outranks side B for every field.
package authority

import (
	"path/filepath"
	"sort"

	"github.com/agentstation/parkmerge/pkg/records"
)

// Authority determines which side is authoritative for each field
type Authority interface {
	// Find returns the highest-priority authority for a field
	Find(field records.Field) *Field

	// Order returns both sides, most authoritative first
	Order(field records.Field) []records.Side

	// List returns all configured authorities
	List() []Field
}

// Field defines side priority for a field pattern
type Field struct {
	Path     string       `json:"path" yaml:"path"`         // e.g. "hours", "*"
	Side     records.Side `json:"side" yaml:"side"`         // Which side is authoritative
	Priority int          `json:"priority" yaml:"priority"` // Priority (higher = more authoritative)
}

// authorities is the default Authority implementation
type authorities struct {
	fields []Field
}

// New returns an Authority built from fields. With no fields the defaults apply.
func New(fields ...Field) Authority {
	if len(fields) == 0 {
		fields = defaultAuthorities()
	}
	return &authorities{fields: append([]Field(nil), fields...)}
}

// Prefer returns an Authority under which side outranks the other for every field.
func Prefer(side records.Side) Authority {
	return New(
		Field{Path: "*", Side: side, Priority: 100},
		Field{Path: "*", Side: side.Other(), Priority: 50},
	)
}

// Find returns the authority configuration for a specific field
func (a *authorities) Find(field records.Field) *Field {
	return ByField(string(field), a.fields)
}

// Order returns the sides in descending priority for field. A side without
// a matching authority ranks last; ties keep side A first.
func (a *authorities) Order(field records.Field) []records.Side {
	prio := map[records.Side]int{records.SideA: -1, records.SideB: -1}
	for _, f := range a.fields {
		if MatchesPattern(string(field), f.Path) && f.Priority > prio[f.Side] {
			prio[f.Side] = f.Priority
		}
	}
	order := []records.Side{records.SideA, records.SideB}
	sort.SliceStable(order, func(i, j int) bool {
		return prio[order[i]] > prio[order[j]]
	})
	return order
}

// List returns all authorities
func (a *authorities) List() []Field {
	return append([]Field(nil), a.fields...)
}

// ByField returns the highest priority authority for a given field path
func ByField(fieldPath string, authorities []Field) *Field {
	var bestMatch *Field
	var bestPriority int
	var bestMatchLength int

	for i, auth := range authorities {
		if MatchesPattern(fieldPath, auth.Path) {
			// Prioritize by: 1) priority, 2) pattern specificity (length), 3) order
			patternLength := len(auth.Path)
			if bestMatch == nil || auth.Priority > bestPriority ||
				(auth.Priority == bestPriority && patternLength > bestMatchLength) {
				bestMatch = &authorities[i]
				bestPriority = auth.Priority
				bestMatchLength = patternLength
			}
		}
	}

	return bestMatch
}

// MatchesPattern checks if a field path matches a pattern (supports * wildcards)
func MatchesPattern(fieldPath, pattern string) bool {
	if fieldPath == pattern {
		return true
	}

	if len(pattern) > 0 && pattern[len(pattern)-1] == '*' {
		prefix := pattern[:len(pattern)-1]
		return len(fieldPath) >= len(prefix) && fieldPath[:len(prefix)] == prefix
	}

	matched, err := filepath.Match(pattern, fieldPath)
	if err != nil {
		return false
	}
	return matched
}

// FilterBySide returns only the authorities for a specific side
func FilterBySide(authorities []Field, side records.Side) []Field {
	var filtered []Field
	for _, auth := range authorities {
		if auth.Side == side {
			filtered = append(filtered, auth)
		}
	}
	return filtered
}

// defaultAuthorities prefers side A for every field. Opening hours are
// listed explicitly because side A's hours are the more reliable ones.
func defaultAuthorities() []Field {
	return []Field{
		{Path: "*", Side: records.SideA, Priority: 100},
		{Path: "*", Side: records.SideB, Priority: 90},
		{Path: string(records.FieldHours), Side: records.SideA, Priority: 110},
	}
}
