package reconciler

import (
	"fmt"
	"strings"

	"github.com/agentstation/parkmerge/pkg/authority"
	"github.com/agentstation/parkmerge/pkg/records"
)

// StrategyType represents the type of field selection strategy.
type StrategyType string

// String returns the string representation of a strategy type.
func (s StrategyType) String() string {
	return string(s)
}

// Name returns the name of the strategy type.
func (s StrategyType) Name() string {
	words := strings.Split(s.String(), "-")
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

const (
	// StrategyTypeFieldAuthority uses field-specific authority priorities to pick values.
	StrategyTypeFieldAuthority StrategyType = "field-authority"
	// StrategyTypeSourceOrder uses one fixed side order for every field.
	StrategyTypeSourceOrder StrategyType = "source-order"
)

// Strategy decides which side supplies a picked (first-non-empty) field.
type Strategy interface {
	// Type returns the strategy type
	Type() StrategyType

	// Description returns a human-readable description
	Description() string

	// ResolveConflict picks the value for field from the two sides. It
	// returns the value, the side it came from and a reason. When neither
	// side has a value the returned side is empty.
	ResolveConflict(field records.Field, values map[records.Side]string) (string, records.Side, string)
}

// baseStrategy provides common strategy functionality.
type baseStrategy struct {
	typ         StrategyType
	description string
}

// Type returns the strategy type.
func (s *baseStrategy) Type() StrategyType {
	return s.typ
}

// Description returns a human-readable description.
func (s *baseStrategy) Description() string {
	return s.description
}

// AuthorityStrategy uses field authorities to pick values.
type AuthorityStrategy struct {
	baseStrategy
	authorities authority.Authority
}

// NewAuthorityStrategy creates a new authority-based strategy.
func NewAuthorityStrategy(authorities authority.Authority) Strategy {
	return &AuthorityStrategy{
		baseStrategy: baseStrategy{
			typ:         StrategyTypeFieldAuthority,
			description: "Picks the first non-empty value in field authority order",
		},
		authorities: authorities,
	}
}

// ResolveConflict tries the sides in the authority order for field.
func (s *AuthorityStrategy) ResolveConflict(field records.Field, values map[records.Side]string) (string, records.Side, string) {
	for _, side := range s.authorities.Order(field) {
		if v := values[side]; v != "" {
			reason := "selected by authority"
			if auth := s.authorities.Find(field); auth != nil && auth.Side == side {
				reason = fmt.Sprintf("selected by authority (priority: %d)", auth.Priority)
			} else if auth != nil {
				reason = fmt.Sprintf("fallback, side %s has no value", auth.Side)
			}
			return v, side, reason
		}
	}
	return "", "", "no value available"
}

// SourceOrderStrategy picks values using a fixed side precedence order.
// Sides earlier in the slice have higher precedence.
type SourceOrderStrategy struct {
	baseStrategy
	order []records.Side // First element = highest priority
}

// NewSourceOrderStrategy creates a new side priority order strategy. Sides
// missing from order rank after the listed ones, A before B.
func NewSourceOrderStrategy(order ...records.Side) Strategy {
	full := make([]records.Side, 0, 2)
	seen := map[records.Side]bool{}
	for _, side := range append(append([]records.Side{}, order...), records.SideA, records.SideB) {
		if (side == records.SideA || side == records.SideB) && !seen[side] {
			seen[side] = true
			full = append(full, side)
		}
	}
	return &SourceOrderStrategy{
		baseStrategy: baseStrategy{
			typ:         StrategyTypeSourceOrder,
			description: fmt.Sprintf("Picks the first non-empty value in side order %v", full),
		},
		order: full,
	}
}

// ResolveConflict uses side priority order to pick a value.
func (s *SourceOrderStrategy) ResolveConflict(_ records.Field, values map[records.Side]string) (string, records.Side, string) {
	for _, side := range s.order {
		if v := values[side]; v != "" {
			return v, side, fmt.Sprintf("selected by side priority order (%s)", side)
		}
	}
	return "", "", "no value available"
}
