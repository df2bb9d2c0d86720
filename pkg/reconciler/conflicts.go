package reconciler

import (
	"github.com/agentstation/parkmerge/internal/keywords"
	"github.com/agentstation/parkmerge/pkg/records"
)

// Conflict messages as they appear in merged output.
const (
	MessagePaidFree = "paid/free conflict"
	MessageAccess   = "access type conflict"
	MessagePrice    = "different prices"
)

// FindConflicts lists the semantic contradictions between two matched records.
// Parking-type conflicts are only checked when both types are known; a price
// conflict needs two non-empty, textually different prices.
func FindConflicts(a, b records.Record) []records.Conflict {
	var conflicts []records.Conflict

	if keywords.Known(a.ParkingType) && keywords.Known(b.ParkingType) {
		if keywords.Paid.Match(a.ParkingType) != keywords.Paid.Match(b.ParkingType) {
			conflicts = append(conflicts, records.Conflict{
				Kind:    records.ConflictPaidFree,
				Field:   records.FieldParkingType,
				ValueA:  a.ParkingType,
				ValueB:  b.ParkingType,
				Message: MessagePaidFree,
			})
		}
		if keywords.Guarded.Match(a.ParkingType) != keywords.Guarded.Match(b.ParkingType) {
			conflicts = append(conflicts, records.Conflict{
				Kind:    records.ConflictAccess,
				Field:   records.FieldParkingType,
				ValueA:  a.ParkingType,
				ValueB:  b.ParkingType,
				Message: MessageAccess,
			})
		}
	}

	if a.Prices != "" && b.Prices != "" && a.Prices != b.Prices {
		conflicts = append(conflicts, records.Conflict{
			Kind:    records.ConflictPrice,
			Field:   records.FieldPrices,
			ValueA:  a.Prices,
			ValueB:  b.Prices,
			Message: MessagePrice,
		})
	}

	return conflicts
}
