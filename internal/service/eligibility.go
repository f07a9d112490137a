package service

import (
	"fmt"

	"github.com/pesio-ai/be-cr-requests/internal/errors"
	"github.com/pesio-ai/be-cr-requests/internal/repository"
)

// LimitPolicy selects how a sector's handling limit gates its eligibility
// for a requested amount. Both readings exist in the business lineage, so
// the choice is configuration, not code.
type LimitPolicy string

const (
	// LimitAsMinimum: a sector is eligible when amount >= limit — the limit
	// is the smallest amount the sector is authorized to handle. Default.
	LimitAsMinimum LimitPolicy = "minimum"
	// LimitAsMaximum: a sector is eligible when amount <= limit — the limit
	// caps what the sector may handle.
	LimitAsMaximum LimitPolicy = "maximum"
)

// ParseLimitPolicy validates a configured policy string. Empty selects the
// default.
func ParseLimitPolicy(s string) (LimitPolicy, error) {
	switch LimitPolicy(s) {
	case "":
		return LimitAsMinimum, nil
	case LimitAsMinimum, LimitAsMaximum:
		return LimitPolicy(s), nil
	}
	return "", errors.InvalidInput("limit_policy", fmt.Sprintf("unknown policy %q", s))
}

// EligibleSectors returns the sectors attached to process that may act on
// the given amount, preserving the repository's name order. Both boundaries
// are inclusive: an amount exactly equal to the limit is eligible under
// either policy. An empty result is the no-eligible-sector terminal
// condition for the routing attempt.
func EligibleSectors(process *repository.Process, amount int64, policy LimitPolicy) []*repository.Sector {
	var eligible []*repository.Sector
	for _, sector := range process.Sectors {
		switch policy {
		case LimitAsMaximum:
			if amount <= sector.HandlingLimit {
				eligible = append(eligible, sector)
			}
		default:
			if amount >= sector.HandlingLimit {
				eligible = append(eligible, sector)
			}
		}
	}
	return eligible
}
