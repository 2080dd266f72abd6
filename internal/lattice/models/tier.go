package models

import (
	"strings"

	dErrors "pebble/pkg/domain-errors"
)

// Tier is the priority classification an external policy assigns to an entity.
type Tier string

const (
	TierSovereign   Tier = "Sovereign"
	TierDynastic    Tier = "Dynastic"
	TierOperational Tier = "Operational"
	TierMarket      Tier = "Market"
)

// AllTiers lists tiers from highest to lowest priority.
func AllTiers() []Tier {
	return []Tier{TierSovereign, TierDynastic, TierOperational, TierMarket}
}

// IsValid reports whether t is a known tier.
func (t Tier) IsValid() bool {
	switch t {
	case TierSovereign, TierDynastic, TierOperational, TierMarket:
		return true
	}
	return false
}

// Priority returns 0 for the highest-priority tier; -1 for unknown tiers.
func (t Tier) Priority() int {
	for i, known := range AllTiers() {
		if t == known {
			return i
		}
	}
	return -1
}

func (t Tier) String() string {
	return string(t)
}

// ParseTier accepts a tier name case-insensitively.
func ParseTier(s string) (Tier, error) {
	for _, t := range AllTiers() {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown tier %q", s)
}
