package types

import "fmt"

// Category is the closed topic taxonomy for rewritten articles.
type Category string

const (
	CategoryCrimePrevention       Category = "crime-prevention"
	CategoryTrafficSafety         Category = "traffic-safety"
	CategoryCybercrime            Category = "cybercrime"
	CategoryDrugEnforcement       Category = "drug-enforcement"
	CategoryEmergencyResponse     Category = "emergency-response"
	CategoryYouthSafety           Category = "youth-safety"
	CategoryCommunityPolicing     Category = "community-policing"
	CategoryBorderSecurity        Category = "border-security"
	CategoryEnvironmentalCrime    Category = "environmental-crime"
	CategoryForensicInvestigation Category = "forensic-investigation"

	// CategoryUnclassified is assigned when nothing scores above the threshold.
	CategoryUnclassified Category = "unclassified"
)

// priority is the tie-break order; earlier wins.
var priority = []Category{
	CategoryCrimePrevention,
	CategoryTrafficSafety,
	CategoryCybercrime,
	CategoryDrugEnforcement,
	CategoryEmergencyResponse,
	CategoryYouthSafety,
	CategoryCommunityPolicing,
	CategoryBorderSecurity,
	CategoryEnvironmentalCrime,
	CategoryForensicInvestigation,
}

// Categories returns the ten scored categories in priority order.
func Categories() []Category {
	out := make([]Category, len(priority))
	copy(out, priority)
	return out
}

// Valid reports whether c is one of the ten categories or unclassified.
func (c Category) Valid() bool {
	if c == CategoryUnclassified {
		return true
	}
	return c.Rank() >= 0
}

// Rank is the position in the priority order, or -1.
func (c Category) Rank() int {
	for i, p := range priority {
		if p == c {
			return i
		}
	}
	return -1
}

func (c Category) String() string { return string(c) }

// ParseCategory rejects anything outside the taxonomy.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}
