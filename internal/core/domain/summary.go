package domain

import "fmt"

// SummaryKind selects the style of contract summary to generate.
type SummaryKind string

// Supported summary kinds.
const (
	// SummaryBrief is a 1-2 paragraph overview of the key terms.
	SummaryBrief SummaryKind = "brief"

	// SummaryComprehensive covers every major section of the contract.
	SummaryComprehensive SummaryKind = "comprehensive"

	// SummaryKeyPoints is a numbered list of the key clauses.
	SummaryKeyPoints SummaryKind = "key_points"
)

// ParseSummaryKind validates and converts a user-supplied kind string.
func ParseSummaryKind(s string) (SummaryKind, error) {
	switch SummaryKind(s) {
	case SummaryBrief, SummaryComprehensive, SummaryKeyPoints:
		return SummaryKind(s), nil
	default:
		return "", fmt.Errorf("%w: unknown summary kind %q", ErrInvalidConfiguration, s)
	}
}

// Valid reports whether k is a supported summary kind.
func (k SummaryKind) Valid() bool {
	switch k {
	case SummaryBrief, SummaryComprehensive, SummaryKeyPoints:
		return true
	}
	return false
}

// Description returns a human-readable description for display.
func (k SummaryKind) Description() string {
	switch k {
	case SummaryBrief:
		return "Brief (1-2 paragraphs)"
	case SummaryComprehensive:
		return "Comprehensive (all major sections)"
	case SummaryKeyPoints:
		return "Key points (numbered list)"
	default:
		return string(k)
	}
}
