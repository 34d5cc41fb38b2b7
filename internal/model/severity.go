package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity ranks how likely a detected layout change is to break
// downstream extraction logic.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output, and JSON marshaling uses the string form so that
// reports remain readable without a legend.
type Severity int

const (
	// SeverityLow indicates informational changes that do not threaten
	// extraction. Examples: newly added PDF links, prose drift with no
	// structural impact.
	SeverityLow Severity = iota

	// SeverityMedium indicates changes that warrant attention but usually
	// mean more or fewer data rows rather than broken parsing.
	// Examples: table row-count changes, removed PDF links.
	SeverityMedium

	// SeverityHigh indicates structural changes likely to break
	// field-position-based parsing. Examples: table count changes,
	// column-count changes.
	SeverityHigh
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity converts a string such as "HIGH" into a Severity.
// Matching is case-insensitive. It returns an error for unknown names,
// which callers surface as configuration errors.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return SeverityLow, nil
	case "MEDIUM":
		return SeverityMedium, nil
	case "HIGH":
		return SeverityHigh, nil
	default:
		return SeverityLow, fmt.Errorf("unknown severity %q", s)
	}
}

// MarshalJSON encodes the severity as its string form.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a severity from its string form.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
