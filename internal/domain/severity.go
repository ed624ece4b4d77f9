package domain

import "strings"

// Severity is the reporting severity of an issue. The zero value is not
// valid; use ParseSeverity for untrusted input.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists all severities in ascending order of importance.
var Severities = []Severity{
	SeverityInfo,
	SeverityLow,
	SeverityMedium,
	SeverityHigh,
	SeverityCritical,
}

var severityRanks = map[Severity]int{
	SeverityInfo:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns the position of the severity in the total order.
// Unrecognized severities rank as info.
func (s Severity) Rank() int {
	return severityRanks[s]
}

// AtLeast reports whether s meets or exceeds the given threshold.
func (s Severity) AtLeast(threshold Severity) bool {
	return s.Rank() >= threshold.Rank()
}

// ParseSeverity normalizes an untrusted severity string. Anything
// unrecognized degrades to info rather than failing, matching how issue
// payloads from the remote analysis service are treated.
func ParseSeverity(raw string) Severity {
	s := Severity(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := severityRanks[s]; ok {
		return s
	}
	return SeverityInfo
}
