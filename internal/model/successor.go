package model

import "time"

// Severity orders successor records for resolution (§4.10): critical
// outranks warning outranks info.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Rank returns a higher number for a more severe level, so sorting by
// Rank descending matches spec §4.10's "severity descending" ordering.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// Successor is a directed lifecycle edge from a source node to either a
// target node or a target full type-code.
type Successor struct {
	ID              int64
	SourceNodeID    int64
	TargetNodeID    *int64
	TargetFullCode  *string
	ReplacementType string
	Severity        Severity
	EffectiveDate   *time.Time
	ShowWarning     bool
	MigrationNotes  string
	CreatedAt       time.Time
}

// IsEffective reports whether the successor is active as of `now`
// (§4.10: effective_date <= today OR NULL).
func (s *Successor) IsEffective(now time.Time) bool {
	if s.EffectiveDate == nil {
		return true
	}
	return !s.EffectiveDate.After(now)
}
