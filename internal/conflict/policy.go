package conflict

import (
	"fmt"

	"github.com/montage-crm/planner/backend/internal/domain"
)

// Policy holds the severity thresholds as a percentage of the candidate's
// duration. These are business rules and come from configuration.
type Policy struct {
	HighPercent   int
	MediumPercent int
}

var DefaultPolicy = Policy{
	HighPercent:   50,
	MediumPercent: 20,
}

func (p Policy) Validate() error {
	if p.MediumPercent <= 0 {
		return fmt.Errorf("medium threshold must be positive, got %d", p.MediumPercent)
	}
	if p.HighPercent < p.MediumPercent {
		return fmt.Errorf("high threshold %d is below medium threshold %d", p.HighPercent, p.MediumPercent)
	}
	if p.HighPercent > 100 {
		return fmt.Errorf("high threshold must not exceed 100, got %d", p.HighPercent)
	}
	return nil
}

// Classify grades an overlap against the candidate's total duration.
// Integer math keeps the exact boundaries stable.
func (p Policy) Classify(overlapMinutes, candidateMinutes int) domain.Severity {
	switch {
	case overlapMinutes*100 >= p.HighPercent*candidateMinutes:
		return domain.SeverityHigh
	case overlapMinutes*100 >= p.MediumPercent*candidateMinutes:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}
