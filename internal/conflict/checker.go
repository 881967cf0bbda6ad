// Package conflict detects time overlaps between a proposed booking and the
// bookings an installer already has on the same day.
package conflict

import (
	"fmt"

	"github.com/montage-crm/planner/backend/internal/domain"
)

// ValidateBooking checks that the booking's times parse and form a non-empty interval.
func ValidateBooking(b domain.Booking) error {
	_, err := parseInterval(b.StartTime, b.EndTime)
	return err
}

// FindConflicts returns one TimeConflict for every existing booking whose
// interval intersects the candidate's. existing should already be limited to
// the candidate's installer and date; entries for another installer or date,
// and the candidate itself when it has an ID, are skipped. The result keeps
// the order of existing and is empty (not nil) when nothing overlaps.
func FindConflicts(candidate domain.Booking, existing []domain.Booking, policy Policy) ([]domain.TimeConflict, error) {
	cand, err := parseInterval(candidate.StartTime, candidate.EndTime)
	if err != nil {
		return nil, err
	}

	conflicts := make([]domain.TimeConflict, 0)
	for _, other := range existing {
		if !sameSlot(candidate, other) {
			continue
		}

		iv, err := parseInterval(other.StartTime, other.EndTime)
		if err != nil {
			return nil, fmt.Errorf("existing booking %d: %w", other.ID, err)
		}

		overlap, ok := intersect(cand, iv)
		if !ok {
			continue
		}

		conflicts = append(conflicts, domain.TimeConflict{
			ExistingBooking: other,
			Overlap: domain.Overlap{
				Start:           FormatClock(overlap.start),
				End:             FormatClock(overlap.end),
				DurationMinutes: overlap.duration(),
			},
			Severity: policy.Classify(overlap.duration(), cand.duration()),
		})
	}

	return conflicts, nil
}

// Check runs FindConflicts and wraps the result into a report.
func Check(candidate domain.Booking, existing []domain.Booking, policy Policy) (*domain.ConflictReport, error) {
	conflicts, err := FindConflicts(candidate, existing, policy)
	if err != nil {
		return nil, err
	}

	report := &domain.ConflictReport{
		Candidate: candidate,
		Conflicts: conflicts,
	}
	for _, c := range conflicts {
		if report.HighestSeverity == nil || c.Severity.Rank() > report.HighestSeverity.Rank() {
			severity := c.Severity
			report.HighestSeverity = &severity
		}
	}

	return report, nil
}

func sameSlot(candidate, other domain.Booking) bool {
	if candidate.ID != 0 && candidate.ID == other.ID {
		return false
	}
	return candidate.InstallerID == other.InstallerID && candidate.Date == other.Date
}
