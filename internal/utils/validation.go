package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/montage-crm/planner/backend/internal/conflict"
	"github.com/montage-crm/planner/backend/internal/domain"
)

// ValidateAssignee checks that a booking can be given to the user.
func ValidateAssignee(user *domain.User) error {
	if user.Role != domain.RoleInstaller {
		return fmt.Errorf("user %s is not an installer", user.Username)
	}
	if !user.IsActive {
		return fmt.Errorf("installer %s is no longer active", user.FullName)
	}
	return nil
}

// ValidateBookingTime checks the date layout and the time interval, and
// rewrites the times into "HH:MM" so that what is stored matches what was checked.
func ValidateBookingTime(b *domain.Booking) error {
	if _, err := time.Parse(time.DateOnly, b.Date); err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", b.Date)
	}

	if err := conflict.ValidateBooking(*b); err != nil {
		switch {
		case errors.Is(err, conflict.ErrInvalidTime):
			return fmt.Errorf("invalid time, expected HH:MM: %w", err)
		case errors.Is(err, conflict.ErrInvalidInterval):
			return fmt.Errorf("end time must be after start time (%s-%s)", b.StartTime, b.EndTime)
		default:
			return err
		}
	}

	// both parse, ValidateBooking said so
	b.StartTime, _ = conflict.NormalizeClock(b.StartTime)
	b.EndTime, _ = conflict.NormalizeClock(b.EndTime)

	return nil
}
