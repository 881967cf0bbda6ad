package conflict

import (
	"errors"
	"fmt"

	"github.com/montage-crm/planner/backend/internal/domain"
)

// Window is the part of the day in which bookings may be placed.
type Window struct {
	Start string
	End   string
}

type Slot struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// SuggestSlots lists start times inside window, stepping by step minutes, at
// which a booking of the candidate's duration would overlap none of the
// existing bookings.
func SuggestSlots(candidate domain.Booking, existing []domain.Booking, window Window, step int) ([]Slot, error) {
	if step <= 0 {
		return nil, errors.New("step must be positive")
	}

	cand, err := parseInterval(candidate.StartTime, candidate.EndTime)
	if err != nil {
		return nil, err
	}
	if err := ValidateWindow(window); err != nil {
		return nil, err
	}
	day, _ := parseInterval(window.Start, window.End)

	busy := make([]interval, 0, len(existing))
	for _, other := range existing {
		if !sameSlot(candidate, other) {
			continue
		}
		iv, err := parseInterval(other.StartTime, other.EndTime)
		if err != nil {
			return nil, fmt.Errorf("existing booking %d: %w", other.ID, err)
		}
		busy = append(busy, iv)
	}

	length := cand.duration()
	slots := make([]Slot, 0)
	for start := day.start; start+length <= day.end; start += step {
		slot := interval{start: start, end: start + length}
		if overlapsAny(slot, busy) {
			continue
		}
		slots = append(slots, Slot{
			StartTime: FormatClock(slot.start),
			EndTime:   FormatClock(slot.end),
		})
	}

	return slots, nil
}

func overlapsAny(slot interval, busy []interval) bool {
	for _, b := range busy {
		if _, ok := intersect(slot, b); ok {
			return true
		}
	}
	return false
}
