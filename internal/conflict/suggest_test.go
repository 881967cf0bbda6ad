package conflict

import (
	"errors"
	"testing"

	"github.com/montage-crm/planner/backend/internal/domain"
)

func TestSuggestSlots_Basic(t *testing.T) {
	candidate := booking(0, "09:00", "10:00")
	existing := []domain.Booking{
		booking(1, "08:00", "09:30"),
		booking(2, "10:30", "11:00"),
	}

	slots, err := SuggestSlots(candidate, existing, Window{Start: "08:00", End: "12:00"}, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 09:30-10:30 fits between the two bookings, 11:00-12:00 after them
	want := []Slot{
		{StartTime: "09:30", EndTime: "10:30"},
		{StartTime: "11:00", EndTime: "12:00"},
	}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %v", len(want), slots)
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Fatalf("slot %d: expected %+v, got %+v", i, want[i], slots[i])
		}
	}
}

func TestSuggestSlots_IgnoresCandidateItself(t *testing.T) {
	candidate := booking(3, "09:00", "10:00")

	slots, err := SuggestSlots(candidate, []domain.Booking{candidate}, Window{Start: "09:00", End: "10:00"}, 15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 1 || slots[0].StartTime != "09:00" {
		t.Fatalf("expected the original slot to be free, got %v", slots)
	}
}

func TestSuggestSlots_NoRoom(t *testing.T) {
	slots, err := SuggestSlots(booking(0, "09:00", "13:00"), nil, Window{Start: "10:00", End: "12:00"}, 15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots, got %v", slots)
	}
}

func TestSuggestSlots_InvalidInput(t *testing.T) {
	if _, err := SuggestSlots(booking(0, "10:00", "09:00"), nil, Window{Start: "07:00", End: "19:00"}, 15); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval for candidate, got %v", err)
	}
	if _, err := SuggestSlots(booking(0, "09:00", "10:00"), nil, Window{Start: "19:00", End: "07:00"}, 15); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval for window, got %v", err)
	}
	if _, err := SuggestSlots(booking(0, "09:00", "10:00"), nil, Window{Start: "07:00", End: "19:00"}, 0); err == nil {
		t.Fatal("expected error for zero step")
	}
}

func TestValidateWindow(t *testing.T) {
	if err := ValidateWindow(Window{Start: "07:00", End: "19:00"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateWindow(Window{Start: "19:00", End: "07:00"}); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
	if err := ValidateWindow(Window{Start: "seven", End: "19:00"}); !errors.Is(err, ErrInvalidTime) {
		t.Fatalf("expected ErrInvalidTime, got %v", err)
	}
}
