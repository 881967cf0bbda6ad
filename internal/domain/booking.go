package domain

import "time"

// Booking is one scheduled assignment of an installer on a calendar date.
// Date uses the "2006-01-02" layout, StartTime and EndTime use "15:04".
type Booking struct {
	ID          int64     `json:"id"`
	InstallerID int64     `json:"installerID"`
	Date        string    `json:"date"`
	StartTime   string    `json:"startTime"`
	EndTime     string    `json:"endTime"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedBy   int64     `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	Version     int32     `json:"-"`
}

// BookingOverride records an admin accepting a booking despite conflicts.
type BookingOverride struct {
	ID        int64          `json:"id"`
	BookingID int64          `json:"bookingID"`
	AdminID   int64          `json:"adminID"`
	Reason    string         `json:"reason"`
	Conflicts []TimeConflict `json:"conflicts"`
	CreatedAt time.Time      `json:"createdAt"`
}
