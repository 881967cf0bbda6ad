package domain

const (
	MailTypeCreateUser      = "create_user"
	MailTypeResetPassword   = "reset_password"
	MailTypeBookingAssigned = "booking_assigned"
	MailTypeBookingOverride = "booking_override"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type ResetPasswordMailData struct {
	FullName   string `json:"fullName"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"`
}

type BookingAssignedMailData struct {
	FullName  string `json:"fullName"`
	Title     string `json:"title"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type BookingOverrideMailData struct {
	FullName      string `json:"fullName"`
	Title         string `json:"title"`
	Date          string `json:"date"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	ConflictCount int    `json:"conflictCount"`
	Reason        string `json:"reason"`
}
