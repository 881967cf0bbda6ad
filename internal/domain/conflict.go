package domain

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities so that higher is worse. Unknown values rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	default:
		return 0
	}
}

type Overlap struct {
	Start           string `json:"start"`
	End             string `json:"end"`
	DurationMinutes int    `json:"durationMinutes"`
}

type TimeConflict struct {
	ExistingBooking Booking  `json:"existingBooking"`
	Overlap         Overlap  `json:"overlap"`
	Severity        Severity `json:"severity"`
}

type ConflictReport struct {
	Candidate       Booking        `json:"candidate"`
	Conflicts       []TimeConflict `json:"conflicts"`
	HighestSeverity *Severity      `json:"highestSeverity"` // nil when there are no conflicts
}

func (r *ConflictReport) HasConflicts() bool {
	return len(r.Conflicts) > 0
}
