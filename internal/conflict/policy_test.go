package conflict

import (
	"testing"

	"github.com/montage-crm/planner/backend/internal/domain"
)

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		policy  Policy
		wantErr bool
	}{
		{DefaultPolicy, false},
		{Policy{HighPercent: 100, MediumPercent: 100}, false},
		{Policy{HighPercent: 30, MediumPercent: 1}, false},
		{Policy{HighPercent: 50, MediumPercent: 0}, true},
		{Policy{HighPercent: 10, MediumPercent: 20}, true},
		{Policy{HighPercent: 120, MediumPercent: 20}, true},
	}

	for _, tt := range tests {
		err := tt.policy.Validate()
		if (err != nil) != tt.wantErr {
			t.Fatalf("%+v: expected error=%v, got %v", tt.policy, tt.wantErr, err)
		}
	}
}

func TestPolicy_ClassifyCustomThresholds(t *testing.T) {
	p := Policy{HighPercent: 75, MediumPercent: 25}

	if got := p.Classify(60, 120); got != domain.SeverityMedium {
		t.Fatalf("expected medium for 50%% under a 75%% high threshold, got %s", got)
	}
	if got := p.Classify(90, 120); got != domain.SeverityHigh {
		t.Fatalf("expected high for 75%%, got %s", got)
	}
	if got := p.Classify(29, 120); got != domain.SeverityLow {
		t.Fatalf("expected low for 29 of 120 minutes, got %s", got)
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"13:45:00", 825, false},
		{"13:45:59", 0, true},
		{"10:00:10", 0, true},
		{"9:30", 570, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("%q: expected error=%v, got %v", tt.in, tt.wantErr, err)
		}
		if err == nil && got != tt.want {
			t.Fatalf("%q: expected %d, got %d", tt.in, tt.want, got)
		}
	}
}

func TestNormalizeClock(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"09:30", "09:30", false},
		{"9:30", "09:30", false},
		{"09:30:00", "09:30", false},
		{"11:00:45", "", true},
		{"noon", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizeClock(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("%q: expected error=%v, got %v", tt.in, tt.wantErr, err)
		}
		if got != tt.want {
			t.Fatalf("%q: expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(0); got != "00:00" {
		t.Fatalf("expected 00:00, got %s", got)
	}
	if got := FormatClock(705); got != "11:45" {
		t.Fatalf("expected 11:45, got %s", got)
	}
}
