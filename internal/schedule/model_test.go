package schedule

import (
	"errors"
	"testing"
	"time"
)

func intPtr(v int) *int { return &v }

func TestWorkingWindowValidate(t *testing.T) {
	tests := []struct {
		name    string
		window  WorkingWindow
		wantErr bool
	}{
		{
			name:   "plain window",
			window: WorkingWindow{Weekday: time.Monday, StartMin: 9 * 60, EndMin: 17 * 60},
		},
		{
			name: "window with break",
			window: WorkingWindow{
				Weekday: time.Monday, StartMin: 9 * 60, EndMin: 17 * 60,
				BreakStartMin: intPtr(12 * 60), BreakEndMin: intPtr(13 * 60),
			},
		},
		{
			name:    "start after end",
			window:  WorkingWindow{Weekday: time.Monday, StartMin: 17 * 60, EndMin: 9 * 60},
			wantErr: true,
		},
		{
			name:    "end past midnight",
			window:  WorkingWindow{Weekday: time.Monday, StartMin: 9 * 60, EndMin: 25 * 60},
			wantErr: true,
		},
		{
			name: "break missing end",
			window: WorkingWindow{
				Weekday: time.Monday, StartMin: 9 * 60, EndMin: 17 * 60,
				BreakStartMin: intPtr(12 * 60),
			},
			wantErr: true,
		},
		{
			name: "break outside window",
			window: WorkingWindow{
				Weekday: time.Monday, StartMin: 9 * 60, EndMin: 17 * 60,
				BreakStartMin: intPtr(8 * 60), BreakEndMin: intPtr(10 * 60),
			},
			wantErr: true,
		},
		{
			name: "inverted emergency window",
			window: WorkingWindow{
				Weekday: time.Friday, StartMin: 9 * 60, EndMin: 17 * 60,
				EmergencyStartMin: intPtr(17 * 60), EmergencyEndMin: intPtr(16 * 60),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.window.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidWindow) {
				t.Fatalf("expected ErrInvalidWindow, got %v", err)
			}
		})
	}
}

func TestValidateWindowsOverlap(t *testing.T) {
	windows := []WorkingWindow{
		{Weekday: time.Monday, StartMin: 9 * 60, EndMin: 13 * 60},
		{Weekday: time.Monday, StartMin: 12 * 60, EndMin: 17 * 60},
	}
	if err := ValidateWindows(windows); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected overlap to fail validation, got %v", err)
	}

	// Touching windows are fine, as is the same span on another day.
	windows = []WorkingWindow{
		{Weekday: time.Monday, StartMin: 9 * 60, EndMin: 13 * 60},
		{Weekday: time.Monday, StartMin: 13 * 60, EndMin: 17 * 60},
		{Weekday: time.Tuesday, StartMin: 9 * 60, EndMin: 13 * 60},
	}
	if err := ValidateWindows(windows); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)
	at := func(min int) time.Time { return base.Add(time.Duration(min) * time.Minute) }

	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{"identical", at(0), at(30), at(0), at(30), true},
		{"same start different length", at(0), at(30), at(0), at(60), true},
		{"partial overlap", at(0), at(30), at(15), at(45), true},
		{"contained", at(0), at(60), at(15), at(30), true},
		{"touching boundaries", at(0), at(30), at(30), at(60), false},
		{"disjoint", at(0), at(30), at(60), at(90), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.want {
				t.Fatalf("Overlaps = %v, want %v", got, tt.want)
			}
			// Symmetry
			if got := Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd); got != tt.want {
				t.Fatalf("Overlaps (flipped) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExceptionCovers(t *testing.T) {
	ex := Exception{
		StartDate: time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC),
	}

	if !ex.Covers(time.Date(2026, 9, 7, 15, 30, 0, 0, time.UTC)) {
		t.Error("expected start date to be covered")
	}
	if !ex.Covers(time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC)) {
		t.Error("expected end date to be covered (inclusive)")
	}
	if ex.Covers(time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)) {
		t.Error("expected day after end date to be uncovered")
	}

	bad := Exception{StartDate: ex.EndDate, EndDate: ex.StartDate}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"09:00", 9 * 60, false},
		{"00:00", 0, false},
		{"23:59", 23*60 + 59, false},
		{"24:00", 24 * 60, false},
		{"24:30", 0, true},
		{"9am", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}

	if got := FormatClock(9*60 + 5); got != "09:05" {
		t.Errorf("FormatClock = %q, want 09:05", got)
	}
}
