package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidDuration = errors.New("slot duration must be a positive number of minutes")
	ErrInvalidWindow   = errors.New("invalid working window")
	ErrInvalidRange    = errors.New("exception start date must not be after end date")
	ErrProviderNotFound = errors.New("provider not found")
)

// WorkingWindow is one recurring weekly working block for a provider.
// Times are minutes from midnight in the provider's local day.
type WorkingWindow struct {
	ID         uuid.UUID
	ProviderID uuid.UUID
	Weekday    time.Weekday
	StartMin   int
	EndMin     int

	// Optional mid-day break, must fall inside [StartMin, EndMin].
	BreakStartMin *int
	BreakEndMin   *int

	// Optional emergency-only window. Slots intersecting it are reserved
	// for urgent bookings.
	EmergencyStartMin *int
	EmergencyEndMin   *int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the single-window invariants: sane bounds and the break
// contained in the working window.
func (w WorkingWindow) Validate() error {
	if w.Weekday < time.Sunday || w.Weekday > time.Saturday {
		return fmt.Errorf("%w: weekday %d out of range", ErrInvalidWindow, w.Weekday)
	}
	if w.StartMin < 0 || w.EndMin > 24*60 || w.StartMin >= w.EndMin {
		return fmt.Errorf("%w: start=%d end=%d", ErrInvalidWindow, w.StartMin, w.EndMin)
	}
	if (w.BreakStartMin == nil) != (w.BreakEndMin == nil) {
		return fmt.Errorf("%w: break start and end must both be set", ErrInvalidWindow)
	}
	if w.BreakStartMin != nil {
		bs, be := *w.BreakStartMin, *w.BreakEndMin
		if bs >= be {
			return fmt.Errorf("%w: break start=%d end=%d", ErrInvalidWindow, bs, be)
		}
		if bs < w.StartMin || be > w.EndMin {
			return fmt.Errorf("%w: break outside working window", ErrInvalidWindow)
		}
	}
	if (w.EmergencyStartMin == nil) != (w.EmergencyEndMin == nil) {
		return fmt.Errorf("%w: emergency start and end must both be set", ErrInvalidWindow)
	}
	if w.EmergencyStartMin != nil && *w.EmergencyStartMin >= *w.EmergencyEndMin {
		return fmt.Errorf("%w: emergency start=%d end=%d", ErrInvalidWindow, *w.EmergencyStartMin, *w.EmergencyEndMin)
	}
	return nil
}

// ValidateWindows checks a provider's full weekly set: each window valid and
// no two windows for the same day overlapping.
func ValidateWindows(windows []WorkingWindow) error {
	for _, w := range windows {
		if err := w.Validate(); err != nil {
			return err
		}
	}
	for i := range windows {
		for j := i + 1; j < len(windows); j++ {
			a, b := windows[i], windows[j]
			if a.Weekday != b.Weekday {
				continue
			}
			if a.StartMin < b.EndMin && b.StartMin < a.EndMin {
				return fmt.Errorf("%w: overlapping windows on %s", ErrInvalidWindow, a.Weekday)
			}
		}
	}
	return nil
}

type ExceptionKind string

const (
	ExceptionVacation ExceptionKind = "vacation"
	ExceptionSick     ExceptionKind = "sick"
	ExceptionPersonal ExceptionKind = "personal"
)

// Exception is a date-inclusive range during which the provider is fully
// unavailable, superseding the weekly schedule once approved.
type Exception struct {
	ID         uuid.UUID
	ProviderID uuid.UUID
	StartDate  time.Time // date component only
	EndDate    time.Time
	Approved   bool
	Kind       ExceptionKind
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (e Exception) Validate() error {
	if dateOnly(e.StartDate).After(dateOnly(e.EndDate)) {
		return ErrInvalidRange
	}
	return nil
}

// Covers reports whether the exception's inclusive date range contains date.
func (e Exception) Covers(date time.Time) bool {
	d := dateOnly(date)
	return !d.Before(dateOnly(e.StartDate)) && !d.After(dateOnly(e.EndDate))
}

// TimeRange is a half-open [Start, End) bookable range on a concrete date.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

type SlotReason string

const (
	ReasonBooked            SlotReason = "booked"
	ReasonOnException       SlotReason = "on_exception"
	ReasonOutsideHours      SlotReason = "outside_hours"
	ReasonEmergencyReserved SlotReason = "emergency_reserved"
)

// Slot is a derived, never-persisted candidate booking interval.
type Slot struct {
	ProviderID      uuid.UUID
	Start           time.Time
	DurationMinutes int
	Available       bool
	Reason          SlotReason // empty when available
}

func (s Slot) End() time.Time {
	return s.Start.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// Overlaps is the single interval-overlap predicate shared by slot marking
// and the booking ledger's conflict check. Intervals are half-open, so equal
// start times always collide and touching boundaries do not.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// ParseClock converts an "HH:MM" string to minutes from midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || h*60+m > 24*60 {
		return 0, fmt.Errorf("clock %q out of range", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes from midnight as "HH:MM".
func FormatClock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func atMinute(date time.Time, min int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location()).
		Add(time.Duration(min) * time.Minute)
}
