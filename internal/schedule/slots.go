package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Generator discretizes bookable ranges into fixed-size slots and marks each
// one against existing bookings and the provider's emergency window.
type Generator struct {
	calendar *Calendar
	repo     Repository
	booked   BookedIntervalSource
}

func NewGenerator(calendar *Calendar, repo Repository, booked BookedIntervalSource) *Generator {
	return &Generator{
		calendar: calendar,
		repo:     repo,
		booked:   booked,
	}
}

// GenerateSlots tiles each bookable range with consecutive durationMinutes
// slots starting at the range start. A trailing remainder shorter than the
// duration is dropped. urgent callers may take emergency-reserved slots.
func (g *Generator) GenerateSlots(ctx context.Context, providerID uuid.UUID, date time.Time, durationMinutes int, urgent bool) ([]Slot, error) {
	if durationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	ranges, err := g.calendar.BookableRanges(ctx, providerID, date)
	if err != nil {
		return nil, err
	}
	if len(ranges) == 0 {
		return nil, nil
	}

	dayStart := atMinute(date, 0)
	dayEnd := dayStart.Add(24 * time.Hour)
	bookedIntervals, err := g.booked.ListBookedIntervals(ctx, providerID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("list booked intervals: %w", err)
	}

	windows, err := g.repo.ListWorkingWindows(ctx, providerID, date.Weekday())
	if err != nil {
		return nil, fmt.Errorf("lookup working windows: %w", err)
	}

	dur := time.Duration(durationMinutes) * time.Minute
	var slots []Slot
	for _, r := range ranges {
		for start := r.Start; !start.Add(dur).After(r.End); start = start.Add(dur) {
			slot := Slot{
				ProviderID:      providerID,
				Start:           start,
				DurationMinutes: durationMinutes,
				Available:       true,
			}
			end := start.Add(dur)

			if reason, reserved := emergencyReason(windows, date, start, end, urgent); reserved {
				slot.Available = false
				slot.Reason = reason
			}
			for _, b := range bookedIntervals {
				if Overlaps(start, end, b.Start, b.End) {
					slot.Available = false
					slot.Reason = ReasonBooked
					break
				}
			}

			slots = append(slots, slot)
		}
	}
	return slots, nil
}

// CheckInterval classifies an arbitrary requested interval the way the slot
// grid would: outside bookable hours, on an exception day, inside the
// emergency window, or colliding with a booking. ok is true when the
// interval could be offered to this caller.
func (g *Generator) CheckInterval(ctx context.Context, providerID uuid.UUID, start time.Time, durationMinutes int, urgent bool) (bool, SlotReason, error) {
	if durationMinutes <= 0 {
		return false, "", ErrInvalidDuration
	}
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	ex, err := g.repo.FindApprovedException(ctx, providerID, start)
	if err != nil {
		return false, "", fmt.Errorf("lookup exception: %w", err)
	}
	if ex != nil && ex.Covers(start) {
		return false, ReasonOnException, nil
	}

	ranges, err := g.calendar.BookableRanges(ctx, providerID, start)
	if err != nil {
		return false, "", err
	}
	inside := false
	for _, r := range ranges {
		if !start.Before(r.Start) && !end.After(r.End) {
			inside = true
			break
		}
	}
	if !inside {
		return false, ReasonOutsideHours, nil
	}

	windows, err := g.repo.ListWorkingWindows(ctx, providerID, start.Weekday())
	if err != nil {
		return false, "", fmt.Errorf("lookup working windows: %w", err)
	}
	if reason, reserved := emergencyReason(windows, start, start, end, urgent); reserved {
		return false, reason, nil
	}

	booked, err := g.booked.ListBookedIntervals(ctx, providerID, start, end)
	if err != nil {
		return false, "", fmt.Errorf("list booked intervals: %w", err)
	}
	for _, b := range booked {
		if Overlaps(start, end, b.Start, b.End) {
			return false, ReasonBooked, nil
		}
	}

	return true, "", nil
}

func emergencyReason(windows []WorkingWindow, date time.Time, start, end time.Time, urgent bool) (SlotReason, bool) {
	if urgent {
		return "", false
	}
	for _, w := range windows {
		if w.EmergencyStartMin == nil {
			continue
		}
		es := atMinute(date, *w.EmergencyStartMin)
		ee := atMinute(date, *w.EmergencyEndMin)
		if Overlaps(start, end, es, ee) {
			return ReasonEmergencyReserved, true
		}
	}
	return "", false
}
