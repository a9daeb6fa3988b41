package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Calendar converts recurring weekly availability plus dated exceptions into
// concrete bookable ranges for a given date.
type Calendar struct {
	repo Repository
}

func NewCalendar(repo Repository) *Calendar {
	return &Calendar{repo: repo}
}

// BookableRanges returns the ordered [start, end) ranges the provider can be
// booked on the given date. An approved exception covering the date wins over
// the weekly schedule and yields no ranges. A break spanning the full working
// window also yields no ranges; that is a legitimate day off, not an error.
func (c *Calendar) BookableRanges(ctx context.Context, providerID uuid.UUID, date time.Time) ([]TimeRange, error) {
	ex, err := c.repo.FindApprovedException(ctx, providerID, date)
	if err != nil {
		return nil, fmt.Errorf("lookup exception: %w", err)
	}
	if ex != nil && ex.Covers(date) {
		return nil, nil
	}

	windows, err := c.repo.ListWorkingWindows(ctx, providerID, date.Weekday())
	if err != nil {
		return nil, fmt.Errorf("lookup working windows: %w", err)
	}

	var ranges []TimeRange
	for _, w := range windows {
		for _, r := range splitAroundBreak(w, date) {
			ranges = append(ranges, r)
		}
	}
	return ranges, nil
}

// splitAroundBreak subtracts the window's break, producing 0-2 ranges.
func splitAroundBreak(w WorkingWindow, date time.Time) []TimeRange {
	start := atMinute(date, w.StartMin)
	end := atMinute(date, w.EndMin)

	if w.BreakStartMin == nil {
		return []TimeRange{{Start: start, End: end}}
	}

	breakStart := atMinute(date, *w.BreakStartMin)
	breakEnd := atMinute(date, *w.BreakEndMin)

	var out []TimeRange
	if breakStart.After(start) {
		out = append(out, TimeRange{Start: start, End: breakStart})
	}
	if breakEnd.Before(end) {
		out = append(out, TimeRange{Start: breakEnd, End: end})
	}
	return out
}

// SetWeeklyAvailability validates and replaces a provider's recurring weekly
// windows in one shot.
func (c *Calendar) SetWeeklyAvailability(ctx context.Context, providerID uuid.UUID, windows []WorkingWindow) error {
	for i := range windows {
		windows[i].ProviderID = providerID
	}
	if err := ValidateWindows(windows); err != nil {
		return err
	}
	if err := c.repo.ReplaceWorkingWindows(ctx, providerID, windows); err != nil {
		return fmt.Errorf("replace working windows: %w", err)
	}
	return nil
}

// AddException records a dated unavailability range (vacation, sick leave).
func (c *Calendar) AddException(ctx context.Context, ex Exception) (*Exception, error) {
	if err := ex.Validate(); err != nil {
		return nil, err
	}
	created, err := c.repo.CreateException(ctx, ex)
	if err != nil {
		return nil, fmt.Errorf("create exception: %w", err)
	}
	return created, nil
}
