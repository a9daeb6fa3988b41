package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository contains the availability storage the calendar reads from.
type Repository interface {
	ListWorkingWindows(ctx context.Context, providerID uuid.UUID, weekday time.Weekday) ([]WorkingWindow, error)
	ListAllWorkingWindows(ctx context.Context, providerID uuid.UUID) ([]WorkingWindow, error)
	ReplaceWorkingWindows(ctx context.Context, providerID uuid.UUID, windows []WorkingWindow) error

	CreateException(ctx context.Context, ex Exception) (*Exception, error)
	FindApprovedException(ctx context.Context, providerID uuid.UUID, date time.Time) (*Exception, error)
}

// BookedInterval is an already-reserved span of a provider's day.
type BookedInterval struct {
	Start time.Time
	End   time.Time
}

// BookedIntervalSource yields the active (pending/confirmed/completed)
// appointment intervals for a provider. Implemented by the booking ledger's
// repository; kept as a local interface so the schedule package does not
// depend on booking.
type BookedIntervalSource interface {
	ListBookedIntervals(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]BookedInterval, error)
}
