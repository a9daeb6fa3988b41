package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/RomeoJackson199/dentibot-scheduling/internal/schedule"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Repository contains all DB interactions needed by the ledger.
type Repository interface {
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// FindOverlapping returns active appointments whose interval overlaps
	// [start, end) for the provider. Called inside the provider lock.
	FindOverlapping(ctx context.Context, providerID uuid.UUID, start, end time.Time) ([]Appointment, error)

	CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error)

	// UpdateAppointmentStatus is a compare-and-set write: the row moves
	// from -> to only if it is still in from.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	// CompleteAppointment atomically moves a pending/confirmed appointment
	// to completed, storing consultation notes and the resolved treatment
	// plan linkage.
	CompleteAppointment(ctx context.Context, id uuid.UUID, consultationNotes *string, treatmentPlanID *uuid.UUID) (*Appointment, error)

	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error)

	// Slot generation reads bookings through this.
	ListBookedIntervals(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]schedule.BookedInterval, error)

	// Reminder worker
	FindDueReminders(ctx context.Context, now time.Time, leadTime time.Duration) ([]Appointment, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
