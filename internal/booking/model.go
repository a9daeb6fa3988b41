package booking

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type Urgency string

const (
	UrgencyRoutine Urgency = "routine"
	UrgencyUrgent  Urgency = "urgent"
)

// Appointment is the ledger's authoritative booking record. For a given
// provider no two appointments with status pending/confirmed/completed may
// overlap; the ledger enforces this on every reserve.
type Appointment struct {
	ID              uuid.UUID
	PatientID       uuid.UUID
	ProviderID      uuid.UUID
	Start           time.Time
	DurationMinutes int
	Status          Status
	Urgency         Urgency
	Reason          string
	Notes           string

	TreatmentPlanID   *uuid.UUID
	ConsultationNotes *string

	ReminderSentAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a Appointment) End() time.Time {
	return a.Start.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Active reports whether the appointment holds its time interval for
// conflict purposes.
func (a Appointment) Active() bool {
	switch a.Status {
	case StatusPending, StatusConfirmed, StatusCompleted:
		return true
	}
	return false
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
