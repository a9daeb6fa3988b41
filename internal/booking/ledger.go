package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RomeoJackson199/dentibot-scheduling/internal/observability/metrics"
	redisclient "github.com/RomeoJackson199/dentibot-scheduling/internal/redis"
	"github.com/RomeoJackson199/dentibot-scheduling/pkg/logging"
)

const (
	EventAppointmentReserved  = "APPOINTMENT_RESERVED"
	EventAppointmentConfirmed = "APPOINTMENT_CONFIRMED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAppointmentCompleted = "APPOINTMENT_COMPLETED"
)

var (
	ErrSlotConflict      = errors.New("requested interval is no longer free")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidRequest    = errors.New("invalid reservation request")
)

// Ledger is the authoritative appointment store. Reserve serializes the
// overlap check and insert per provider so concurrent attempts for the same
// interval cannot both succeed.
type Ledger struct {
	repo    Repository
	locker  redisclient.Locker
	metrics *metrics.BookingMetrics
	logger  *logging.Logger

	defaultInitialStatus Status
}

func NewLedger(repo Repository, locker redisclient.Locker, defaultInitialStatus Status, m *metrics.BookingMetrics, logger *logging.Logger) *Ledger {
	if logger == nil {
		logger = logging.Default()
	}
	if !ValidInitialStatus(defaultInitialStatus) {
		defaultInitialStatus = StatusPending
	}
	return &Ledger{
		repo:                 repo,
		locker:               locker,
		metrics:              m,
		logger:               logger,
		defaultInitialStatus: defaultInitialStatus,
	}
}

// ReserveParams describes one reservation attempt. InitialStatus empty means
// the configured default applies.
type ReserveParams struct {
	ProviderID      uuid.UUID
	PatientID       uuid.UUID
	Start           time.Time
	DurationMinutes int
	Urgency         Urgency
	Reason          string
	Notes           string
	InitialStatus   Status
}

func (p ReserveParams) validate() error {
	if p.ProviderID == uuid.Nil {
		return fmt.Errorf("%w: provider id required", ErrInvalidRequest)
	}
	if p.PatientID == uuid.Nil {
		return fmt.Errorf("%w: patient id required", ErrInvalidRequest)
	}
	if p.Start.IsZero() {
		return fmt.Errorf("%w: start time required", ErrInvalidRequest)
	}
	if p.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive minutes", ErrInvalidRequest)
	}
	if p.InitialStatus != "" && !ValidInitialStatus(p.InitialStatus) {
		return fmt.Errorf("%w: initial status must be pending or confirmed", ErrInvalidRequest)
	}
	return nil
}

// Reserve atomically books the interval for the provider. Inside the
// provider lock it re-checks true interval overlap (slots can have
// heterogeneous durations, so a key equality check is not enough) and only
// then inserts. On conflict nothing is written and ErrSlotConflict is
// returned; the caller should refresh availability and re-select.
func (l *Ledger) Reserve(ctx context.Context, p ReserveParams) (*Appointment, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	status := p.InitialStatus
	if status == "" {
		status = l.defaultInitialStatus
	}
	urgency := p.Urgency
	if urgency == "" {
		urgency = UrgencyRoutine
	}

	var created *Appointment
	start := time.Now()

	err := l.locker.WithProviderLock(ctx, p.ProviderID, func(lockCtx context.Context) error {
		end := p.Start.Add(time.Duration(p.DurationMinutes) * time.Minute)
		overlapping, err := l.repo.FindOverlapping(lockCtx, p.ProviderID, p.Start, end)
		if err != nil {
			return fmt.Errorf("check overlapping appointments: %w", err)
		}
		if len(overlapping) > 0 {
			return ErrSlotConflict
		}

		appt, err := l.repo.CreateAppointment(lockCtx, Appointment{
			PatientID:       p.PatientID,
			ProviderID:      p.ProviderID,
			Start:           p.Start,
			DurationMinutes: p.DurationMinutes,
			Status:          status,
			Urgency:         urgency,
			Reason:          p.Reason,
			Notes:           p.Notes,
		})
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt

		l.logEvent(lockCtx, appt.ID, EventAppointmentReserved, map[string]any{
			"provider_id": p.ProviderID.String(),
			"patient_id":  p.PatientID.String(),
			"start":       p.Start,
			"duration":    p.DurationMinutes,
			"status":      string(status),
		})
		return nil
	})

	l.metrics.ObserveReserveLatency(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			// The provider stayed contended for the whole lock TTL; the
			// caller should re-query availability, same as a true conflict.
			l.metrics.ObserveReservation("conflict")
			return nil, ErrSlotConflict
		}
		if errors.Is(err, ErrSlotConflict) {
			l.metrics.ObserveReservation("conflict")
			return nil, err
		}
		l.metrics.ObserveReservation("error")
		return nil, err
	}

	l.metrics.ObserveReservation("reserved")
	return created, nil
}

// Confirm moves a pending appointment to confirmed.
func (l *Ledger) Confirm(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := l.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if !CanTransition(appt.Status, StatusConfirmed) {
		return nil, fmt.Errorf("%w: %s -> confirmed", ErrInvalidTransition, appt.Status)
	}

	updated, err := l.repo.UpdateAppointmentStatus(ctx, appt.ID, appt.Status, StatusConfirmed)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Lost a race with another transition.
			return nil, fmt.Errorf("%w: appointment changed concurrently", ErrInvalidTransition)
		}
		return nil, fmt.Errorf("confirm appointment: %w", err)
	}

	l.logEvent(ctx, updated.ID, EventAppointmentConfirmed, map[string]any{})
	return updated, nil
}

// Cancel transitions the appointment to cancelled. Completed and cancelled
// appointments stay terminal; there is no resurrection.
func (l *Ledger) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := l.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if !CanTransition(appt.Status, StatusCancelled) {
		return nil, fmt.Errorf("%w: %s -> cancelled", ErrInvalidTransition, appt.Status)
	}

	updated, err := l.repo.UpdateAppointmentStatus(ctx, appt.ID, appt.Status, StatusCancelled)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, fmt.Errorf("%w: appointment changed concurrently", ErrInvalidTransition)
		}
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	l.logEvent(ctx, updated.ID, EventAppointmentCancelled, map[string]any{
		"previous_status": string(appt.Status),
	})
	return updated, nil
}

// Complete performs the ledger half of the completion workflow: a single
// compare-and-set write that moves a pending/confirmed appointment to
// completed while storing notes and plan linkage. Only the completion
// orchestrator calls this.
func (l *Ledger) Complete(ctx context.Context, id uuid.UUID, consultationNotes *string, treatmentPlanID *uuid.UUID) (*Appointment, error) {
	updated, err := l.repo.CompleteAppointment(ctx, id, consultationNotes, treatmentPlanID)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Either unknown or already terminal; let the caller decide
			// which from the pre-loaded state.
			return nil, fmt.Errorf("%w: appointment not completable", ErrInvalidTransition)
		}
		return nil, fmt.Errorf("complete appointment: %w", err)
	}

	l.logEvent(ctx, updated.ID, EventAppointmentCompleted, map[string]any{})
	return updated, nil
}

// Get retrieves an appointment by ID.
func (l *Ledger) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := l.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

// ListByPatient retrieves a patient's appointments, newest first.
func (l *Ledger) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	appointments, err := l.repo.ListByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments by patient: %w", err)
	}
	return appointments, nil
}

func (l *Ledger) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		l.logger.Error("marshal event payload", "event", eventType, "error", err)
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := l.repo.InsertEvent(ctx, ev); err != nil {
		l.logger.Error("insert event log", "event", eventType, "appointment_id", appointmentID, "error", err)
	}
}
