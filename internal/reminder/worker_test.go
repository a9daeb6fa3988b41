package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/RomeoJackson199/dentibot-scheduling/internal/booking"
	"github.com/RomeoJackson199/dentibot-scheduling/internal/schedule"
)

type fakeReminderRepo struct {
	appointments map[uuid.UUID]*booking.Appointment
	findErr      error
	markErr      error
}

func newFakeReminderRepo() *fakeReminderRepo {
	return &fakeReminderRepo{appointments: make(map[uuid.UUID]*booking.Appointment)}
}

func (f *fakeReminderRepo) FindDueReminders(_ context.Context, now time.Time, leadTime time.Duration) ([]booking.Appointment, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []booking.Appointment
	for _, a := range f.appointments {
		if a.Status == booking.StatusConfirmed && a.ReminderSentAt == nil &&
			a.Start.After(now) && !a.Start.After(now.Add(leadTime)) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeReminderRepo) MarkReminderSent(_ context.Context, id uuid.UUID, at time.Time) error {
	if f.markErr != nil {
		return f.markErr
	}
	a, ok := f.appointments[id]
	if !ok {
		return booking.ErrAppointmentNotFound
	}
	a.ReminderSentAt = &at
	return nil
}

// The worker only touches the two methods above.

func (f *fakeReminderRepo) GetAppointmentByID(context.Context, uuid.UUID) (*booking.Appointment, error) {
	return nil, booking.ErrAppointmentNotFound
}

func (f *fakeReminderRepo) FindOverlapping(context.Context, uuid.UUID, time.Time, time.Time) ([]booking.Appointment, error) {
	return nil, nil
}

func (f *fakeReminderRepo) CreateAppointment(context.Context, booking.Appointment) (*booking.Appointment, error) {
	return nil, nil
}

func (f *fakeReminderRepo) UpdateAppointmentStatus(context.Context, uuid.UUID, booking.Status, booking.Status) (*booking.Appointment, error) {
	return nil, nil
}

func (f *fakeReminderRepo) CompleteAppointment(context.Context, uuid.UUID, *string, *uuid.UUID) (*booking.Appointment, error) {
	return nil, nil
}

func (f *fakeReminderRepo) ListByPatient(context.Context, uuid.UUID, int, int) ([]booking.Appointment, error) {
	return nil, nil
}

func (f *fakeReminderRepo) ListBookedIntervals(context.Context, uuid.UUID, time.Time, time.Time) ([]schedule.BookedInterval, error) {
	return nil, nil
}

func (f *fakeReminderRepo) InsertEvent(context.Context, booking.EventLog) error { return nil }

type fakeReminderNotifier struct {
	sent    []uuid.UUID
	failFor map[uuid.UUID]bool
}

func (f *fakeReminderNotifier) Send(_ context.Context, recipientID uuid.UUID, _, _, kind string) error {
	if kind != "reminder" {
		return errors.New("unexpected kind: " + kind)
	}
	if f.failFor[recipientID] {
		return errors.New("delivery failed")
	}
	f.sent = append(f.sent, recipientID)
	return nil
}

func addAppointment(repo *fakeReminderRepo, status booking.Status, start time.Time, remindedAt *time.Time) *booking.Appointment {
	a := &booking.Appointment{
		ID:              uuid.New(),
		PatientID:       uuid.New(),
		ProviderID:      uuid.New(),
		Start:           start,
		DurationMinutes: 30,
		Status:          status,
		ReminderSentAt:  remindedAt,
	}
	repo.appointments[a.ID] = a
	return a
}

func TestWorkerSendsDueReminders(t *testing.T) {
	repo := newFakeReminderRepo()
	notifier := &fakeReminderNotifier{}

	soon := time.Now().Add(2 * time.Hour)
	far := time.Now().Add(72 * time.Hour)
	already := time.Now()

	due := addAppointment(repo, booking.StatusConfirmed, soon, nil)
	addAppointment(repo, booking.StatusConfirmed, far, nil)       // outside lead time
	addAppointment(repo, booking.StatusPending, soon, nil)        // not confirmed
	addAppointment(repo, booking.StatusConfirmed, soon, &already) // already reminded

	w := NewWorker(repo, notifier, 24*time.Hour, nil)
	sent, err := w.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if sent != 1 {
		t.Fatalf("expected 1 reminder sent, got %d", sent)
	}
	if len(notifier.sent) != 1 || notifier.sent[0] != due.PatientID {
		t.Fatalf("expected reminder for due appointment, got %v", notifier.sent)
	}
	if repo.appointments[due.ID].ReminderSentAt == nil {
		t.Fatal("expected due appointment marked as reminded")
	}
}

func TestWorkerFailedSendRetriesNextRun(t *testing.T) {
	repo := newFakeReminderRepo()
	appt := addAppointment(repo, booking.StatusConfirmed, time.Now().Add(2*time.Hour), nil)

	notifier := &fakeReminderNotifier{failFor: map[uuid.UUID]bool{appt.PatientID: true}}
	w := NewWorker(repo, notifier, 24*time.Hour, nil)

	sent, err := w.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if sent != 0 {
		t.Fatalf("expected 0 sent, got %d", sent)
	}
	if repo.appointments[appt.ID].ReminderSentAt != nil {
		t.Fatal("failed send must leave the appointment unmarked for retry")
	}

	// Delivery recovers: the same appointment goes out on the next run.
	notifier.failFor = nil
	sent, err = w.Run(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if sent != 1 {
		t.Fatalf("expected retry to send 1 reminder, got %d", sent)
	}
}

func TestWorkerFindError(t *testing.T) {
	repo := newFakeReminderRepo()
	repo.findErr = errors.New("db down")

	w := NewWorker(repo, &fakeReminderNotifier{}, 24*time.Hour, nil)
	if _, err := w.Run(context.Background()); err == nil {
		t.Fatal("expected error when reminder lookup fails")
	}
}
