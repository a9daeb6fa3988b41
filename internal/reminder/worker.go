package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RomeoJackson199/dentibot-scheduling/internal/booking"
	"github.com/RomeoJackson199/dentibot-scheduling/pkg/logging"
)

// Notifier matches the notification gateway; reminders are best effort.
type Notifier interface {
	Send(ctx context.Context, recipientID uuid.UUID, subject, body, kind string) error
}

// Worker finds confirmed appointments starting within the lead time that
// have not been reminded yet and dispatches one reminder each.
type Worker struct {
	repo     booking.Repository
	notifier Notifier
	leadTime time.Duration
	logger   *logging.Logger
}

func NewWorker(repo booking.Repository, notifier Notifier, leadTime time.Duration, logger *logging.Logger) *Worker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{
		repo:     repo,
		notifier: notifier,
		leadTime: leadTime,
		logger:   logger,
	}
}

// Run processes one batch and returns how many reminders went out. A failed
// send leaves the appointment unmarked so the next run retries it.
func (w *Worker) Run(ctx context.Context) (int, error) {
	now := time.Now()
	due, err := w.repo.FindDueReminders(ctx, now, w.leadTime)
	if err != nil {
		return 0, fmt.Errorf("find due reminders: %w", err)
	}

	sent := 0
	for _, appt := range due {
		subject := "Upcoming appointment reminder"
		body := fmt.Sprintf(
			"This is a reminder of your appointment on %s. Reply or call us if you need to reschedule.",
			appt.Start.Format("Monday, 2 January 2006 at 15:04"))

		if err := w.notifier.Send(ctx, appt.PatientID, subject, body, "reminder"); err != nil {
			w.logger.Warn("reminder dispatch failed", "appointment_id", appt.ID, "error", err)
			continue
		}

		if err := w.repo.MarkReminderSent(ctx, appt.ID, now); err != nil {
			w.logger.Error("mark reminder sent", "appointment_id", appt.ID, "error", err)
			continue
		}
		sent++
	}

	return sent, nil
}
