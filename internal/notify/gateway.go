package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RomeoJackson199/dentibot-scheduling/internal/directory"
	"github.com/RomeoJackson199/dentibot-scheduling/pkg/logging"
)

// Message kinds; carried for logging and template selection downstream.
const (
	KindConfirmation      = "confirmation"
	KindReminder          = "reminder"
	KindCompletionSummary = "completion_summary"
	KindPaymentRequest    = "payment_request"
)

var ErrNoContactAddress = errors.New("patient has no email address on file")

// Gateway resolves a patient to a contact address and dispatches email.
// Every failure here is non-fatal to the booking/completion core; callers
// report it and move on.
type Gateway struct {
	email    EmailSender
	contacts directory.Lookup
	timeout  time.Duration
	logger   *logging.Logger
}

func NewGateway(email EmailSender, contacts directory.Lookup, timeout time.Duration, logger *logging.Logger) *Gateway {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Gateway{
		email:    email,
		contacts: contacts,
		timeout:  timeout,
		logger:   logger,
	}
}

// Send dispatches one message to the patient. A timeout is treated the same
// as a delivery failure.
func (g *Gateway) Send(ctx context.Context, recipientID uuid.UUID, subject, body, kind string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contact, err := g.contacts.GetContact(ctx, recipientID)
	if err != nil {
		return fmt.Errorf("resolve contact: %w", err)
	}
	if contact.Email == "" {
		return ErrNoContactAddress
	}

	msg := EmailMessage{
		To:      contact.Email,
		ToName:  contact.Name,
		Subject: subject,
		Body:    body,
	}
	if err := g.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %s email: %w", kind, err)
	}

	g.logger.Info("notification dispatched", "kind", kind, "recipient_id", recipientID)
	return nil
}
