package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/RomeoJackson199/dentibot-scheduling/internal/directory"
)

type mockEmailSender struct {
	sent    []EmailMessage
	callErr error
}

func (m *mockEmailSender) Send(_ context.Context, msg EmailMessage) error {
	if m.callErr != nil {
		return m.callErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

type mockDirectory struct {
	contacts map[uuid.UUID]*directory.Contact
	err      error
}

func (m *mockDirectory) GetContact(_ context.Context, patientID uuid.UUID) (*directory.Contact, error) {
	if m.err != nil {
		return nil, m.err
	}
	if c, ok := m.contacts[patientID]; ok {
		return c, nil
	}
	return nil, directory.ErrPatientNotFound
}

func TestGatewaySend(t *testing.T) {
	patientID := uuid.New()
	sender := &mockEmailSender{}
	dir := &mockDirectory{contacts: map[uuid.UUID]*directory.Contact{
		patientID: {PatientID: patientID, Name: "Jane Doe", Email: "jane@example.com"},
	}}

	gw := NewGateway(sender, dir, time.Second, nil)

	err := gw.Send(context.Background(), patientID, "Reminder", "See you tomorrow", KindReminder)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.To != "jane@example.com" {
		t.Errorf("expected email to jane@example.com, got %s", msg.To)
	}
	if msg.ToName != "Jane Doe" {
		t.Errorf("expected recipient name, got %s", msg.ToName)
	}
	if msg.Subject != "Reminder" {
		t.Errorf("unexpected subject %q", msg.Subject)
	}
}

func TestGatewaySendNoEmailOnFile(t *testing.T) {
	patientID := uuid.New()
	sender := &mockEmailSender{}
	dir := &mockDirectory{contacts: map[uuid.UUID]*directory.Contact{
		patientID: {PatientID: patientID, Name: "Jane Doe", Phone: "+32470000000"},
	}}

	gw := NewGateway(sender, dir, time.Second, nil)

	err := gw.Send(context.Background(), patientID, "Reminder", "body", KindReminder)
	if !errors.Is(err, ErrNoContactAddress) {
		t.Fatalf("expected ErrNoContactAddress, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatal("expected no email sent")
	}
}

func TestGatewaySendUnknownPatient(t *testing.T) {
	gw := NewGateway(&mockEmailSender{}, &mockDirectory{}, time.Second, nil)

	err := gw.Send(context.Background(), uuid.New(), "Reminder", "body", KindReminder)
	if !errors.Is(err, directory.ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestGatewaySendDeliveryFailure(t *testing.T) {
	patientID := uuid.New()
	sender := &mockEmailSender{callErr: errors.New("sendgrid down")}
	dir := &mockDirectory{contacts: map[uuid.UUID]*directory.Contact{
		patientID: {PatientID: patientID, Email: "jane@example.com"},
	}}

	gw := NewGateway(sender, dir, time.Second, nil)

	if err := gw.Send(context.Background(), patientID, "Reminder", "body", KindReminder); err == nil {
		t.Fatal("expected delivery failure to surface")
	}
}

func TestStubEmailSender(t *testing.T) {
	s := NewStubEmailSender(nil)
	if err := s.Send(context.Background(), EmailMessage{To: "a@b.c"}); err != nil {
		t.Fatalf("stub should never fail, got %v", err)
	}
}
