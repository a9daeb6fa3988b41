package completion

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TreatmentLineItem is one performed treatment, owned by the appointment
// being completed until persisted as part of a billing artifact or note.
type TreatmentLineItem struct {
	Name       string
	ToothRef   string // optional tooth reference, e.g. "16" or "UL6"
	PriceCents int
}

// PrescriptionInput is the caller-supplied prescription content.
type PrescriptionInput struct {
	Medication   string
	Dosage       string
	Frequency    string
	DurationText string
	Instructions string
}

// Prescription is the persisted record.
type Prescription struct {
	ID           uuid.UUID
	PatientID    uuid.UUID
	ProviderID   uuid.UUID
	Medication   string
	Dosage       string
	Frequency    string
	DurationText string
	Instructions string
	Status       string // always active at creation
	PrescribedAt time.Time
}

// Invoice is the paid billing artifact produced when payment was received at
// completion time.
type Invoice struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	TotalCents    int
	Status        string // paid
	LineItems     []TreatmentLineItem
	CreatedAt     time.Time
}

// PaymentRequest is the pending billing artifact produced when payment was
// not received; exactly one of Invoice/PaymentRequest exists per completed
// appointment with a non-zero total.
type PaymentRequest struct {
	ID               uuid.UUID
	AppointmentID    uuid.UUID
	AmountCents      int
	Status           string // pending
	RecipientContact string
	CreatedAt        time.Time
}

type TreatmentPlan struct {
	ID                 uuid.UUID
	PatientID          uuid.UUID
	ProviderID         uuid.UUID
	Title              string
	Diagnosis          string
	Priority           string
	EstimatedCostCents int
	Status             string // active
	StartDate          time.Time
	CreatedAt          time.Time
}

// Clinical note kinds.
const (
	NoteKindTreatments   = "treatments"
	NoteKindConsultation = "consultation"
)

type ClinicalNote struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	PatientID     uuid.UUID
	Kind          string
	Body          string
	CreatedAt     time.Time
}

// NewTreatmentPlan describes a plan created during completion.
type NewTreatmentPlan struct {
	Title              string
	Diagnosis          string
	Priority           string
	EstimatedCostCents int
	StartDate          time.Time
}

// TreatmentPlanRef resolves to either an existing plan or a new one, never
// both for the same completion.
type TreatmentPlanRef struct {
	LinkExistingID *uuid.UUID
	CreateNew      *NewTreatmentPlan
}

// FollowUp asks for a follow-up appointment to be booked after completion.
type FollowUp struct {
	Needed          bool
	Start           time.Time
	DurationMinutes int
}

// Request is the full completion form, assembled by the caller and passed
// once; the orchestrator holds no state between calls.
type Request struct {
	LineItems         []TreatmentLineItem
	ConsultationNotes string
	FollowUp          *FollowUp
	PaymentReceived   bool
	Prescriptions     []PrescriptionInput
	TreatmentPlan     *TreatmentPlanRef
}

// Total returns the billable sum of the line items in cents.
func (r Request) Total() int {
	total := 0
	for _, li := range r.LineItems {
		total += li.PriceCents
	}
	return total
}

// Step names, in processing order.
const (
	StepTreatmentNotes    = "treatment_notes"
	StepConsultationNotes = "consultation_notes"
	StepBilling           = "billing"
	StepBillingNotify     = "billing_notification"
	StepPrescriptions     = "prescriptions"
	StepTreatmentPlan     = "treatment_plan"
	StepStatusTransition  = "status_transition"
	StepFollowUp          = "follow_up"
	StepNotification      = "notification"
)

type StepStatus string

const (
	StepOK      StepStatus = "ok"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

type StepResult struct {
	Step   string
	Status StepStatus
	Error  string // set when Status is failed
}

// Result reports the workflow outcome, including which steps succeeded so
// the caller can surface partial-success messaging.
type Result struct {
	Appointment     *AppointmentSummary
	Invoice         *Invoice
	PaymentRequest  *PaymentRequest
	Prescriptions   []Prescription
	TreatmentPlanID *uuid.UUID
	FollowUpID      *uuid.UUID
	Steps           []StepResult
}

func (r *Result) record(step string, status StepStatus, err error) {
	sr := StepResult{Step: step, Status: status}
	if err != nil {
		sr.Error = err.Error()
	}
	r.Steps = append(r.Steps, sr)
}

// AppointmentSummary is the post-completion view of the appointment the
// result carries back to the caller.
type AppointmentSummary struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	Status    string
	Start     time.Time
}

// Error is the fatal-path completion failure: the appointment stayed in its
// pre-completion state.
type Error struct {
	Step string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("completion failed at step %s: %v", e.Step, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
