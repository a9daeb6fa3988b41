package api

import (
	"time"

	"github.com/google/uuid"
)

type WorkingWindowPayload struct {
	Weekday        int     `json:"weekday"` // 0 = Sunday
	Start          string  `json:"start"`   // "09:00"
	End            string  `json:"end"`
	BreakStart     *string `json:"break_start,omitempty"`
	BreakEnd       *string `json:"break_end,omitempty"`
	EmergencyStart *string `json:"emergency_start,omitempty"`
	EmergencyEnd   *string `json:"emergency_end,omitempty"`
}

type SetAvailabilityRequest struct {
	Windows []WorkingWindowPayload `json:"windows"`
}

type CreateExceptionRequest struct {
	StartDate string `json:"start_date"` // "2026-08-03"
	EndDate   string `json:"end_date"`
	Approved  bool   `json:"approved"`
	Kind      string `json:"kind"` // vacation, sick, personal
}

type SlotResponse struct {
	Start           time.Time `json:"start"`
	DurationMinutes int       `json:"duration_minutes"`
	Available       bool      `json:"available"`
	Reason          string    `json:"reason,omitempty"`
}

type ReserveRequest struct {
	ProviderID      string `json:"provider_id"`
	PatientID       string `json:"patient_id"`
	Start           string `json:"start"` // RFC 3339
	DurationMinutes int    `json:"duration_minutes"`
	Urgency         string `json:"urgency,omitempty"`
	Reason          string `json:"reason,omitempty"`
	Notes           string `json:"notes,omitempty"`
	InitialStatus   string `json:"initial_status,omitempty"` // pending or confirmed
}

type AppointmentResponse struct {
	ID              uuid.UUID  `json:"id"`
	PatientID       uuid.UUID  `json:"patient_id"`
	ProviderID      uuid.UUID  `json:"provider_id"`
	Start           time.Time  `json:"start"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          string     `json:"status"`
	Urgency         string     `json:"urgency"`
	Reason          string     `json:"reason,omitempty"`
	TreatmentPlanID *uuid.UUID `json:"treatment_plan_id,omitempty"`
}

type LineItemPayload struct {
	Name       string `json:"name"`
	ToothRef   string `json:"tooth_ref,omitempty"`
	PriceCents int    `json:"price_cents"`
}

type PrescriptionPayload struct {
	Medication   string `json:"medication"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	DurationText string `json:"duration_text"`
	Instructions string `json:"instructions,omitempty"`
}

type TreatmentPlanPayload struct {
	LinkExistingID *string `json:"link_existing_id,omitempty"`
	CreateNew      *struct {
		Title              string `json:"title"`
		Diagnosis          string `json:"diagnosis"`
		Priority           string `json:"priority"`
		EstimatedCostCents int    `json:"estimated_cost_cents"`
		StartDate          string `json:"start_date,omitempty"`
	} `json:"create_new,omitempty"`
}

type FollowUpPayload struct {
	Needed          bool   `json:"needed"`
	Start           string `json:"start,omitempty"` // RFC 3339
	DurationMinutes int    `json:"duration_minutes,omitempty"`
}

type CompleteRequest struct {
	LineItems         []LineItemPayload     `json:"line_items,omitempty"`
	ConsultationNotes string                `json:"consultation_notes,omitempty"`
	FollowUp          *FollowUpPayload      `json:"follow_up,omitempty"`
	PaymentReceived   bool                  `json:"payment_received"`
	Prescriptions     []PrescriptionPayload `json:"prescriptions,omitempty"`
	TreatmentPlan     *TreatmentPlanPayload `json:"treatment_plan,omitempty"`
}

type StepResultPayload struct {
	Step   string `json:"step"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type CompleteResponse struct {
	Appointment     *AppointmentResponse `json:"appointment,omitempty"`
	InvoiceID       *uuid.UUID           `json:"invoice_id,omitempty"`
	PaymentRequestID *uuid.UUID          `json:"payment_request_id,omitempty"`
	TreatmentPlanID *uuid.UUID           `json:"treatment_plan_id,omitempty"`
	FollowUpID      *uuid.UUID           `json:"follow_up_id,omitempty"`
	Steps           []StepResultPayload  `json:"steps"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
