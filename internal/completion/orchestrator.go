package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RomeoJackson199/dentibot-scheduling/internal/booking"
	"github.com/RomeoJackson199/dentibot-scheduling/internal/directory"
	"github.com/RomeoJackson199/dentibot-scheduling/internal/observability/metrics"
	"github.com/RomeoJackson199/dentibot-scheduling/pkg/logging"
)

// Notifier dispatches patient-facing messages; failures are never fatal to
// the workflow.
type Notifier interface {
	Send(ctx context.Context, recipientID uuid.UUID, subject, body, kind string) error
}

const (
	kindCompletionSummary = "completion_summary"
	kindPaymentRequest    = "payment_request"
)

// Orchestrator runs the guided completion workflow: clinical notes, billing,
// prescriptions, treatment plan linkage, the status transition, follow-up
// booking and the patient notification, with fatal/non-fatal semantics per
// step. It is stateless between calls.
type Orchestrator struct {
	ledger   *booking.Ledger
	repo     Repository
	contacts directory.Lookup
	notifier Notifier
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger

	// Bound on follow-up booking and notification dispatch; a timeout is a
	// reported failure, not an abort.
	sideEffectTimeout time.Duration
}

func NewOrchestrator(
	ledger *booking.Ledger,
	repo Repository,
	contacts directory.Lookup,
	notifier Notifier,
	sideEffectTimeout time.Duration,
	m *metrics.BookingMetrics,
	logger *logging.Logger,
) *Orchestrator {
	if logger == nil {
		logger = logging.Default()
	}
	if sideEffectTimeout <= 0 {
		sideEffectTimeout = 10 * time.Second
	}
	return &Orchestrator{
		ledger:            ledger,
		repo:              repo,
		contacts:          contacts,
		notifier:          notifier,
		metrics:           m,
		logger:            logger,
		sideEffectTimeout: sideEffectTimeout,
	}
}

// Complete drives the appointment through the completion workflow. A fatal
// step failure returns *Error and leaves the appointment untouched; once the
// status transition commits, later failures are only reported in the Result.
func (o *Orchestrator) Complete(ctx context.Context, appointmentID uuid.UUID, req Request) (*Result, error) {
	appt, err := o.ledger.Get(ctx, appointmentID)
	if err != nil {
		o.metrics.ObserveCompletion("failed")
		return nil, &Error{Step: StepStatusTransition, Err: err}
	}
	if !booking.CanTransition(appt.Status, booking.StatusCompleted) {
		o.metrics.ObserveCompletion("failed")
		return nil, &Error{
			Step: StepStatusTransition,
			Err:  fmt.Errorf("%w: %s -> completed", booking.ErrInvalidTransition, appt.Status),
		}
	}

	if req.TreatmentPlan != nil && req.TreatmentPlan.LinkExistingID != nil && req.TreatmentPlan.CreateNew != nil {
		o.metrics.ObserveCompletion("failed")
		return nil, &Error{
			Step: StepTreatmentPlan,
			Err:  errors.New("treatment plan must either link an existing plan or create a new one, not both"),
		}
	}

	res := &Result{}

	// Step 1: treatment line items as a clinical note. Fatal: the clinical
	// record is mandatory when treatments were supplied.
	if len(req.LineItems) > 0 {
		note := ClinicalNote{
			AppointmentID: appt.ID,
			PatientID:     appt.PatientID,
			Kind:          NoteKindTreatments,
			Body:          formatTreatmentNote(req.LineItems),
		}
		if _, err := o.repo.CreateClinicalNote(ctx, note); err != nil {
			return o.fatal(res, StepTreatmentNotes, err)
		}
		res.record(StepTreatmentNotes, StepOK, nil)
	} else {
		res.record(StepTreatmentNotes, StepSkipped, nil)
	}

	// Step 2: consultation notes. Fatal when non-empty notes were supplied.
	if strings.TrimSpace(req.ConsultationNotes) != "" {
		note := ClinicalNote{
			AppointmentID: appt.ID,
			PatientID:     appt.PatientID,
			Kind:          NoteKindConsultation,
			Body:          req.ConsultationNotes,
		}
		if _, err := o.repo.CreateClinicalNote(ctx, note); err != nil {
			return o.fatal(res, StepConsultationNotes, err)
		}
		res.record(StepConsultationNotes, StepOK, nil)
	} else {
		res.record(StepConsultationNotes, StepSkipped, nil)
	}

	// Step 3: billing artifact. Exactly one of invoice/payment request for a
	// non-zero total. Artifact creation is fatal; the payment-request
	// notification is not.
	total := req.Total()
	if total > 0 {
		if req.PaymentReceived {
			inv, err := o.repo.CreateInvoice(ctx, Invoice{
				AppointmentID: appt.ID,
				TotalCents:    total,
				LineItems:     req.LineItems,
			})
			if err != nil {
				return o.fatal(res, StepBilling, err)
			}
			res.Invoice = inv
		} else {
			contactAddr := o.lookupContactAddress(ctx, appt.PatientID)
			pr, err := o.repo.CreatePaymentRequest(ctx, PaymentRequest{
				AppointmentID:    appt.ID,
				AmountCents:      total,
				RecipientContact: contactAddr,
			})
			if err != nil {
				return o.fatal(res, StepBilling, err)
			}
			res.PaymentRequest = pr

			// Best effort; the request exists and can be resent later.
			if err := o.dispatch(ctx, appt.PatientID,
				"Payment request for your visit",
				formatPaymentRequestBody(total),
				kindPaymentRequest); err != nil {
				o.metrics.ObserveStepFailure(StepBillingNotify)
				o.logger.Warn("payment request notification failed",
					"appointment_id", appt.ID, "error", err)
				res.record(StepBillingNotify, StepFailed, err)
			} else {
				res.record(StepBillingNotify, StepOK, nil)
			}
		}
		res.record(StepBilling, StepOK, nil)
	} else {
		res.record(StepBilling, StepSkipped, nil)
	}

	// Step 4: prescriptions. Non-fatal per item; the clinical text already
	// exists in the notes as a fallback record.
	if len(req.Prescriptions) > 0 {
		var failed []string
		for _, in := range req.Prescriptions {
			p, err := o.repo.CreatePrescription(ctx, Prescription{
				PatientID:    appt.PatientID,
				ProviderID:   appt.ProviderID,
				Medication:   in.Medication,
				Dosage:       in.Dosage,
				Frequency:    in.Frequency,
				DurationText: in.DurationText,
				Instructions: in.Instructions,
			})
			if err != nil {
				failed = append(failed, fmt.Sprintf("%s: %v", in.Medication, err))
				continue
			}
			res.Prescriptions = append(res.Prescriptions, *p)
		}
		if len(failed) > 0 {
			o.metrics.ObserveStepFailure(StepPrescriptions)
			res.record(StepPrescriptions, StepFailed, errors.New(strings.Join(failed, "; ")))
		} else {
			res.record(StepPrescriptions, StepOK, nil)
		}
	} else {
		res.record(StepPrescriptions, StepSkipped, nil)
	}

	// Step 5: treatment plan resolution. Non-fatal; completion proceeds
	// without linkage on failure.
	var planID *uuid.UUID
	switch {
	case req.TreatmentPlan == nil:
		res.record(StepTreatmentPlan, StepSkipped, nil)
	case req.TreatmentPlan.LinkExistingID != nil:
		planID = req.TreatmentPlan.LinkExistingID
		res.record(StepTreatmentPlan, StepOK, nil)
	case req.TreatmentPlan.CreateNew != nil:
		nw := req.TreatmentPlan.CreateNew
		tp, err := o.repo.CreateTreatmentPlan(ctx, TreatmentPlan{
			PatientID:          appt.PatientID,
			ProviderID:         appt.ProviderID,
			Title:              nw.Title,
			Diagnosis:          nw.Diagnosis,
			Priority:           nw.Priority,
			EstimatedCostCents: nw.EstimatedCostCents,
			StartDate:          nw.StartDate,
		})
		if err != nil {
			o.metrics.ObserveStepFailure(StepTreatmentPlan)
			o.logger.Warn("treatment plan creation failed", "appointment_id", appt.ID, "error", err)
			res.record(StepTreatmentPlan, StepFailed, err)
		} else {
			planID = &tp.ID
			res.record(StepTreatmentPlan, StepOK, nil)
		}
	default:
		res.record(StepTreatmentPlan, StepSkipped, nil)
	}
	res.TreatmentPlanID = planID

	// Step 6: the status transition. Point of no return; a compare-and-set
	// on the current status so two concurrent completions cannot both win.
	var consultationNotes *string
	if strings.TrimSpace(req.ConsultationNotes) != "" {
		consultationNotes = &req.ConsultationNotes
	}
	completed, err := o.ledger.Complete(ctx, appt.ID, consultationNotes, planID)
	if err != nil {
		return o.fatal(res, StepStatusTransition, err)
	}
	res.record(StepStatusTransition, StepOK, nil)
	res.Appointment = &AppointmentSummary{
		ID:        completed.ID,
		PatientID: completed.PatientID,
		Status:    string(completed.Status),
		Start:     completed.Start,
	}

	// Step 7: follow-up booking. Non-fatal; a conflict is reported, the
	// completed status stands.
	if req.FollowUp != nil && req.FollowUp.Needed {
		fuCtx, cancel := context.WithTimeout(ctx, o.sideEffectTimeout)
		followUp, err := o.ledger.Reserve(fuCtx, booking.ReserveParams{
			ProviderID:      appt.ProviderID,
			PatientID:       appt.PatientID,
			Start:           req.FollowUp.Start,
			DurationMinutes: req.FollowUp.DurationMinutes,
			Reason:          "Follow-up: " + appt.Reason,
		})
		cancel()
		if err != nil {
			o.metrics.ObserveStepFailure(StepFollowUp)
			o.logger.Warn("follow-up booking failed", "appointment_id", appt.ID, "error", err)
			res.record(StepFollowUp, StepFailed, err)
		} else {
			res.FollowUpID = &followUp.ID
			res.record(StepFollowUp, StepOK, nil)
		}
	} else {
		res.record(StepFollowUp, StepSkipped, nil)
	}

	// Step 8: completion summary notification. Non-fatal.
	if err := o.dispatch(ctx, appt.PatientID,
		"Your visit summary",
		formatCompletionSummary(req, res),
		kindCompletionSummary); err != nil {
		o.metrics.ObserveStepFailure(StepNotification)
		o.logger.Warn("completion notification failed", "appointment_id", appt.ID, "error", err)
		res.record(StepNotification, StepFailed, err)
	} else {
		res.record(StepNotification, StepOK, nil)
	}

	o.metrics.ObserveCompletion("completed")
	return res, nil
}

// fatal records the failed step, counts it, and wraps the error; the
// appointment status has not been mutated on this path.
func (o *Orchestrator) fatal(res *Result, step string, err error) (*Result, error) {
	res.record(step, StepFailed, err)
	o.metrics.ObserveStepFailure(step)
	o.metrics.ObserveCompletion("failed")
	return nil, &Error{Step: step, Err: err}
}

func (o *Orchestrator) dispatch(ctx context.Context, patientID uuid.UUID, subject, body, kind string) error {
	if o.notifier == nil {
		return errors.New("no notifier configured")
	}
	nCtx, cancel := context.WithTimeout(ctx, o.sideEffectTimeout)
	defer cancel()
	return o.notifier.Send(nCtx, patientID, subject, body, kind)
}

func (o *Orchestrator) lookupContactAddress(ctx context.Context, patientID uuid.UUID) string {
	if o.contacts == nil {
		return ""
	}
	contact, err := o.contacts.GetContact(ctx, patientID)
	if err != nil {
		o.logger.Warn("contact lookup failed", "patient_id", patientID, "error", err)
		return ""
	}
	if contact.Email != "" {
		return contact.Email
	}
	return contact.Phone
}

func formatTreatmentNote(items []TreatmentLineItem) string {
	var b strings.Builder
	b.WriteString("Treatments performed:\n")
	for _, li := range items {
		if li.ToothRef != "" {
			fmt.Fprintf(&b, "- %s (tooth %s): %s\n", li.Name, li.ToothRef, formatCents(li.PriceCents))
		} else {
			fmt.Fprintf(&b, "- %s: %s\n", li.Name, formatCents(li.PriceCents))
		}
	}
	return b.String()
}

func formatPaymentRequestBody(totalCents int) string {
	return fmt.Sprintf(
		"Thank you for your visit. The outstanding balance for today's treatments is %s. "+
			"You will receive payment instructions shortly.", formatCents(totalCents))
}

func formatCompletionSummary(req Request, res *Result) string {
	var b strings.Builder
	b.WriteString("Thank you for your visit.\n\n")

	if len(req.LineItems) > 0 {
		b.WriteString(formatTreatmentNote(req.LineItems))
		b.WriteString("\n")
	}

	switch {
	case res.Invoice != nil:
		fmt.Fprintf(&b, "Paid today: %s.\n", formatCents(res.Invoice.TotalCents))
	case res.PaymentRequest != nil:
		fmt.Fprintf(&b, "Outstanding balance: %s. A payment request has been sent.\n",
			formatCents(res.PaymentRequest.AmountCents))
	}

	if len(res.Prescriptions) > 0 {
		b.WriteString("Prescriptions:\n")
		for _, p := range res.Prescriptions {
			fmt.Fprintf(&b, "- %s %s, %s\n", p.Medication, p.Dosage, p.Frequency)
		}
	}

	if res.FollowUpID != nil && req.FollowUp != nil {
		fmt.Fprintf(&b, "Your follow-up is booked for %s.\n",
			req.FollowUp.Start.Format("Monday, 2 January 2006 at 15:04"))
	}

	return b.String()
}

func formatCents(cents int) string {
	return fmt.Sprintf("€%d.%02d", cents/100, cents%100)
}
