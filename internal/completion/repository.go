package completion

import (
	"context"
)

// Repository persists the artifacts the completion workflow produces. Each
// create is an independent row write; the invoice insert covers its line
// items in one transaction.
type Repository interface {
	CreateClinicalNote(ctx context.Context, n ClinicalNote) (*ClinicalNote, error)
	CreateInvoice(ctx context.Context, inv Invoice) (*Invoice, error)
	CreatePaymentRequest(ctx context.Context, pr PaymentRequest) (*PaymentRequest, error)
	CreatePrescription(ctx context.Context, p Prescription) (*Prescription, error)
	CreateTreatmentPlan(ctx context.Context, tp TreatmentPlan) (*TreatmentPlan, error)
}
