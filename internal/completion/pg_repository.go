package completion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RomeoJackson199/dentibot-scheduling/internal/db"
)

type PgRepository struct {
	pool db.Querier
}

func NewPgRepository(pool db.Querier) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) CreateClinicalNote(ctx context.Context, n ClinicalNote) (*ClinicalNote, error) {
	id := n.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO clinical_notes (id, appointment_id, patient_id, kind, body, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id, created_at
	`, id, n.AppointmentID, n.PatientID, n.Kind, n.Body).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert clinical note: %w", err)
	}

	return &n, nil
}

// CreateInvoice inserts the invoice and its line items in one transaction;
// billing rows never appear half-written.
func (r *PgRepository) CreateInvoice(ctx context.Context, inv Invoice) (*Invoice, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	id := inv.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO invoices (id, appointment_id, total_cents, status, created_at)
		VALUES ($1, $2, $3, 'paid', now())
		RETURNING id, status, created_at
	`, id, inv.AppointmentID, inv.TotalCents).Scan(&inv.ID, &inv.Status, &inv.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert invoice: %w", err)
	}

	for _, li := range inv.LineItems {
		var toothRef *string
		if li.ToothRef != "" {
			toothRef = &li.ToothRef
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO invoice_items (id, invoice_id, name, tooth_ref, price_cents)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.New(), inv.ID, li.Name, toothRef, li.PriceCents); err != nil {
			return nil, fmt.Errorf("insert invoice item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *PgRepository) CreatePaymentRequest(ctx context.Context, pr PaymentRequest) (*PaymentRequest, error) {
	id := pr.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO payment_requests (id, appointment_id, amount_cents, status, recipient_contact, created_at)
		VALUES ($1, $2, $3, 'pending', $4, now())
		RETURNING id, status, created_at
	`, id, pr.AppointmentID, pr.AmountCents, pr.RecipientContact).Scan(&pr.ID, &pr.Status, &pr.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert payment request: %w", err)
	}

	return &pr, nil
}

func (r *PgRepository) CreatePrescription(ctx context.Context, p Prescription) (*Prescription, error) {
	id := p.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	prescribedAt := p.PrescribedAt
	if prescribedAt.IsZero() {
		prescribedAt = time.Now()
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO prescriptions
			(id, patient_id, provider_id, medication, dosage, frequency,
			 duration_text, instructions, status, prescribed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'active', $9)
		RETURNING id, status, prescribed_at
	`, id, p.PatientID, p.ProviderID, p.Medication, p.Dosage, p.Frequency,
		p.DurationText, p.Instructions, prescribedAt).Scan(&p.ID, &p.Status, &p.PrescribedAt)
	if err != nil {
		return nil, fmt.Errorf("insert prescription: %w", err)
	}

	return &p, nil
}

func (r *PgRepository) CreateTreatmentPlan(ctx context.Context, tp TreatmentPlan) (*TreatmentPlan, error) {
	id := tp.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	startDate := tp.StartDate
	if startDate.IsZero() {
		startDate = time.Now()
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO treatment_plans
			(id, patient_id, provider_id, title, diagnosis, priority,
			 estimated_cost_cents, status, start_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'active', $8, now())
		RETURNING id, status, created_at
	`, id, tp.PatientID, tp.ProviderID, tp.Title, tp.Diagnosis, tp.Priority,
		tp.EstimatedCostCents, startDate).Scan(&tp.ID, &tp.Status, &tp.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert treatment plan: %w", err)
	}

	tp.StartDate = startDate
	return &tp, nil
}
