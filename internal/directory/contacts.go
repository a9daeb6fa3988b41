package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/RomeoJackson199/dentibot-scheduling/internal/db"
)

var ErrPatientNotFound = errors.New("patient not found")

// Contact is the addressing information for a patient, used by
// notifications and payment requests. Profile storage itself lives outside
// this service; this is a read-only view.
type Contact struct {
	PatientID uuid.UUID
	Name      string
	Email     string
	Phone     string
}

type Lookup interface {
	GetContact(ctx context.Context, patientID uuid.UUID) (*Contact, error)
}

type PgDirectory struct {
	pool db.Querier
}

func NewPgDirectory(pool db.Querier) *PgDirectory {
	return &PgDirectory{pool: pool}
}

func (d *PgDirectory) GetContact(ctx context.Context, patientID uuid.UUID) (*Contact, error) {
	var c Contact
	var email, phone *string

	err := d.pool.QueryRow(ctx, `
		SELECT id, name, email, phone
		FROM patients
		WHERE id = $1
	`, patientID).Scan(&c.PatientID, &c.Name, &email, &phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	if email != nil {
		c.Email = *email
	}
	if phone != nil {
		c.Phone = *phone
	}
	return &c, nil
}
