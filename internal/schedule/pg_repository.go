package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/RomeoJackson199/dentibot-scheduling/internal/db"
)

type PgRepository struct {
	pool db.Querier
}

func NewPgRepository(pool db.Querier) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanWindow(row pgx.Row) (*WorkingWindow, error) {
	var w WorkingWindow
	var weekday int

	err := row.Scan(
		&w.ID,
		&w.ProviderID,
		&weekday,
		&w.StartMin,
		&w.EndMin,
		&w.BreakStartMin,
		&w.BreakEndMin,
		&w.EmergencyStartMin,
		&w.EmergencyEndMin,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	w.Weekday = time.Weekday(weekday)
	return &w, nil
}

const windowColumns = `id, provider_id, weekday, start_min, end_min,
	break_start_min, break_end_min, emergency_start_min, emergency_end_min,
	created_at, updated_at`

func (r *PgRepository) ListWorkingWindows(ctx context.Context, providerID uuid.UUID, weekday time.Weekday) ([]WorkingWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+windowColumns+`
		FROM provider_availability
		WHERE provider_id = $1 AND weekday = $2
		ORDER BY start_min
	`, providerID, int(weekday))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectWindows(rows)
}

func (r *PgRepository) ListAllWorkingWindows(ctx context.Context, providerID uuid.UUID) ([]WorkingWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+windowColumns+`
		FROM provider_availability
		WHERE provider_id = $1
		ORDER BY weekday, start_min
	`, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectWindows(rows)
}

func collectWindows(rows pgx.Rows) ([]WorkingWindow, error) {
	var result []WorkingWindow
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ReplaceWorkingWindows swaps the provider's full weekly schedule inside a
// transaction so readers never observe a half-replaced week.
func (r *PgRepository) ReplaceWorkingWindows(ctx context.Context, providerID uuid.UUID, windows []WorkingWindow) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM provider_availability WHERE provider_id = $1
	`, providerID); err != nil {
		return fmt.Errorf("clear windows: %w", err)
	}

	for _, w := range windows {
		id := w.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO provider_availability
				(id, provider_id, weekday, start_min, end_min,
				 break_start_min, break_end_min, emergency_start_min, emergency_end_min,
				 created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		`, id, providerID, int(w.Weekday), w.StartMin, w.EndMin,
			w.BreakStartMin, w.BreakEndMin, w.EmergencyStartMin, w.EmergencyEndMin); err != nil {
			return fmt.Errorf("insert window: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) CreateException(ctx context.Context, ex Exception) (*Exception, error) {
	id := ex.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO availability_exceptions
			(id, provider_id, start_date, end_date, approved, kind, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, provider_id, start_date, end_date, approved, kind, created_at, updated_at
	`, id, ex.ProviderID, ex.StartDate, ex.EndDate, ex.Approved, ex.Kind)

	return scanException(row)
}

func (r *PgRepository) FindApprovedException(ctx context.Context, providerID uuid.UUID, date time.Time) (*Exception, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, provider_id, start_date, end_date, approved, kind, created_at, updated_at
		FROM availability_exceptions
		WHERE provider_id = $1
		  AND approved = true
		  AND start_date <= $2::date
		  AND end_date >= $2::date
		ORDER BY start_date
		LIMIT 1
	`, providerID, date)

	ex, err := scanException(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return ex, nil
}

func scanException(row pgx.Row) (*Exception, error) {
	var ex Exception
	var kind string

	err := row.Scan(
		&ex.ID,
		&ex.ProviderID,
		&ex.StartDate,
		&ex.EndDate,
		&ex.Approved,
		&kind,
		&ex.CreatedAt,
		&ex.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	ex.Kind = ExceptionKind(kind)
	return &ex, nil
}
