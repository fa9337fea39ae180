package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pet-care-reminders/internal/domain/care"
	"pet-care-reminders/internal/domain/recurrence"
)

// CareRepo usa vaccinations o dewormings según Kind; ambas tablas tienen el mismo esquema.
type CareRepo struct {
	db *sql.DB
}

func NewCareRepo(db *sql.DB) *CareRepo {
	return &CareRepo{db: db}
}

const careColumns = `
	id, pet_id, label, occurred_on, notes,
	recurrence_enabled, recurrence_unit, recurrence_interval,
	created_at, updated_at`

func table(kind care.Kind) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("unknown care kind %q", kind)
	}
	return kind.Collection(), nil
}

func (r *CareRepo) Create(ctx context.Context, e care.CareEvent) error {
	t, err := table(e.Kind)
	if err != nil {
		return err
	}
	enabled, unit, interval := recurrenceColumns(e.Recurrence)
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO `+t+` (`+careColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		e.ID,
		e.PetID,
		e.Label,
		e.OccurredOn,
		e.Notes,
		enabled,
		unit,
		interval,
		e.CreatedAt,
		e.UpdatedAt,
	)
	return err
}

func (r *CareRepo) Update(ctx context.Context, e care.CareEvent) error {
	t, err := table(e.Kind)
	if err != nil {
		return err
	}
	enabled, unit, interval := recurrenceColumns(e.Recurrence)
	res, err := r.db.ExecContext(ctx, `
		UPDATE `+t+`
		SET
			label = $2,
			occurred_on = $3,
			notes = $4,
			recurrence_enabled = $5,
			recurrence_unit = $6,
			recurrence_interval = $7,
			updated_at = $8
		WHERE id = $1
	`,
		e.ID,
		e.Label,
		e.OccurredOn,
		e.Notes,
		enabled,
		unit,
		interval,
		e.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CareRepo) GetByID(ctx context.Context, kind care.Kind, id string) (care.CareEvent, error) {
	t, err := table(kind)
	if err != nil {
		return care.CareEvent{}, err
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+careColumns+` FROM `+t+` WHERE id = $1`, id)
	e, err := scanCare(row, kind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return care.CareEvent{}, ErrNotFound
		}
		return care.CareEvent{}, err
	}
	return e, nil
}

func (r *CareRepo) ListByPet(ctx context.Context, kind care.Kind, petID string) ([]care.CareEvent, error) {
	t, err := table(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+careColumns+`
		FROM `+t+`
		WHERE pet_id = $1
		ORDER BY occurred_on ASC, created_at ASC, id ASC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]care.CareEvent, 0)
	for rows.Next() {
		e, err := scanCare(rows, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *CareRepo) Delete(ctx context.Context, kind care.Kind, id string) error {
	t, err := table(kind)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+t+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCare(s rowScanner, kind care.Kind) (care.CareEvent, error) {
	var (
		e        care.CareEvent
		enabled  bool
		unit     sql.NullString
		interval sql.NullInt64
	)
	if err := s.Scan(
		&e.ID,
		&e.PetID,
		&e.Label,
		&e.OccurredOn,
		&e.Notes,
		&enabled,
		&unit,
		&interval,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return care.CareEvent{}, err
	}
	e.Kind = kind
	if unit.Valid {
		e.Recurrence = &care.Recurrence{
			Enabled:  enabled,
			Unit:     recurrence.Unit(unit.String),
			Interval: int(interval.Int64),
		}
	}
	return e, nil
}

// recurrenceColumns: sin recurrencia => unit/interval NULL.
func recurrenceColumns(rec *care.Recurrence) (bool, sql.NullString, sql.NullInt64) {
	if rec == nil {
		return false, sql.NullString{}, sql.NullInt64{}
	}
	interval := sql.NullInt64{}
	if rec.Interval > 0 {
		interval = sql.NullInt64{Int64: int64(rec.Interval), Valid: true}
	}
	return rec.Enabled, sql.NullString{String: string(rec.Unit), Valid: true}, interval
}
