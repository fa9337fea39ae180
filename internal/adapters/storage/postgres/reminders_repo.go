package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"pet-care-reminders/internal/domain/reminders"
	"pet-care-reminders/internal/platform/caldate"
)

type RemindersRepo struct {
	db     *sql.DB
	tracer trace.Tracer
}

func NewRemindersRepo(db *sql.DB) *RemindersRepo {
	return &RemindersRepo{db: db, tracer: otel.Tracer("pet-care-reminders/postgres")}
}

const reminderColumns = `
	id, pet_id, source_event_id,
	title, description, due_date, type,
	completed, completed_at, created_at`

// ownedPredicate replica reminders.OwnerMatch.Owns. $1 pet, $2 source id, $3 label, $4 marker.
// strpos en vez de LIKE para no tener que escapar % y _ del label.
const ownedPredicate = `
	pet_id = $1 AND (
		source_event_id = $2
		OR (
			source_event_id IS NULL
			AND btrim($3) <> '' AND btrim($4) <> ''
			AND strpos(lower(title), lower($3)) > 0
			AND strpos(lower(description), lower($4)) > 0
		)
	)`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *RemindersRepo) InsertBatch(ctx context.Context, items []reminders.Reminder) error {
	if len(items) == 0 {
		return nil
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		return insertReminders(ctx, tx, items)
	})
}

func insertReminders(ctx context.Context, ex execer, items []reminders.Reminder) error {
	for _, it := range items {
		if _, err := ex.ExecContext(ctx, `
			INSERT INTO reminders (`+reminderColumns+`
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`,
			it.ID,
			it.PetID,
			toNullString(it.SourceEventID),
			it.Title,
			it.Description,
			it.DueDate,
			string(it.Type),
			it.Completed,
			toNullTime(it.CompletedAt),
			it.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert reminder %s: %w", it.ID, err)
		}
	}
	return nil
}

func (r *RemindersRepo) GetByID(ctx context.Context, id string) (reminders.Reminder, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE id = $1`, id)
	x, err := scanReminder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return reminders.Reminder{}, ErrNotFound
		}
		return reminders.Reminder{}, err
	}
	return x, nil
}

func (r *RemindersRepo) ListByPet(ctx context.Context, petID string, f reminders.ListFilter) ([]reminders.Reminder, error) {
	where := []string{"pet_id = $1"}
	args := []any{petID}

	if !f.IncludeCompleted {
		where = append(where, "completed = FALSE")
	}
	if f.From != nil {
		args = append(args, *f.From)
		where = append(where, fmt.Sprintf("due_date >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where = append(where, fmt.Sprintf("due_date <= $%d", len(args)))
	}

	q := `SELECT ` + reminderColumns + ` FROM reminders WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY due_date ASC, created_at ASC, id ASC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	return r.query(ctx, q, args...)
}

func (r *RemindersRepo) ListPending(ctx context.Context, petIDs []string, from, until caldate.Date) ([]reminders.Reminder, error) {
	if len(petIDs) == 0 {
		return []reminders.Reminder{}, nil
	}
	return r.query(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE pet_id = ANY($1)
			AND completed = FALSE
			AND due_date BETWEEN $2 AND $3
		ORDER BY due_date ASC, created_at ASC, id ASC
	`, petIDs, from, until)
}

func (r *RemindersRepo) MarkCompleted(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE reminders
		SET completed = TRUE, completed_at = COALESCE(completed_at, $2)
		WHERE id = $1
	`, id, at)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RemindersRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplacePending borra e inserta en la misma transacción. El lock de fila sobre la
// mascota serializa reemplazos concurrentes del mismo cronograma.
func (r *RemindersRepo) ReplacePending(ctx context.Context, m reminders.OwnerMatch, batch []reminders.Reminder) (int, error) {
	ctx, span := r.tracer.Start(ctx, "postgres.reminders.ReplacePending", trace.WithAttributes(
		attribute.String("pet.id", m.PetID),
		attribute.String("event.id", m.SourceEventID),
		attribute.Int("batch", len(batch)),
	))
	defer span.End()

	var removed int
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT 1 FROM pets WHERE id = $1 FOR UPDATE`, m.PetID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM reminders WHERE completed = FALSE AND `+ownedPredicate,
			m.PetID, m.SourceEventID, m.Label, m.Marker,
		)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		removed = int(n)
		return insertReminders(ctx, tx, batch)
	})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	span.SetAttributes(attribute.Int("removed", removed))
	return removed, nil
}

func (r *RemindersRepo) DeleteOwned(ctx context.Context, m reminders.OwnerMatch) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE `+ownedPredicate,
		m.PetID, m.SourceEventID, m.Label, m.Marker,
	)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *RemindersRepo) query(ctx context.Context, q string, args ...any) ([]reminders.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]reminders.Reminder, 0)
	for rows.Next() {
		x, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

func (r *RemindersRepo) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func scanReminder(s rowScanner) (reminders.Reminder, error) {
	var (
		x           reminders.Reminder
		source      sql.NullString
		typ         string
		completedAt sql.NullTime
	)
	if err := s.Scan(
		&x.ID,
		&x.PetID,
		&source,
		&x.Title,
		&x.Description,
		&x.DueDate,
		&typ,
		&x.Completed,
		&completedAt,
		&x.CreatedAt,
	); err != nil {
		return reminders.Reminder{}, err
	}
	x.SourceEventID = source.String
	x.Type = reminders.Type(typ)
	if completedAt.Valid {
		t := completedAt.Time
		x.CompletedAt = &t
	}
	return x, nil
}

func toNullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
