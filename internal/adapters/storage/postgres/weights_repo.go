package postgres

import (
	"context"
	"database/sql"
	"errors"

	"pet-care-reminders/internal/domain/weights"
)

type WeightsRepo struct {
	db *sql.DB
}

func NewWeightsRepo(db *sql.DB) *WeightsRepo {
	return &WeightsRepo{db: db}
}

func (r *WeightsRepo) Create(ctx context.Context, w weights.WeightRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO weight_history (id, pet_id, weight_kg, recorded_on, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, w.ID, w.PetID, w.WeightKg, w.RecordedOn, w.Notes, w.CreatedAt)
	return err
}

func (r *WeightsRepo) GetByID(ctx context.Context, id string) (weights.WeightRecord, error) {
	var w weights.WeightRecord
	err := r.db.QueryRowContext(ctx, `
		SELECT id, pet_id, weight_kg, recorded_on, notes, created_at
		FROM weight_history
		WHERE id = $1
	`, id).Scan(&w.ID, &w.PetID, &w.WeightKg, &w.RecordedOn, &w.Notes, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return weights.WeightRecord{}, ErrNotFound
		}
		return weights.WeightRecord{}, err
	}
	return w, nil
}

func (r *WeightsRepo) ListByPet(ctx context.Context, petID string) ([]weights.WeightRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, pet_id, weight_kg, recorded_on, notes, created_at
		FROM weight_history
		WHERE pet_id = $1
		ORDER BY recorded_on ASC, created_at ASC, id ASC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]weights.WeightRecord, 0)
	for rows.Next() {
		var w weights.WeightRecord
		if err := rows.Scan(&w.ID, &w.PetID, &w.WeightKg, &w.RecordedOn, &w.Notes, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *WeightsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM weight_history WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
