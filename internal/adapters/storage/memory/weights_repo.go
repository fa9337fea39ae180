package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-care-reminders/internal/domain/weights"
)

type weightRepo struct {
	mu   sync.RWMutex
	byID map[string]weights.WeightRecord
}

func NewWeightRepo() weights.Repository {
	return &weightRepo{
		byID: make(map[string]weights.WeightRecord),
	}
}

func (r *weightRepo) Create(ctx context.Context, w weights.WeightRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(w.ID) == "" {
		return errors.New("weight record id required")
	}
	if _, exists := r.byID[w.ID]; exists {
		return errors.New("weight record already exists")
	}
	r.byID[w.ID] = w
	return nil
}

func (r *weightRepo) GetByID(ctx context.Context, id string) (weights.WeightRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.byID[id]
	if !ok {
		return weights.WeightRecord{}, ErrNotFound
	}
	return w, nil
}

func (r *weightRepo) ListByPet(ctx context.Context, petID string) ([]weights.WeightRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]weights.WeightRecord, 0)
	for _, w := range r.byID {
		if w.PetID == petID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].RecordedOn.Compare(out[j].RecordedOn); cmp != 0 {
			return cmp < 0
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *weightRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}
