package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-care-reminders/internal/domain/care"
)

// careRepo guarda una colección por Kind, como las tablas vaccinations/dewormings.
type careRepo struct {
	mu     sync.RWMutex
	byKind map[care.Kind]map[string]care.CareEvent
}

func NewCareRepo() care.Repository {
	return &careRepo{
		byKind: map[care.Kind]map[string]care.CareEvent{
			care.KindVaccine:   {},
			care.KindDeworming: {},
		},
	}
}

func (r *careRepo) collection(kind care.Kind) (map[string]care.CareEvent, error) {
	c, ok := r.byKind[kind]
	if !ok {
		return nil, errors.New("unknown care kind")
	}
	return c, nil
}

func (r *careRepo) Create(ctx context.Context, e care.CareEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(e.ID) == "" {
		return errors.New("care event id required")
	}
	c, err := r.collection(e.Kind)
	if err != nil {
		return err
	}
	if _, exists := c[e.ID]; exists {
		return errors.New("care event already exists")
	}
	c[e.ID] = cloneCare(e)
	return nil
}

func (r *careRepo) Update(ctx context.Context, e care.CareEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.collection(e.Kind)
	if err != nil {
		return err
	}
	if _, exists := c[e.ID]; !exists {
		return ErrNotFound
	}
	c[e.ID] = cloneCare(e)
	return nil
}

func (r *careRepo) GetByID(ctx context.Context, kind care.Kind, id string) (care.CareEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, err := r.collection(kind)
	if err != nil {
		return care.CareEvent{}, err
	}
	e, ok := c[id]
	if !ok {
		return care.CareEvent{}, ErrNotFound
	}
	return cloneCare(e), nil
}

func (r *careRepo) ListByPet(ctx context.Context, kind care.Kind, petID string) ([]care.CareEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, err := r.collection(kind)
	if err != nil {
		return nil, err
	}
	out := make([]care.CareEvent, 0)
	for _, e := range c {
		if e.PetID == petID {
			out = append(out, cloneCare(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].OccurredOn.Compare(out[j].OccurredOn); cmp != 0 {
			return cmp < 0
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *careRepo) Delete(ctx context.Context, kind care.Kind, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.collection(kind)
	if err != nil {
		return err
	}
	if _, ok := c[id]; !ok {
		return ErrNotFound
	}
	delete(c, id)
	return nil
}

func cloneCare(e care.CareEvent) care.CareEvent {
	if e.Recurrence != nil {
		rec := *e.Recurrence
		e.Recurrence = &rec
	}
	return e
}
