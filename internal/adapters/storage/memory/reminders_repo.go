package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"pet-care-reminders/internal/domain/reminders"
	"pet-care-reminders/internal/platform/caldate"
)

// reminderRepo: ReplacePending y DeleteOwned corren bajo un único lock de escritura,
// así dos ediciones concurrentes del mismo evento no dejan duplicados.
type reminderRepo struct {
	mu   sync.RWMutex
	byID map[string]reminders.Reminder
}

func NewReminderRepo() reminders.Repository {
	return &reminderRepo{
		byID: make(map[string]reminders.Reminder),
	}
}

func (r *reminderRepo) InsertBatch(ctx context.Context, items []reminders.Reminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.insertLocked(items)
}

// insertLocked valida todo el lote antes de escribir (todo-o-nada).
func (r *reminderRepo) insertLocked(items []reminders.Reminder) error {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.ID) == "" {
			return errors.New("reminder id required")
		}
		if _, dup := seen[it.ID]; dup {
			return errors.New("duplicate reminder id in batch")
		}
		if _, exists := r.byID[it.ID]; exists {
			return errors.New("reminder already exists")
		}
		seen[it.ID] = struct{}{}
	}
	for _, it := range items {
		r.byID[it.ID] = it
	}
	return nil
}

func (r *reminderRepo) GetByID(ctx context.Context, id string) (reminders.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	x, ok := r.byID[id]
	if !ok {
		return reminders.Reminder{}, ErrNotFound
	}
	return x, nil
}

func (r *reminderRepo) ListByPet(ctx context.Context, petID string, f reminders.ListFilter) ([]reminders.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]reminders.Reminder, 0)
	for _, x := range r.byID {
		if x.PetID != petID {
			continue
		}
		if x.Completed && !f.IncludeCompleted {
			continue
		}
		if f.From != nil && x.DueDate.Before(*f.From) {
			continue
		}
		if f.To != nil && x.DueDate.After(*f.To) {
			continue
		}
		out = append(out, x)
	}
	sortByDue(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *reminderRepo) ListPending(ctx context.Context, petIDs []string, from, until caldate.Date) ([]reminders.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	want := make(map[string]struct{}, len(petIDs))
	for _, id := range petIDs {
		want[id] = struct{}{}
	}

	out := make([]reminders.Reminder, 0)
	for _, x := range r.byID {
		if _, ok := want[x.PetID]; !ok || x.Completed {
			continue
		}
		if x.DueDate.Before(from) || x.DueDate.After(until) {
			continue
		}
		out = append(out, x)
	}
	sortByDue(out)
	return out, nil
}

func (r *reminderRepo) MarkCompleted(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	x, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	if x.Completed {
		return nil
	}
	x.Completed = true
	x.CompletedAt = &at
	r.byID[id] = x
	return nil
}

func (r *reminderRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *reminderRepo) ReplacePending(ctx context.Context, m reminders.OwnerMatch, batch []reminders.Reminder) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doomed := make([]string, 0)
	for id, x := range r.byID {
		if !x.Completed && m.Owns(x) {
			doomed = append(doomed, id)
		}
	}

	// Se inserta sobre una copia para no dejar el store a medias si el lote falla.
	backup := make(map[string]reminders.Reminder, len(doomed))
	for _, id := range doomed {
		backup[id] = r.byID[id]
		delete(r.byID, id)
	}
	if err := r.insertLocked(batch); err != nil {
		for id, x := range backup {
			r.byID[id] = x
		}
		return 0, err
	}
	return len(doomed), nil
}

func (r *reminderRepo) DeleteOwned(ctx context.Context, m reminders.OwnerMatch) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, x := range r.byID {
		if m.Owns(x) {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

// sortByDue: due_date asc, luego created_at e id para que el orden sea estable.
func sortByDue(items []reminders.Reminder) {
	sort.Slice(items, func(i, j int) bool {
		if cmp := items[i].DueDate.Compare(items[j].DueDate); cmp != 0 {
			return cmp < 0
		}
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}
