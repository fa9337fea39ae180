package reminders

import (
	"context"
	"time"

	"pet-care-reminders/internal/platform/caldate"
)

type Repository interface {
	// InsertBatch es todo-o-nada.
	InsertBatch(ctx context.Context, items []Reminder) error
	GetByID(ctx context.Context, id string) (Reminder, error)
	ListByPet(ctx context.Context, petID string, filter ListFilter) ([]Reminder, error)
	ListPending(ctx context.Context, petIDs []string, from, until caldate.Date) ([]Reminder, error)
	MarkCompleted(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error

	// ReplacePending borra los pendientes que m posee e inserta batch de forma atómica.
	// Devuelve cuántos borró.
	ReplacePending(ctx context.Context, m OwnerMatch, batch []Reminder) (int, error)
	// DeleteOwned borra todos los que m posee (pendientes y completados).
	DeleteOwned(ctx context.Context, m OwnerMatch) (int, error)
}

type ListFilter struct {
	From             *caldate.Date
	To               *caldate.Date
	IncludeCompleted bool
	Limit            int
}
