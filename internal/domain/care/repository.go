package care

import "context"

// Repository guarda ambas variantes; el adapter elige la colección por Kind.
type Repository interface {
	Create(ctx context.Context, e CareEvent) error
	Update(ctx context.Context, e CareEvent) error
	GetByID(ctx context.Context, kind Kind, id string) (CareEvent, error)
	// ListByPet ordena por occurred_on ascendente y luego por created_at.
	ListByPet(ctx context.Context, kind Kind, petID string) ([]CareEvent, error)
	Delete(ctx context.Context, kind Kind, id string) error
}
