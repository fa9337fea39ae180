package weights

import "context"

type Repository interface {
	Create(ctx context.Context, w WeightRecord) error
	GetByID(ctx context.Context, id string) (WeightRecord, error)
	// ListByPet ordena por recorded_on ascendente y luego por created_at.
	ListByPet(ctx context.Context, petID string) ([]WeightRecord, error)
	Delete(ctx context.Context, id string) error
}
