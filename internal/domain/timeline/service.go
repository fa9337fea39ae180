package timeline

import (
	"context"
	"time"

	"pet-care-reminders/internal/domain/care"
	"pet-care-reminders/internal/domain/pets"
	"pet-care-reminders/internal/domain/weights"
	"pet-care-reminders/internal/platform/caldate"
)

type WeightLister interface {
	List(ctx context.Context, petID string) ([]weights.WeightRecord, error)
}

type CareLister interface {
	List(ctx context.Context, petID string, kind care.Kind) ([]care.CareEvent, error)
}

// Service lee las fuentes y arma la proyección; no guarda estado.
type Service struct {
	weights WeightLister
	care    CareLister
	loc     *time.Location
}

func NewService(w WeightLister, c CareLister) *Service {
	return &Service{weights: w, care: c, loc: time.Local}
}

func (s *Service) WithLocation(loc *time.Location) *Service {
	if loc != nil {
		s.loc = loc
	}
	return s
}

// ForPet recibe la mascota ya autorizada.
func (s *Service) ForPet(ctx context.Context, p pets.Pet, order Order) ([]Event, error) {
	ws, err := s.weights.List(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	vs, err := s.care.List(ctx, p.ID, care.KindVaccine)
	if err != nil {
		return nil, err
	}
	ds, err := s.care.List(ctx, p.ID, care.KindDeworming)
	if err != nil {
		return nil, err
	}

	return Build(Input{
		PetID:        p.ID,
		PetWeight:    p.Weight,
		PetCreatedOn: caldate.Today(p.CreatedAt, s.loc),
		Weights:      ws,
		Vaccines:     vs,
		Dewormings:   ds,
	}, order), nil
}
