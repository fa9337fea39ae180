package weights

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"pet-care-reminders/internal/platform/apperr"
	"pet-care-reminders/internal/platform/caldate"
)

// MaxWeightKg descarta errores de tipeo evidentes (gramos por kilos).
const MaxWeightKg = 200

type Service struct {
	repo Repository
	now  func() time.Time
	loc  *time.Location
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
		loc:  time.Local,
	}
}

func (s *Service) WithLocation(loc *time.Location) *Service {
	if loc != nil {
		s.loc = loc
	}
	return s
}

type RecordInput struct {
	WeightKg   float64
	RecordedOn caldate.Date // zero => hoy
	Notes      string
}

func (s *Service) Record(ctx context.Context, petID string, in RecordInput) (WeightRecord, error) {
	if strings.TrimSpace(petID) == "" {
		return WeightRecord{}, apperr.Invalid("pet_id", "is required")
	}
	if math.IsNaN(in.WeightKg) || in.WeightKg <= 0 {
		return WeightRecord{}, apperr.Invalid("weight_kg", "must be greater than 0")
	}
	if in.WeightKg > MaxWeightKg {
		return WeightRecord{}, apperr.Invalid("weight_kg", "is out of range")
	}

	now := s.now()
	today := caldate.Today(now, s.loc)
	on := in.RecordedOn
	if on.IsZero() {
		on = today
	}
	if on.After(today) {
		return WeightRecord{}, apperr.Invalid("recorded_on", "cannot be in the future")
	}

	w := WeightRecord{
		ID:         uuid.NewString(),
		PetID:      petID,
		WeightKg:   in.WeightKg,
		RecordedOn: on,
		Notes:      strings.TrimSpace(in.Notes),
		CreatedAt:  now,
	}
	if err := s.repo.Create(ctx, w); err != nil {
		return WeightRecord{}, apperr.Persistence("create weight record", err)
	}
	return w, nil
}

func (s *Service) List(ctx context.Context, petID string) ([]WeightRecord, error) {
	items, err := s.repo.ListByPet(ctx, petID)
	if err != nil {
		return nil, apperr.Persistence("list weight records", err)
	}
	return items, nil
}

func (s *Service) Delete(ctx context.Context, petID, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperr.ErrNotFound
	}
	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return apperr.Persistence("get weight record", err)
	}
	if w.PetID != petID {
		return apperr.ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.Persistence("delete weight record", err)
	}
	return nil
}
