package pets

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"pet-care-reminders/internal/platform/apperr"
	"pet-care-reminders/internal/platform/caldate"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	Name      string
	Species   Species
	Breed     string
	Sex       Sex
	BirthDate caldate.Date
	Microchip string
	Weight    *float64
	Notes     string
}

func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Pet, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return Pet{}, apperr.Invalid("owner_user_id", "is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return Pet{}, apperr.Invalid("name", "is required")
	}
	species := Species(strings.ToLower(strings.TrimSpace(string(in.Species))))
	if !species.Valid() {
		return Pet{}, apperr.Invalid("species", "must be dog or cat")
	}
	sex, err := normalizeSex(in.Sex)
	if err != nil {
		return Pet{}, err
	}
	if err := validateWeight(in.Weight); err != nil {
		return Pet{}, err
	}

	now := s.now()
	p := Pet{
		ID:          uuid.NewString(),
		OwnerUserID: ownerUserID,
		Name:        strings.TrimSpace(in.Name),
		Species:     species,
		Breed:       strings.TrimSpace(in.Breed),
		Sex:         sex,
		BirthDate:   in.BirthDate,
		Microchip:   strings.TrimSpace(in.Microchip),
		Weight:      in.Weight,
		Notes:       strings.TrimSpace(in.Notes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, apperr.Persistence("create pet", err)
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	if strings.TrimSpace(id) == "" {
		return Pet{}, apperr.ErrNotFound
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Pet{}, apperr.Persistence("get pet", err)
	}
	return p, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error) {
	items, err := s.repo.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, apperr.Persistence("list pets", err)
	}
	return items, nil
}

// PatchDate distingue "no enviado" de "enviado como null".
type PatchDate struct {
	Present bool
	Value   caldate.Date
}

// UpdateProfileInput: nil = no tocar.
type UpdateProfileInput struct {
	Name      *string
	Species   *Species
	Breed     *string
	Sex       *Sex
	BirthDate PatchDate
	Microchip *string
	Weight    *float64
	Notes     *string
}

// UpdateProfile exige que actorUserID sea el dueño.
func (s *Service) UpdateProfile(ctx context.Context, petID, actorUserID string, in UpdateProfileInput) (Pet, error) {
	p, err := s.AuthorizeOwner(ctx, petID, actorUserID)
	if err != nil {
		return Pet{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Pet{}, apperr.Invalid("name", "cannot be empty")
		}
		p.Name = name
	}
	if in.Species != nil {
		species := Species(strings.ToLower(strings.TrimSpace(string(*in.Species))))
		if !species.Valid() {
			return Pet{}, apperr.Invalid("species", "must be dog or cat")
		}
		p.Species = species
	}
	if in.Breed != nil {
		p.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.Sex != nil {
		sex, err := normalizeSex(*in.Sex)
		if err != nil {
			return Pet{}, err
		}
		p.Sex = sex
	}
	if in.BirthDate.Present {
		p.BirthDate = in.BirthDate.Value
	}
	if in.Microchip != nil {
		p.Microchip = strings.TrimSpace(*in.Microchip)
	}
	if in.Weight != nil {
		if err := validateWeight(in.Weight); err != nil {
			return Pet{}, err
		}
		w := *in.Weight
		p.Weight = &w
	}
	if in.Notes != nil {
		p.Notes = strings.TrimSpace(*in.Notes)
	}

	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, apperr.Persistence("update pet", err)
	}
	return p, nil
}

func normalizeSex(in Sex) (Sex, error) {
	sex := Sex(strings.ToLower(strings.TrimSpace(string(in))))
	if sex == "" {
		return SexUnknown, nil
	}
	if !sex.Valid() {
		return "", apperr.Invalid("sex", "must be male, female or unknown")
	}
	return sex, nil
}

func validateWeight(w *float64) error {
	if w != nil && *w <= 0 {
		return apperr.Invalid("weight", "must be greater than 0")
	}
	return nil
}
