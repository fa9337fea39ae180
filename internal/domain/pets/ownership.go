package pets

import (
	"context"
	"strings"

	"pet-care-reminders/internal/platform/apperr"
)

// AuthorizeOwner devuelve la mascota solo si userID es su dueño.
// Los demás módulos (care, reminders, weights, timeline) pasan por aquí.
func (s *Service) AuthorizeOwner(ctx context.Context, petID, userID string) (Pet, error) {
	if strings.TrimSpace(userID) == "" {
		return Pet{}, apperr.ErrForbidden
	}
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return Pet{}, err
	}
	if p.OwnerUserID != userID {
		return Pet{}, apperr.ErrForbidden
	}
	return p, nil
}
