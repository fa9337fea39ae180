package timeline

import (
	"strings"

	"pet-care-reminders/internal/platform/apperr"
	"pet-care-reminders/internal/platform/caldate"
)

// Kind del evento proyectado.
// @Enum weight, vaccine, deworming
type Kind string

const (
	KindWeight    Kind = "weight"
	KindVaccine   Kind = "vaccine"
	KindDeworming Kind = "deworming"
)

type Order string

const (
	// Asc para gráficos, Desc para "actividad reciente".
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ParseOrder: vacío => Desc.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc":
		return Desc, nil
	case "asc":
		return Asc, nil
	default:
		return "", apperr.Invalid("order", "must be asc or desc")
	}
}

// Event es una entrada del timeline. No se persiste.
type Event struct {
	Kind     Kind
	Date     caldate.Date
	SourceID string
	Label    string
	Detail   string

	WeightKg  *float64
	IsInitial bool

	Notes string
}
