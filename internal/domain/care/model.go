package care

import (
	"time"

	"pet-care-reminders/internal/domain/recurrence"
	"pet-care-reminders/internal/domain/reminders"
	"pet-care-reminders/internal/platform/caldate"
)

// Kind distingue las dos variantes de evento de cuidado.
// @Enum vaccine, deworming
type Kind string

const (
	KindVaccine   Kind = "vaccine"
	KindDeworming Kind = "deworming"
)

func (k Kind) Valid() bool {
	return k == KindVaccine || k == KindDeworming
}

// Marker es el texto de tipo que se embebe en los recordatorios generados.
func (k Kind) Marker() string {
	if k == KindDeworming {
		return "Desparasitación"
	}
	return "Vacuna"
}

func (k Kind) ReminderType() reminders.Type {
	if k == KindDeworming {
		return reminders.TypeDeworming
	}
	return reminders.TypeVaccination
}

// Policy: las vacunas materializan la serie completa, las desparasitaciones solo la próxima.
func (k Kind) Policy() recurrence.Policy {
	if k == KindDeworming {
		return recurrence.NextOnly
	}
	return recurrence.Series
}

// Collection es la tabla/colección donde vive cada variante.
func (k Kind) Collection() string {
	if k == KindDeworming {
		return "dewormings"
	}
	return "vaccinations"
}

func (k Kind) defaultUnit() recurrence.Unit {
	if k == KindDeworming {
		return recurrence.Months
	}
	return recurrence.Years
}

type Recurrence struct {
	Enabled  bool
	Unit     recurrence.Unit
	Interval int
}

func (r Recurrence) Rule() recurrence.Rule {
	return recurrence.Rule{Unit: r.Unit, Interval: r.Interval}
}

// CareEvent es una vacuna o desparasitación aplicada a una mascota.
type CareEvent struct {
	ID    string
	PetID string
	Kind  Kind

	// Label: tipo de vacuna o producto antiparasitario.
	Label      string
	OccurredOn caldate.Date
	Notes      string

	Recurrence *Recurrence

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e CareEvent) recurring() bool {
	return e.Recurrence != nil && e.Recurrence.Enabled
}

func (e CareEvent) source() reminders.Source {
	return reminders.Source{
		PetID:   e.PetID,
		EventID: e.ID,
		Label:   e.Label,
		Marker:  e.Kind.Marker(),
		Type:    e.Kind.ReminderType(),
	}
}
