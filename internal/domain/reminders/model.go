package reminders

import (
	"strings"
	"time"

	"pet-care-reminders/internal/platform/caldate"
)

// Type define la categoría del recordatorio.
// @Enum vaccination, deworming, checkup, grooming, medication, general
type Type string

const (
	TypeVaccination Type = "vaccination"
	TypeDeworming   Type = "deworming"
	TypeCheckup     Type = "checkup"
	TypeGrooming    Type = "grooming"
	TypeMedication  Type = "medication"
	TypeGeneral     Type = "general"
)

func (t Type) Valid() bool {
	switch t {
	case TypeVaccination, TypeDeworming, TypeCheckup, TypeGrooming, TypeMedication, TypeGeneral:
		return true
	}
	return false
}

// Reminder es un vencimiento del calendario. Solo Completed es mutable.
type Reminder struct {
	ID    string
	PetID string

	// SourceEventID apunta al evento de cuidado que lo generó ("" si lo creó el usuario).
	SourceEventID string

	Title       string
	Description string

	DueDate caldate.Date
	Type    Type

	Completed   bool
	CompletedAt *time.Time

	CreatedAt time.Time
}

// Source describe el evento de cuidado dueño de un cronograma.
type Source struct {
	PetID   string
	EventID string
	Label   string

	// Marker es el texto de tipo que se embebe en title/description ("Vacuna", "Desparasitación").
	Marker string
	Type   Type
}

func (s Source) Title() string {
	return s.Marker + ": " + s.Label
}

func (s Source) Description() string {
	return "Recordatorio de " + s.Marker + ": " + s.Label
}

// OwnerMatch decide qué recordatorios pertenecen a un Source.
//
// Los recordatorios con SourceEventID se comparan por igualdad. Los heredados
// (sin SourceEventID) se correlacionan por texto: el label en el title y el
// marker en la description, sin distinguir mayúsculas.
type OwnerMatch struct {
	PetID         string
	SourceEventID string
	Label         string
	Marker        string
}

func (s Source) match(label string) OwnerMatch {
	return OwnerMatch{
		PetID:         s.PetID,
		SourceEventID: s.EventID,
		Label:         label,
		Marker:        s.Marker,
	}
}

func (m OwnerMatch) Owns(r Reminder) bool {
	if r.PetID != m.PetID {
		return false
	}
	if r.SourceEventID != "" {
		return r.SourceEventID == m.SourceEventID
	}
	if strings.TrimSpace(m.Label) == "" || strings.TrimSpace(m.Marker) == "" {
		return false
	}
	return containsFold(r.Title, m.Label) && containsFold(r.Description, m.Marker)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
