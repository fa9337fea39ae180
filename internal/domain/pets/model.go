package pets

import (
	"time"

	"pet-care-reminders/internal/platform/caldate"
)

// Species define las especies soportadas.
// @Enum dog, cat
type Species string

const (
	SpeciesDog Species = "dog"
	SpeciesCat Species = "cat"
)

// Sex define el sexo de la mascota.
// @Enum male, female, unknown
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

func (s Species) Valid() bool {
	return s == SpeciesDog || s == SpeciesCat
}

func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale || s == SexUnknown
}

// Pet representa el perfil básico de una mascota registrada en el sistema.
type Pet struct {
	ID          string
	OwnerUserID string

	Name    string
	Species Species // dog, cat
	Breed   string  // texto libre
	Sex     Sex     // male, female, unknown

	BirthDate caldate.Date
	Microchip string

	// Weight es el peso de alta en kg. Con él, el timeline muestra un registro
	// inicial en la fecha de creación.
	Weight *float64

	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}
