package weights

import (
	"time"

	"pet-care-reminders/internal/platform/caldate"
)

// WeightRecord es una medición de peso en kg.
type WeightRecord struct {
	ID         string
	PetID      string
	WeightKg   float64
	RecordedOn caldate.Date
	Notes      string
	CreatedAt  time.Time
}
