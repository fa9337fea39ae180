package timeline

import (
	"sort"
	"strconv"

	"pet-care-reminders/internal/domain/care"
	"pet-care-reminders/internal/domain/weights"
	"pet-care-reminders/internal/platform/caldate"
)

// Input son las tres colecciones de una mascota más su peso de alta.
type Input struct {
	PetID        string
	PetWeight    *float64
	PetCreatedOn caldate.Date

	Weights    []weights.WeightRecord
	Vaccines   []care.CareEvent
	Dewormings []care.CareEvent
}

// Build fusiona las fuentes en una secuencia ordenada por fecha.
//
// Si la mascota tiene peso de alta y ningún registro cae en su fecha de creación,
// se agrega una entrada inicial sintética. Los empates de fecha se resuelven por
// tipo (inicial, peso, vacuna, desparasitación) y luego por SourceID, en ambos órdenes.
func Build(in Input, order Order) []Event {
	out := make([]Event, 0, len(in.Weights)+len(in.Vaccines)+len(in.Dewormings)+1)

	if b, ok := baseline(in); ok {
		out = append(out, b)
	}
	for _, w := range in.Weights {
		kg := w.WeightKg
		out = append(out, Event{
			Kind:     KindWeight,
			Date:     w.RecordedOn,
			SourceID: w.ID,
			Label:    "Peso",
			Detail:   formatKg(kg),
			WeightKg: &kg,
			Notes:    w.Notes,
		})
	}
	out = appendCare(out, KindVaccine, in.Vaccines)
	out = appendCare(out, KindDeworming, in.Dewormings)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := a.Date.Compare(b.Date); c != 0 {
			if order == Asc {
				return c < 0
			}
			return c > 0
		}
		if ra, rb := rank(a), rank(b); ra != rb {
			return ra < rb
		}
		return a.SourceID < b.SourceID
	})
	return out
}

func baseline(in Input) (Event, bool) {
	if in.PetWeight == nil || in.PetCreatedOn.IsZero() {
		return Event{}, false
	}
	for _, w := range in.Weights {
		if w.RecordedOn.Equal(in.PetCreatedOn) {
			return Event{}, false
		}
	}
	kg := *in.PetWeight
	return Event{
		Kind:      KindWeight,
		Date:      in.PetCreatedOn,
		SourceID:  "initial:" + in.PetID,
		Label:     "Peso inicial",
		Detail:    formatKg(kg),
		WeightKg:  &kg,
		IsInitial: true,
	}, true
}

func appendCare(out []Event, kind Kind, items []care.CareEvent) []Event {
	for _, e := range items {
		ev := Event{
			Kind:     kind,
			Date:     e.OccurredOn,
			SourceID: e.ID,
			Label:    e.Label,
			Notes:    e.Notes,
		}
		if e.Recurrence != nil && e.Recurrence.Enabled {
			ev.Detail = e.Recurrence.Rule().Describe()
		}
		out = append(out, ev)
	}
	return out
}

func rank(e Event) int {
	switch {
	case e.IsInitial:
		return 0
	case e.Kind == KindWeight:
		return 1
	case e.Kind == KindVaccine:
		return 2
	default:
		return 3
	}
}

func formatKg(kg float64) string {
	return strconv.FormatFloat(kg, 'f', -1, 64) + " kg"
}
