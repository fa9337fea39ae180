package recurrence

import (
	"errors"

	"pet-care-reminders/internal/platform/apperr"
	"pet-care-reminders/internal/platform/caldate"
)

// Policy decide cuántas ocurrencias se materializan.
type Policy int

const (
	// Series emite todas las ocurrencias dentro de la ventana (vacunas).
	Series Policy = iota
	// NextOnly emite solo la primera (desparasitaciones; se rueda al completar).
	NextOnly
)

// maxIterations corta el bucle de Expand si la aritmética deja de avanzar.
const maxIterations = 10000

var ErrTooManyIterations = errors.New("recurrence: too many iterations")

// Window es el rango cerrado [From, Until] donde se aceptan ocurrencias.
type Window struct {
	From  caldate.Date
	Until caldate.Date
}

// WindowFrom arma la ventana estándar: desde hoy hasta hoy + HorizonYears.
func WindowFrom(today caldate.Date) Window {
	return Window{From: today, Until: today.AddYears(HorizonYears)}
}

// Expand genera las fechas de vencimiento futuras de una regla anclada en start.
//
// Nunca incluye la propia fecha ancla (k >= 1). Las ocurrencias anteriores a
// w.From se colapsan: no se crea un recordatorio por cada intervalo vencido.
func Expand(start caldate.Date, rule Rule, policy Policy, w Window) ([]caldate.Date, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if start.IsZero() {
		return nil, apperr.Invalid("occurred_on", "is required")
	}

	out := make([]caldate.Date, 0)
	if w.Until.Before(w.From) {
		return out, nil
	}

	k := firstCandidate(start, rule, w.From)
	for i := 0; ; i++ {
		if i >= maxIterations {
			return nil, ErrTooManyIterations
		}
		occ := rule.At(start, k)
		if occ.After(w.Until) {
			break
		}
		k++
		if occ.Before(w.From) {
			continue
		}
		out = append(out, occ)
		if policy == NextOnly {
			break
		}
	}
	return out, nil
}

// firstCandidate salta el atraso de un golpe: devuelve un k >= 1 tal que
// ninguna ocurrencia anterior a k llega a from.
func firstCandidate(start caldate.Date, rule Rule, from caldate.Date) int {
	diff := (from.Year-start.Year)*12 + int(from.Month) - int(start.Month)
	k := diff/rule.stepMonths() - 1
	if k < 1 {
		k = 1
	}
	return k
}

// Upcoming es la serie completa desde today (política de vacunas).
func Upcoming(start caldate.Date, rule Rule, today caldate.Date) ([]caldate.Date, error) {
	return Expand(start, rule, Series, WindowFrom(today))
}

// Next devuelve la próxima ocurrencia desde today. ok=false si cae fuera del horizonte.
func Next(start caldate.Date, rule Rule, today caldate.Date) (caldate.Date, bool, error) {
	return NextAfter(start, rule, today, today)
}

// NextAfter es Next con referencia after (si es posterior a today). El horizonte
// sigue contándose desde today.
func NextAfter(start caldate.Date, rule Rule, after, today caldate.Date) (caldate.Date, bool, error) {
	w := WindowFrom(today)
	if after.After(w.From) {
		w.From = after
	}
	dates, err := Expand(start, rule, NextOnly, w)
	if err != nil || len(dates) == 0 {
		return caldate.Date{}, false, err
	}
	return dates[0], true, nil
}
