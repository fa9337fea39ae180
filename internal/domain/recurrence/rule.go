package recurrence

import (
	"fmt"
	"strings"

	"pet-care-reminders/internal/platform/apperr"
	"pet-care-reminders/internal/platform/caldate"
)

type Unit string

const (
	Months Unit = "months"
	Years  Unit = "years"
)

// HorizonYears acota cuánto a futuro se materializan recordatorios.
const HorizonYears = 10

// Límites de intervalo. Acotan la aritmética de fechas y entran en INTEGER de Postgres.
const (
	MaxIntervalYears  = 100
	MaxIntervalMonths = 12 * MaxIntervalYears
)

func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "months", "month", "meses":
		return Months, nil
	case "years", "year", "años":
		return Years, nil
	default:
		return "", apperr.Invalid("recurrence.unit", fmt.Sprintf("unknown unit %q", s))
	}
}

type Rule struct {
	Unit     Unit
	Interval int
}

func (r Rule) Validate() error {
	if r.Unit != Months && r.Unit != Years {
		return apperr.Invalid("recurrence.unit", fmt.Sprintf("unknown unit %q", r.Unit))
	}
	if r.Interval <= 0 {
		return apperr.Invalid("recurrence.interval", fmt.Sprintf("must be positive, got %d", r.Interval))
	}
	max := MaxIntervalMonths
	if r.Unit == Years {
		max = MaxIntervalYears
	}
	if r.Interval > max {
		return apperr.Invalid("recurrence.interval", fmt.Sprintf("must be at most %d %s, got %d", max, r.Unit, r.Interval))
	}
	return nil
}

// stepMonths es el intervalo expresado en meses.
func (r Rule) stepMonths() int {
	if r.Unit == Years {
		return 12 * r.Interval
	}
	return r.Interval
}

// At devuelve la ocurrencia k (k=0 es la fecha ancla).
// Se calcula siempre desde el ancla: un 29/02 vuelve a 29/02 en años bisiestos.
func (r Rule) At(start caldate.Date, k int) caldate.Date {
	if r.Unit == Years {
		return start.AddYears(k * r.Interval)
	}
	return start.AddMonths(k * r.Interval)
}

// Describe devuelve un texto legible, p.ej. "cada 3 meses".
func (r Rule) Describe() string {
	switch r.Unit {
	case Years:
		if r.Interval == 1 {
			return "cada año"
		}
		return fmt.Sprintf("cada %d años", r.Interval)
	case Months:
		if r.Interval == 1 {
			return "cada mes"
		}
		return fmt.Sprintf("cada %d meses", r.Interval)
	}
	return ""
}
