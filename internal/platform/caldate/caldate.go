// Package caldate modela fechas de calendario (sin hora ni zona).
//
// Las fechas viajan como "YYYY-MM-DD" y se reconstruyen siempre desde la tripleta
// numérica año/mes/día. Nunca se interpretan como medianoche UTC, que es lo que
// produce el corrimiento de un día al mostrarlas en zonas con offset negativo.
package caldate

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pet-care-reminders/internal/platform/apperr"
)

const Layout = "2006-01-02"

type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// New normaliza igual que time.Date (31 de abril => 1 de mayo).
func New(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime toma la tripleta de t en su propia location, sin convertir.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today devuelve la fecha local de now en loc. loc nil => location de now.
func Today(now time.Time, loc *time.Location) Date {
	if loc != nil {
		now = now.In(loc)
	}
	return FromTime(now)
}

// Parse exige la forma YYYY-MM-DD y una fecha existente.
func Parse(s string) (Date, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return Date{}, apperr.Invalid("date", fmt.Sprintf("%q must be YYYY-MM-DD", s))
	}

	nums := [3]int{}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || !allDigits(p) {
			return Date{}, apperr.Invalid("date", fmt.Sprintf("%q must be YYYY-MM-DD", s))
		}
		nums[i] = n
	}

	y, m, d := nums[0], time.Month(nums[1]), nums[2]
	if m < time.January || m > time.December || d < 1 || d > daysIn(y, m) {
		return Date{}, apperr.Invalid("date", fmt.Sprintf("%q is not a calendar date", s))
	}
	return Date{Year: y, Month: m, Day: d}, nil
}

// MustParse es para tests y constantes.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// In devuelve la medianoche local de d en loc.
func (d Date) In(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) utc() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) AddYears(n int) Date  { return FromTime(d.utc().AddDate(n, 0, 0)) }
func (d Date) AddMonths(n int) Date { return FromTime(d.utc().AddDate(0, n, 0)) }
func (d Date) AddDays(n int) Date   { return FromTime(d.utc().AddDate(0, 0, n)) }

// Compare devuelve -1, 0 o +1.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }
func (d Date) Equal(o Date) bool  { return d.Compare(o) == 0 }

// SameDay compara año/mes/día ignorando la hora, cada valor en su location.
func SameDay(a, b time.Time) bool {
	return FromTime(a).Equal(FromTime(b))
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return apperr.Invalid("date", "must be a YYYY-MM-DD string")
	}
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value guarda la fecha como texto; Postgres la castea a DATE.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan acepta DATE (pgx lo entrega como time.Time a medianoche UTC) o texto.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = FromTime(v)
		return nil
	case string:
		return d.scanText(v)
	case []byte:
		return d.scanText(string(v))
	default:
		return fmt.Errorf("caldate: cannot scan %T", src)
	}
}

func (d *Date) scanText(s string) error {
	if len(s) > len(Layout) {
		s = s[:len(Layout)]
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
