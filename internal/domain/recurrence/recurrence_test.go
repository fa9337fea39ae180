package recurrence

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"pet-care-reminders/internal/platform/apperr"
	"pet-care-reminders/internal/platform/caldate"
)

func d(s string) caldate.Date { return caldate.MustParse(s) }

func strs(ds []caldate.Date) []string {
	out := make([]string, 0, len(ds))
	for _, x := range ds {
		out = append(out, x.String())
	}
	return out
}

func TestExpand_RabiesScenario(t *testing.T) {
	today := d("2024-06-01")
	got, err := Expand(d("2019-03-15"), Rule{Unit: Years, Interval: 1}, Series, WindowFrom(today))
	require.NoError(t, err)

	want := []string{
		"2025-03-15", "2026-03-15", "2027-03-15", "2028-03-15", "2029-03-15",
		"2030-03-15", "2031-03-15", "2032-03-15", "2033-03-15", "2034-03-15",
	}
	assert.Equal(t, want, strs(got))
}

func TestExpand_BacklogCollapses(t *testing.T) {
	today := d("2024-06-01")
	got, err := Expand(d("2019-06-01"), Rule{Unit: Years, Interval: 1}, Series, WindowFrom(today))
	require.NoError(t, err)
	require.NotEmpty(t, got)

	// el aniversario que cae hoy cuenta como próximo, no hay uno por año vencido
	assert.Equal(t, "2024-06-01", got[0].String())
	for _, x := range got {
		assert.False(t, x.Before(today), "emitted past date %s", x)
	}
}

func TestExpand_FutureStart_FirstIsStartPlusInterval(t *testing.T) {
	today := d("2024-06-01")

	got, err := Expand(today, Rule{Unit: Years, Interval: 1}, Series, WindowFrom(today))
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", got[0].String())

	got, err = Expand(d("2024-09-10"), Rule{Unit: Months, Interval: 3}, NextOnly, WindowFrom(today))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-12-10"}, strs(got))
}

func TestExpand_DewormingMonthly_SingleOccurrence(t *testing.T) {
	today := d("2024-06-01")
	got, err := Expand(d("2024-05-20"), Rule{Unit: Months, Interval: 1}, NextOnly, WindowFrom(today))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-06-20"}, strs(got))

	series, err := Expand(d("2024-05-20"), Rule{Unit: Months, Interval: 1}, Series, WindowFrom(today))
	require.NoError(t, err)
	assert.Len(t, series, 120)
}

func TestExpand_DewormingBacklog(t *testing.T) {
	today := d("2024-06-01")
	got, err := Expand(d("2021-01-15"), Rule{Unit: Months, Interval: 3}, NextOnly, WindowFrom(today))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-07-15"}, strs(got))
}

func TestExpand_IntervalBeyondHorizon(t *testing.T) {
	today := d("2024-06-01")
	got, err := Expand(d("2024-01-01"), Rule{Unit: Years, Interval: 15}, Series, WindowFrom(today))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExpand_HorizonIsInclusive(t *testing.T) {
	today := d("2024-06-01")
	got, err := Expand(d("2014-06-01"), Rule{Unit: Years, Interval: 10}, Series, WindowFrom(today))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-06-01", "2034-06-01"}, strs(got))
}

func TestExpand_LeapDayAnchor(t *testing.T) {
	today := d("2024-03-01")
	got, err := Expand(d("2024-02-29"), Rule{Unit: Years, Interval: 1}, Series, WindowFrom(today))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(got), 4)
	assert.Equal(t, []string{"2025-03-01", "2026-03-01", "2027-03-01", "2028-02-29"}, strs(got[:4]))
}

func TestExpand_EndOfMonthAnchor(t *testing.T) {
	today := d("2023-01-31")
	got, err := Expand(d("2023-01-31"), Rule{Unit: Months, Interval: 1}, Series, WindowFrom(today))
	require.NoError(t, err)
	assert.Equal(t, []string{"2023-03-03", "2023-03-31", "2023-05-01"}, strs(got[:3]))
}

func TestExpand_ValidationErrors(t *testing.T) {
	today := d("2024-06-01")
	cases := []struct {
		name  string
		start caldate.Date
		rule  Rule
	}{
		{"zero interval", d("2024-01-01"), Rule{Unit: Years, Interval: 0}},
		{"negative interval", d("2024-01-01"), Rule{Unit: Months, Interval: -2}},
		{"unknown unit", d("2024-01-01"), Rule{Unit: "weeks", Interval: 1}},
		{"missing start", caldate.Date{}, Rule{Unit: Years, Interval: 1}},
		{"years above max", d("2024-01-01"), Rule{Unit: Years, Interval: MaxIntervalYears + 1}},
		{"months above max", d("2024-01-01"), Rule{Unit: Months, Interval: MaxIntervalMonths + 1}},
		{"max int years", d("2019-03-15"), Rule{Unit: Years, Interval: math.MaxInt}},
		{"max int months", d("2019-03-15"), Rule{Unit: Months, Interval: math.MaxInt}},
		{"max int / 12 years", d("2019-03-15"), Rule{Unit: Years, Interval: math.MaxInt / 12}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Expand(tc.start, tc.rule, Series, WindowFrom(today))
			require.Error(t, err)
			assert.True(t, apperr.IsValidation(err))
		})
	}
}

func TestExpand_LargestIntervalsTerminate(t *testing.T) {
	today := d("2024-06-01")
	got, err := Expand(d("1950-01-01"), Rule{Unit: Years, Interval: MaxIntervalYears}, Series, WindowFrom(today))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Expand(d("1950-01-01"), Rule{Unit: Months, Interval: MaxIntervalMonths}, Series, WindowFrom(today))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Expand(d("1930-01-01"), Rule{Unit: Years, Interval: MaxIntervalYears}, Series, WindowFrom(today))
	require.NoError(t, err)
	assert.Equal(t, []string{"2030-01-01"}, strs(got))
}

func TestParseUnit(t *testing.T) {
	u, err := ParseUnit("Years")
	require.NoError(t, err)
	assert.Equal(t, Years, u)

	u, err = ParseUnit("meses")
	require.NoError(t, err)
	assert.Equal(t, Months, u)

	_, err = ParseUnit("fortnights")
	assert.True(t, apperr.IsValidation(err))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "cada año", Rule{Unit: Years, Interval: 1}.Describe())
	assert.Equal(t, "cada 3 meses", Rule{Unit: Months, Interval: 3}.Describe())
}

func genDate(t *rapid.T, label string, minYear, maxYear int) caldate.Date {
	y := rapid.IntRange(minYear, maxYear).Draw(t, label+".year")
	m := rapid.IntRange(1, 12).Draw(t, label+".month")
	day := rapid.IntRange(1, 28).Draw(t, label+".day")
	return caldate.Date{Year: y, Month: time.Month(m), Day: day}
}

func genRule(t *rapid.T) Rule {
	unit := rapid.SampledFrom([]Unit{Months, Years}).Draw(t, "unit")
	interval := rapid.IntRange(1, 24).Draw(t, "interval")
	return Rule{Unit: unit, Interval: interval}
}

func TestProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		today := genDate(t, "today", 2000, 2050)
		start := genDate(t, "start", 1990, 2060)
		rule := genRule(t)
		w := WindowFrom(today)

		first, err := Expand(start, rule, Series, w)
		if err != nil {
			t.Fatalf("Expand: %v", err)
		}
		again, _ := Expand(start, rule, Series, w)
		if len(first) != len(again) {
			t.Fatalf("not idempotent: %d vs %d", len(first), len(again))
		}

		horizon := today.AddYears(HorizonYears)
		for i, x := range first {
			if x != again[i] {
				t.Fatalf("not idempotent at %d: %s vs %s", i, x, again[i])
			}
			if x.After(horizon) {
				t.Fatalf("%s exceeds horizon %s", x, horizon)
			}
			if x.Before(today) {
				t.Fatalf("%s is before today %s", x, today)
			}
			if !x.After(start) {
				t.Fatalf("%s is not after start %s", x, start)
			}
			if i > 0 && !x.After(first[i-1]) {
				t.Fatalf("not strictly ascending at %d", i)
			}
		}

		next, _ := Expand(start, rule, NextOnly, w)
		if len(next) > 1 {
			t.Fatalf("NextOnly emitted %d dates", len(next))
		}
		if len(first) > 0 && (len(next) != 1 || next[0] != first[0]) {
			t.Fatalf("NextOnly %v does not match head of series %v", next, first[0])
		}
		if len(first) == 0 && len(next) != 0 {
			t.Fatalf("NextOnly emitted %v with empty series", next)
		}

		// el primero es realmente el primero: el paso anterior cae antes de hoy o es el ancla
		if len(first) > 0 {
			for k := 1; ; k++ {
				occ := rule.At(start, k)
				if occ == first[0] {
					if k > 1 && !rule.At(start, k-1).Before(today) {
						t.Fatalf("skipped occurrence %s", rule.At(start, k-1))
					}
					break
				}
				if occ.After(first[0]) {
					t.Fatalf("first occurrence %s is not on the rule grid", first[0])
				}
			}
		}
	})
}

func TestNextAfter_RollsPastCompletedDue(t *testing.T) {
	rule := Rule{Unit: Months, Interval: 3}
	start := caldate.MustParse("2024-01-10")
	today := caldate.MustParse("2024-03-01")

	d, ok, err := Next(start, rule, today)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2024-04-10", d.String())

	// completado antes de tiempo: la referencia es due+1, no hoy
	d, ok, err = NextAfter(start, rule, caldate.MustParse("2024-04-11"), today)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2024-07-10", d.String())
}

func TestNextAfter_BeyondHorizon(t *testing.T) {
	rule := Rule{Unit: Years, Interval: 15}
	_, ok, err := Next(caldate.MustParse("2024-01-01"), rule, caldate.MustParse("2024-02-01"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpcoming_MatchesSeriesWindow(t *testing.T) {
	rule := Rule{Unit: Years, Interval: 1}
	today := caldate.MustParse("2024-06-01")
	got, err := Upcoming(caldate.MustParse("2023-03-15"), rule, today)
	require.NoError(t, err)
	want, err := Expand(caldate.MustParse("2023-03-15"), rule, Series, WindowFrom(today))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
