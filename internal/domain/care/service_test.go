package care

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pet-care-reminders/internal/domain/reminders"
	"pet-care-reminders/internal/platform/apperr"
	"pet-care-reminders/internal/platform/caldate"
)

// -------------------------
// Test repos (in-memory)
// -------------------------

type testRepo struct {
	byID map[string]CareEvent
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]CareEvent{}}
}

func (r *testRepo) Create(ctx context.Context, e CareEvent) error {
	if _, ok := r.byID[e.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[e.ID] = e
	return nil
}

func (r *testRepo) Update(ctx context.Context, e CareEvent) error {
	if _, ok := r.byID[e.ID]; !ok {
		return apperr.ErrNotFound
	}
	r.byID[e.ID] = e
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, kind Kind, id string) (CareEvent, error) {
	e, ok := r.byID[id]
	if !ok || e.Kind != kind {
		return CareEvent{}, apperr.ErrNotFound
	}
	return e, nil
}

func (r *testRepo) ListByPet(ctx context.Context, kind Kind, petID string) ([]CareEvent, error) {
	out := make([]CareEvent, 0)
	for _, e := range r.byID {
		if e.Kind == kind && e.PetID == petID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredOn.Before(out[j].OccurredOn) })
	return out, nil
}

func (r *testRepo) Delete(ctx context.Context, kind Kind, id string) error {
	if _, ok := r.byID[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// reminderRepo es un store mínimo para ejercitar el reminders.Service real.
type reminderRepo struct {
	byID        map[string]reminders.Reminder
	failInsert  error
	failReplace error
}

func newReminderRepo() *reminderRepo {
	return &reminderRepo{byID: map[string]reminders.Reminder{}}
}

func (r *reminderRepo) InsertBatch(ctx context.Context, items []reminders.Reminder) error {
	if r.failInsert != nil {
		return r.failInsert
	}
	for _, it := range items {
		r.byID[it.ID] = it
	}
	return nil
}

func (r *reminderRepo) GetByID(ctx context.Context, id string) (reminders.Reminder, error) {
	x, ok := r.byID[id]
	if !ok {
		return reminders.Reminder{}, apperr.ErrNotFound
	}
	return x, nil
}

func (r *reminderRepo) ListByPet(ctx context.Context, petID string, f reminders.ListFilter) ([]reminders.Reminder, error) {
	out := make([]reminders.Reminder, 0)
	for _, x := range r.byID {
		if x.PetID == petID && (f.IncludeCompleted || !x.Completed) {
			out = append(out, x)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (r *reminderRepo) ListPending(ctx context.Context, petIDs []string, from, until caldate.Date) ([]reminders.Reminder, error) {
	return nil, nil
}

func (r *reminderRepo) MarkCompleted(ctx context.Context, id string, at time.Time) error {
	x := r.byID[id]
	x.Completed = true
	x.CompletedAt = &at
	r.byID[id] = x
	return nil
}

func (r *reminderRepo) Delete(ctx context.Context, id string) error {
	delete(r.byID, id)
	return nil
}

func (r *reminderRepo) ReplacePending(ctx context.Context, m reminders.OwnerMatch, batch []reminders.Reminder) (int, error) {
	if r.failReplace != nil {
		return 0, r.failReplace
	}
	n := 0
	for id, x := range r.byID {
		if !x.Completed && m.Owns(x) {
			delete(r.byID, id)
			n++
		}
	}
	for _, it := range batch {
		r.byID[it.ID] = it
	}
	return n, nil
}

func (r *reminderRepo) DeleteOwned(ctx context.Context, m reminders.OwnerMatch) (int, error) {
	n := 0
	for id, x := range r.byID {
		if m.Owns(x) {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

func (r *reminderRepo) due(completed bool) []string {
	out := make([]string, 0)
	for _, x := range r.byID {
		if x.Completed == completed {
			out = append(out, x.DueDate.String())
		}
	}
	sort.Strings(out)
	return out
}

type fixture struct {
	svc   *Service
	repo  *testRepo
	rrepo *reminderRepo
	rsvc  *reminders.Service
}

func newFixture(today string) *fixture {
	rrepo := newReminderRepo()
	rsvc := reminders.NewService(rrepo, nil).WithLocation(time.UTC)
	repo := newTestRepo()
	svc := NewService(repo, rsvc, nil).WithLocation(time.UTC)

	d := caldate.MustParse(today)
	now := time.Date(d.Year, d.Month, d.Day, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("evt-%02d", seq)
	}

	rsvc.OnComplete(svc)
	return &fixture{svc: svc, repo: repo, rrepo: rrepo, rsvc: rsvc}
}

func yearly(n int) *RecurrenceInput {
	return &RecurrenceInput{Enabled: true, Unit: "years", Interval: n}
}

// -------------------------
// Tests
// -------------------------

func TestService_Create_RabiesScenario(t *testing.T) {
	f := newFixture("2024-06-01")

	res, err := f.svc.Create(context.Background(), "pet-1", KindVaccine, Input{
		Label:      "Rabies",
		OccurredOn: caldate.MustParse("2019-03-15"),
		Recurrence: yearly(1),
	})
	require.NoError(t, err)
	require.Len(t, res.Reminders, 10)

	assert.Equal(t, []string{
		"2025-03-15", "2026-03-15", "2027-03-15", "2028-03-15", "2029-03-15",
		"2030-03-15", "2031-03-15", "2032-03-15", "2033-03-15", "2034-03-15",
	}, f.rrepo.due(false))

	for _, r := range f.rrepo.byID {
		assert.Equal(t, "Vacuna: Rabies", r.Title)
		assert.Equal(t, res.Event.ID, r.SourceEventID)
		assert.Equal(t, reminders.TypeVaccination, r.Type)
	}
}

func TestService_Create_VaccineUnitDefaultsToYears(t *testing.T) {
	f := newFixture("2024-06-01")

	res, err := f.svc.Create(context.Background(), "pet-1", KindVaccine, Input{
		Label:      "Parvovirus",
		OccurredOn: caldate.MustParse("2024-05-01"),
		Recurrence: &RecurrenceInput{Enabled: true, Interval: 3},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Event.Recurrence)
	assert.Equal(t, "years", string(res.Event.Recurrence.Unit))
	assert.Equal(t, []string{"2027-05-01", "2030-05-01", "2033-05-01"}, f.rrepo.due(false))
}

func TestService_Create_MonthlyDewormingEmitsOne(t *testing.T) {
	f := newFixture("2024-06-01")

	res, err := f.svc.Create(context.Background(), "pet-1", KindDeworming, Input{
		Label:      "Drontal",
		OccurredOn: caldate.MustParse("2024-05-20"),
		Recurrence: &RecurrenceInput{Enabled: true, Unit: "months", Interval: 1},
	})
	require.NoError(t, err)
	require.Len(t, res.Reminders, 1)
	assert.Equal(t, "2024-06-20", res.Reminders[0].DueDate.String())
	assert.Equal(t, "Desparasitación: Drontal", res.Reminders[0].Title)
	assert.Equal(t, reminders.TypeDeworming, res.Reminders[0].Type)
}

func TestService_Create_WithoutRecurrenceSchedulesNothing(t *testing.T) {
	f := newFixture("2024-06-01")

	res, err := f.svc.Create(context.Background(), "pet-1", KindVaccine, Input{
		Label:      "Leptospira",
		OccurredOn: caldate.MustParse("2024-05-01"),
		Recurrence: &RecurrenceInput{Enabled: false, Interval: 0},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Reminders)
	assert.Empty(t, f.rrepo.byID)
	assert.Len(t, f.repo.byID, 1)
}

func TestService_Create_ValidationWritesNothing(t *testing.T) {
	f := newFixture("2024-06-01")
	ctx := context.Background()

	cases := []Input{
		{OccurredOn: caldate.MustParse("2024-05-01")},
		{Label: "Rabies"},
		{Label: "Rabies", OccurredOn: caldate.MustParse("2024-05-01"), Recurrence: yearly(0)},
		{Label: "Rabies", OccurredOn: caldate.MustParse("2024-05-01"), Recurrence: &RecurrenceInput{Enabled: true, Unit: "weeks", Interval: 1}},
	}
	for i, in := range cases {
		_, err := f.svc.Create(ctx, "pet-1", KindVaccine, in)
		assert.True(t, apperr.IsValidation(err), "case %d: %v", i, err)
	}
	assert.Empty(t, f.repo.byID)
	assert.Empty(t, f.rrepo.byID)
}

func TestService_Create_RollsBackEventWhenScheduleFails(t *testing.T) {
	f := newFixture("2024-06-01")
	f.rrepo.failInsert = errors.New("disk full")

	_, err := f.svc.Create(context.Background(), "pet-1", KindVaccine, Input{
		Label:      "Rabies",
		OccurredOn: caldate.MustParse("2024-05-01"),
		Recurrence: yearly(1),
	})
	var pe *apperr.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Empty(t, f.repo.byID)
}

func TestService_Update_ReplacesScheduleAndKeepsCompleted(t *testing.T) {
	f := newFixture("2024-06-01")
	ctx := context.Background()

	res, err := f.svc.Create(ctx, "pet-1", KindVaccine, Input{
		Label:      "Rabies",
		OccurredOn: caldate.MustParse("2023-06-10"),
		Recurrence: yearly(5),
	})
	require.NoError(t, err)
	require.Len(t, res.Reminders, 2) // 2028-06-10, 2033-06-10
	_, err = f.rsvc.Complete(ctx, res.Reminders[0].ID)
	require.NoError(t, err)

	upd, err := f.svc.Update(ctx, "pet-1", KindVaccine, res.Event.ID, Input{
		Label:      "Rabia",
		OccurredOn: caldate.MustParse("2024-01-10"),
		Recurrence: yearly(4),
	})
	require.NoError(t, err)
	assert.Equal(t, "Rabia", upd.Event.Label)
	assert.Equal(t, res.Event.CreatedAt, upd.Event.CreatedAt)

	assert.Equal(t, []string{"2028-01-10", "2032-01-10"}, f.rrepo.due(false))
	assert.Equal(t, []string{"2028-06-10"}, f.rrepo.due(true))
}

func TestService_Update_RestoresEventWhenRescheduleFails(t *testing.T) {
	f := newFixture("2024-06-01")
	ctx := context.Background()

	res, err := f.svc.Create(ctx, "pet-1", KindVaccine, Input{
		Label: "Rabies", OccurredOn: caldate.MustParse("2024-03-15"), Recurrence: yearly(1),
	})
	require.NoError(t, err)
	pendingBefore := f.rrepo.due(false)

	f.rrepo.failReplace = errors.New("store down")
	_, err = f.svc.Update(ctx, "pet-1", KindVaccine, res.Event.ID, Input{
		Label: "Moquillo", OccurredOn: caldate.MustParse("2024-04-01"), Recurrence: yearly(2),
	})
	var pe *apperr.PersistenceError
	require.ErrorAs(t, err, &pe)

	stored := f.repo.byID[res.Event.ID]
	assert.Equal(t, "Rabies", stored.Label)
	assert.Equal(t, "2024-03-15", stored.OccurredOn.String())
	assert.Equal(t, 1, stored.Recurrence.Interval)
	assert.Equal(t, res.Event.UpdatedAt, stored.UpdatedAt)
	assert.Equal(t, pendingBefore, f.rrepo.due(false))

	// la siguiente edición sigue encontrando los recordatorios por el label original
	f.rrepo.failReplace = nil
	_, err = f.svc.Update(ctx, "pet-1", KindVaccine, res.Event.ID, Input{
		Label: "Moquillo", OccurredOn: caldate.MustParse("2024-03-15"), Recurrence: yearly(5),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2029-03-15", "2034-03-15"}, f.rrepo.due(false))
}

func TestService_Create_RejectsHugeIntervalEvenWhenDisabled(t *testing.T) {
	f := newFixture("2024-06-01")

	_, err := f.svc.Create(context.Background(), "pet-1", KindVaccine, Input{
		Label:      "Rabies",
		OccurredOn: caldate.MustParse("2024-03-15"),
		Recurrence: &RecurrenceInput{Enabled: false, Unit: "years", Interval: math.MaxInt},
	})
	assert.True(t, apperr.IsValidation(err))
	assert.Empty(t, f.repo.byID)
}

func TestService_Update_DisablingRecurrenceClearsPending(t *testing.T) {
	f := newFixture("2024-06-01")
	ctx := context.Background()

	res, err := f.svc.Create(ctx, "pet-1", KindVaccine, Input{
		Label: "Rabies", OccurredOn: caldate.MustParse("2024-03-15"), Recurrence: yearly(1),
	})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, "pet-1", KindVaccine, res.Event.ID, Input{
		Label: "Rabies", OccurredOn: caldate.MustParse("2024-03-15"),
	})
	require.NoError(t, err)
	assert.Empty(t, f.rrepo.byID)
}

func TestService_Update_OtherPetIsNotFound(t *testing.T) {
	f := newFixture("2024-06-01")
	ctx := context.Background()

	res, err := f.svc.Create(ctx, "pet-1", KindVaccine, Input{Label: "Rabies", OccurredOn: caldate.MustParse("2024-03-15")})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, "pet-2", KindVaccine, res.Event.ID, Input{Label: "x", OccurredOn: caldate.MustParse("2024-03-15")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// mismo id, otra variante
	_, err = f.svc.Get(ctx, "pet-1", KindDeworming, res.Event.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestService_Delete_RetractsThenDeletes(t *testing.T) {
	f := newFixture("2024-06-01")
	ctx := context.Background()

	res, err := f.svc.Create(ctx, "pet-1", KindVaccine, Input{
		Label: "Rabies", OccurredOn: caldate.MustParse("2024-03-15"), Recurrence: yearly(1),
	})
	require.NoError(t, err)
	_, err = f.rsvc.Complete(ctx, res.Reminders[0].ID)
	require.NoError(t, err)

	// un recordatorio manual de la mascota no se toca
	manual, err := f.rsvc.Create(ctx, "pet-1", reminders.CreateInput{Title: "Control anual", DueDate: caldate.MustParse("2024-09-01")})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, "pet-1", KindVaccine, res.Event.ID))
	assert.Empty(t, f.repo.byID)
	require.Len(t, f.rrepo.byID, 1)
	_, ok := f.rrepo.byID[manual.ID]
	assert.True(t, ok)
}

func TestService_CompleteDeworming_RollsForward(t *testing.T) {
	f := newFixture("2024-06-01")
	ctx := context.Background()

	res, err := f.svc.Create(ctx, "pet-1", KindDeworming, Input{
		Label:      "Milbemax",
		OccurredOn: caldate.MustParse("2021-01-15"),
		Recurrence: &RecurrenceInput{Enabled: true, Unit: "months", Interval: 3},
	})
	require.NoError(t, err)
	require.Len(t, res.Reminders, 1)
	assert.Equal(t, "2024-07-15", res.Reminders[0].DueDate.String())

	// completado antes del vencimiento: la siguiente es la trimestral posterior
	_, err = f.rsvc.Complete(ctx, res.Reminders[0].ID)
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-10-15"}, f.rrepo.due(false))
	assert.Equal(t, []string{"2024-07-15"}, f.rrepo.due(true))
}

func TestService_CompleteVaccine_DoesNotRoll(t *testing.T) {
	f := newFixture("2024-06-01")
	ctx := context.Background()

	res, err := f.svc.Create(ctx, "pet-1", KindVaccine, Input{
		Label: "Rabies", OccurredOn: caldate.MustParse("2024-03-15"), Recurrence: yearly(5),
	})
	require.NoError(t, err)
	require.Len(t, res.Reminders, 2)

	_, err = f.rsvc.Complete(ctx, res.Reminders[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2034-03-15"}, f.rrepo.due(false))
}

func TestService_ReminderCompleted_IgnoresUnknownEvent(t *testing.T) {
	f := newFixture("2024-06-01")
	err := f.svc.ReminderCompleted(context.Background(), reminders.Reminder{
		PetID: "pet-1", SourceEventID: "gone", Type: reminders.TypeDeworming,
		DueDate: caldate.MustParse("2024-06-01"),
	})
	assert.NoError(t, err)
}

func TestService_List_ByKind(t *testing.T) {
	f := newFixture("2024-06-01")
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "pet-1", KindVaccine, Input{Label: "B", OccurredOn: caldate.MustParse("2024-02-01")})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, "pet-1", KindVaccine, Input{Label: "A", OccurredOn: caldate.MustParse("2024-01-01")})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, "pet-1", KindDeworming, Input{Label: "D", OccurredOn: caldate.MustParse("2024-01-15")})
	require.NoError(t, err)

	items, err := f.svc.List(ctx, "pet-1", KindVaccine)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].Label)
	assert.Equal(t, "B", items[1].Label)
}

func TestKind_Markers(t *testing.T) {
	assert.Equal(t, "Vacuna", KindVaccine.Marker())
	assert.Equal(t, "Desparasitación", KindDeworming.Marker())
	assert.Equal(t, "vaccinations", KindVaccine.Collection())
	assert.Equal(t, "dewormings", KindDeworming.Collection())
	assert.False(t, Kind("bath").Valid())
}
