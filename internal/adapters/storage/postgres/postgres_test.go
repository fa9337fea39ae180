package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pet-care-reminders/internal/domain/care"
	"pet-care-reminders/internal/domain/pets"
	"pet-care-reminders/internal/domain/recurrence"
	"pet-care-reminders/internal/domain/reminders"
	"pet-care-reminders/internal/platform/caldate"
)

func TestTable(t *testing.T) {
	got, err := table(care.KindVaccine)
	require.NoError(t, err)
	assert.Equal(t, "vaccinations", got)

	got, err = table(care.KindDeworming)
	require.NoError(t, err)
	assert.Equal(t, "dewormings", got)

	_, err = table(care.Kind("grooming"))
	assert.Error(t, err)
}

func TestRecurrenceColumns(t *testing.T) {
	enabled, unit, interval := recurrenceColumns(nil)
	assert.False(t, enabled)
	assert.False(t, unit.Valid)
	assert.False(t, interval.Valid)

	enabled, unit, interval = recurrenceColumns(&care.Recurrence{Enabled: true, Unit: recurrence.Months, Interval: 3})
	assert.True(t, enabled)
	assert.Equal(t, "months", unit.String)
	assert.Equal(t, int64(3), interval.Int64)
}

func TestToNullString(t *testing.T) {
	assert.False(t, toNullString("  ").Valid)
	assert.Equal(t, "evt-1", toNullString("evt-1").String)
}

// Integración: solo corre con TEST_DB_DSN apuntando a una base desechable.
func openTestDB(t *testing.T) *RemindersRepo {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	db, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, MigrateUp(db))
	return NewRemindersRepo(db)
}

func TestRemindersRepo_ReplacePendingLegacyMatch(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	petID := uuid.NewString()
	require.NoError(t, NewPetsRepo(repo.db).Create(ctx, pets.Pet{
		ID: petID, OwnerUserID: "owner-1", Name: "Milo", Species: pets.SpeciesDog, Sex: pets.SexUnknown,
		CreatedAt: now, UpdatedAt: now,
	}))

	mk := func(source, title, desc, due string, completed bool) reminders.Reminder {
		r := reminders.Reminder{
			ID: uuid.NewString(), PetID: petID, SourceEventID: source,
			Title: title, Description: desc, DueDate: caldate.MustParse(due),
			Type: reminders.TypeVaccination, Completed: completed, CreatedAt: now,
		}
		if completed {
			r.CompletedAt = &now
		}
		return r
	}

	linked := mk("evt-1", "Vacuna: Rabies", "Recordatorio de Vacuna: Rabies", "2030-01-01", false)
	legacy := mk("", "Vacuna: rabies", "recordatorio de vacuna: rabies", "2031-01-01", false)
	done := mk("evt-1", "Vacuna: Rabies", "Recordatorio de Vacuna: Rabies", "2029-01-01", true)
	manual := mk("", "Control", "sin relación", "2030-06-01", false)
	require.NoError(t, repo.InsertBatch(ctx, []reminders.Reminder{linked, legacy, done, manual}))

	m := reminders.OwnerMatch{PetID: petID, SourceEventID: "evt-1", Label: "Rabies", Marker: "Vacuna"}
	fresh := mk("evt-1", "Vacuna: Rabies", "Recordatorio de Vacuna: Rabies", "2032-01-01", false)

	removed, err := repo.ReplacePending(ctx, m, []reminders.Reminder{fresh})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	all, err := repo.ListByPet(ctx, petID, reminders.ListFilter{IncludeCompleted: true})
	require.NoError(t, err)
	ids := make([]string, 0, len(all))
	for _, r := range all {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{done.ID, manual.ID, fresh.ID}, ids)

	n, err := repo.DeleteOwned(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	left, err := repo.ListByPet(ctx, petID, reminders.ListFilter{IncludeCompleted: true})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, manual.ID, left[0].ID)
}
