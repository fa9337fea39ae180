package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pet-care-reminders/internal/middleware"
	"pet-care-reminders/internal/platform/caldate"
	"pet-care-reminders/internal/router"
)

func newServer(t *testing.T, opts router.Options) *httptest.Server {
	t.Helper()
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	ts := httptest.NewServer(router.NewRouter(opts))
	t.Cleanup(ts.Close)
	return ts
}

func today() caldate.Date { return caldate.Today(time.Now(), time.UTC) }

type careResp struct {
	ID                string   `json:"id"`
	Label             string   `json:"label"`
	ScheduledDueDates []string `json:"scheduled_due_dates"`
}

type reminderResp struct {
	ID            string `json:"id"`
	SourceEventID string `json:"source_event_id"`
	Title         string `json:"title"`
	DueDate       string `json:"due_date"`
	Type          string `json:"type"`
	Completed     bool   `json:"completed"`
}

type timelineResp struct {
	Kind      string `json:"kind"`
	Date      string `json:"date"`
	SourceID  string `json:"source_id"`
	IsInitial bool   `json:"is_initial"`
}

func TestHTTP_EndToEnd_VaccineSchedule(t *testing.T) {
	ts := newServer(t, router.Options{})
	owner := "owner-1"

	petID := createPet(t, ts.URL, owner, map[string]any{
		"name":    "Milo",
		"species": "dog",
		"sex":     "male",
		"weight":  12.5,
	})

	occurred := today().AddDays(-30)

	// 1) Vacuna anual: serie completa dentro de 10 años
	var vac careResp
	{
		st, body := doReq(t, ts.URL, "POST", "/pets/"+petID+"/vaccines", owner, map[string]any{
			"label":       "Rabies",
			"occurred_on": occurred.String(),
			"recurrence":  map[string]any{"enabled": true, "interval": 1},
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 create vaccine, got %d body=%s", st, string(body))
		}
		mustJSON(t, body, &vac)
		if len(vac.ScheduledDueDates) != 10 {
			t.Fatalf("expected 10 scheduled dates, got %d: %v", len(vac.ScheduledDueDates), vac.ScheduledDueDates)
		}
		if vac.ScheduledDueDates[0] != occurred.AddYears(1).String() {
			t.Fatalf("first due = %s, want %s", vac.ScheduledDueDates[0], occurred.AddYears(1))
		}
	}

	// 2) Los recordatorios quedan ligados al evento
	{
		items := listReminders(t, ts.URL, owner, petID, "")
		if len(items) != 10 {
			t.Fatalf("expected 10 reminders, got %d", len(items))
		}
		for _, it := range items {
			if it.SourceEventID != vac.ID || it.Type != "vaccination" {
				t.Fatalf("unexpected reminder %+v", it)
			}
			if it.Title != "Vacuna: Rabies" {
				t.Fatalf("unexpected title %q", it.Title)
			}
		}
	}

	// 3) Completar uno y editar: el completado sobrevive, los pendientes se reemplazan
	{
		first := listReminders(t, ts.URL, owner, petID, "")[0]
		st, body := doReq(t, ts.URL, "POST", "/pets/"+petID+"/reminders/"+first.ID+"/complete", owner, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 complete, got %d body=%s", st, string(body))
		}

		st, body = doReq(t, ts.URL, "PUT", "/pets/"+petID+"/vaccines/"+vac.ID, owner, map[string]any{
			"label":       "Rabia",
			"occurred_on": occurred.String(),
			"recurrence":  map[string]any{"enabled": true, "unit": "years", "interval": 3},
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 update vaccine, got %d body=%s", st, string(body))
		}
		var upd careResp
		mustJSON(t, body, &upd)
		if len(upd.ScheduledDueDates) != 3 {
			t.Fatalf("expected 3 dates every 3 years, got %v", upd.ScheduledDueDates)
		}

		all := listReminders(t, ts.URL, owner, petID, "?include_completed=true")
		completed := 0
		for _, it := range all {
			if it.Completed {
				completed++
				if it.ID != first.ID {
					t.Fatalf("unexpected completed reminder %+v", it)
				}
			}
		}
		if completed != 1 || len(all) != 4 {
			t.Fatalf("expected 1 completed + 3 pending, got %d total, %d completed", len(all), completed)
		}

		st, body = doReq(t, ts.URL, "GET", "/pets/"+petID+"/vaccines/"+vac.ID+"/reminders", owner, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 event reminders, got %d body=%s", st, string(body))
		}
		var owned []reminderResp
		mustJSON(t, body, &owned)
		if len(owned) != 4 {
			t.Fatalf("expected the event to own 4 reminders, got %d", len(owned))
		}
	}

	// 4) Timeline: peso inicial y la vacuna
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+petID+"/timeline?order=asc", owner, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 timeline, got %d body=%s", st, string(body))
		}
		var events []timelineResp
		mustJSON(t, body, &events)
		if len(events) != 2 {
			t.Fatalf("expected 2 timeline events, got %+v", events)
		}
		if events[0].Kind != "vaccine" || events[0].Date != occurred.String() {
			t.Fatalf("expected vaccine first in asc order, got %+v", events[0])
		}
		if !events[1].IsInitial || events[1].Kind != "weight" {
			t.Fatalf("expected initial weight entry, got %+v", events[1])
		}
	}

	// 5) Borrar la vacuna retira todos sus recordatorios
	{
		st, body := doReq(t, ts.URL, "DELETE", "/pets/"+petID+"/vaccines/"+vac.ID, owner, nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected 204 delete vaccine, got %d body=%s", st, string(body))
		}
		if left := listReminders(t, ts.URL, owner, petID, "?include_completed=true"); len(left) != 0 {
			t.Fatalf("expected no reminders after delete, got %+v", left)
		}
		st, _ = doReq(t, ts.URL, "GET", "/pets/"+petID+"/vaccines/"+vac.ID, owner, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 for deleted vaccine, got %d", st)
		}
	}
}

func TestHTTP_EndToEnd_DewormingRollsForward(t *testing.T) {
	ts := newServer(t, router.Options{})
	owner := "owner-1"
	petID := createPet(t, ts.URL, owner, map[string]any{"name": "Luna", "species": "cat"})

	st, body := doReq(t, ts.URL, "POST", "/pets/"+petID+"/dewormings", owner, map[string]any{
		"label":       "Drontal",
		"occurred_on": today().AddDays(-10).String(),
		"recurrence":  map[string]any{"enabled": true, "unit": "months", "interval": 1},
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create deworming, got %d body=%s", st, string(body))
	}
	var dw careResp
	mustJSON(t, body, &dw)
	if len(dw.ScheduledDueDates) != 1 {
		t.Fatalf("deworming schedules only the next dose, got %v", dw.ScheduledDueDates)
	}

	pending := listReminders(t, ts.URL, owner, petID, "")
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending, got %+v", pending)
	}

	st, body = doReq(t, ts.URL, "POST", "/pets/"+petID+"/reminders/"+pending[0].ID+"/complete", owner, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 complete, got %d body=%s", st, string(body))
	}

	next := listReminders(t, ts.URL, owner, petID, "")
	if len(next) != 1 {
		t.Fatalf("expected the next dose to be scheduled, got %+v", next)
	}
	if next[0].ID == pending[0].ID || next[0].DueDate <= pending[0].DueDate {
		t.Fatalf("expected a later due date than %s, got %+v", pending[0].DueDate, next[0])
	}

	// Completar otra vez el mismo es idempotente
	st, _ = doReq(t, ts.URL, "POST", "/pets/"+petID+"/reminders/"+pending[0].ID+"/complete", owner, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 on repeated complete, got %d", st)
	}
	if again := listReminders(t, ts.URL, owner, petID, ""); len(again) != 1 || again[0].ID != next[0].ID {
		t.Fatalf("repeated complete should not reschedule, got %+v", again)
	}
}

func TestHTTP_Upcoming_AcrossOwnPets(t *testing.T) {
	ts := newServer(t, router.Options{})

	pet1 := createPet(t, ts.URL, "owner-1", map[string]any{"name": "A", "species": "dog"})
	pet2 := createPet(t, ts.URL, "owner-1", map[string]any{"name": "B", "species": "cat"})
	other := createPet(t, ts.URL, "owner-2", map[string]any{"name": "C", "species": "dog"})

	for _, p := range []struct{ owner, pet string }{{"owner-1", pet1}, {"owner-1", pet2}, {"owner-2", other}} {
		st, body := doReq(t, ts.URL, "POST", "/pets/"+p.pet+"/reminders", p.owner, map[string]any{
			"title":    "Control",
			"due_date": today().AddDays(5).String(),
			"type":     "checkup",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 create reminder, got %d body=%s", st, string(body))
		}
	}

	st, body := doReq(t, ts.URL, "GET", "/reminders/upcoming?days=7", "owner-1", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 upcoming, got %d body=%s", st, string(body))
	}
	var items []reminderResp
	mustJSON(t, body, &items)
	if len(items) != 2 {
		t.Fatalf("expected 2 upcoming for owner-1, got %+v", items)
	}

	st, _ = doReq(t, ts.URL, "GET", "/reminders/upcoming?days=0", "owner-1", nil)
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 for days=0, got %d", st)
	}
}

func TestHTTP_AccessControl(t *testing.T) {
	ts := newServer(t, router.Options{})
	petID := createPet(t, ts.URL, "owner-1", map[string]any{"name": "Milo", "species": "dog"})

	paths := []string{
		"/pets/" + petID,
		"/pets/" + petID + "/vaccines",
		"/pets/" + petID + "/dewormings",
		"/pets/" + petID + "/reminders",
		"/pets/" + petID + "/weights",
		"/pets/" + petID + "/timeline",
	}
	for _, p := range paths {
		if st, _ := doReq(t, ts.URL, "GET", p, "intruder", nil); st != http.StatusForbidden {
			t.Errorf("GET %s by other user: expected 403, got %d", p, st)
		}
		if st, _ := doReq(t, ts.URL, "GET", p, "", nil); st != http.StatusUnauthorized {
			t.Errorf("GET %s without auth: expected 401, got %d", p, st)
		}
	}

	if st, _ := doReq(t, ts.URL, "GET", "/pets/does-not-exist/vaccines", "owner-1", nil); st != http.StatusNotFound {
		t.Errorf("expected 404 for unknown pet, got %d", st)
	}
}

func TestHTTP_Validation(t *testing.T) {
	ts := newServer(t, router.Options{})
	owner := "owner-1"

	if st, _ := doReq(t, ts.URL, "POST", "/pets", owner, map[string]any{"name": "X", "species": "hamster"}); st != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad species, got %d", st)
	}

	petID := createPet(t, ts.URL, owner, map[string]any{"name": "Milo", "species": "dog"})

	cases := []map[string]any{
		{"label": "", "occurred_on": "2024-01-10"},
		{"label": "Rabies", "occurred_on": "2024-13-40"},
		{"label": "Rabies", "occurred_on": "2024-01-10", "recurrence": map[string]any{"enabled": true, "unit": "weeks", "interval": 1}},
		{"label": "Rabies", "occurred_on": "2024-01-10", "recurrence": map[string]any{"enabled": true, "interval": 0}},
		{"label": "Rabies", "occurred_on": "2024-01-10", "recurrence": map[string]any{"enabled": true, "interval": math.MaxInt64}},
		{"label": "Rabies", "occurred_on": "2024-01-10", "recurrence": map[string]any{"enabled": true, "unit": "months", "interval": math.MaxInt64}},
	}
	for i, c := range cases {
		if st, body := doReq(t, ts.URL, "POST", "/pets/"+petID+"/vaccines", owner, c); st != http.StatusBadRequest {
			t.Errorf("case %d: expected 400, got %d body=%s", i, st, string(body))
		}
	}

	if left := listReminders(t, ts.URL, owner, petID, "?include_completed=true"); len(left) != 0 {
		t.Fatalf("rejected requests must not write reminders, got %+v", left)
	}

	if st, _ := doReq(t, ts.URL, "POST", "/pets/"+petID+"/weights", owner, map[string]any{"weight_kg": -1}); st != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative weight, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "GET", "/pets/"+petID+"/timeline?order=sideways", owner, nil); st != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad order, got %d", st)
	}
}

func TestHTTP_RateLimitOnWrites(t *testing.T) {
	ts := newServer(t, router.Options{RateLimiter: middleware.NewRateLimiter(0.001, 2)})

	for i := 0; i < 2; i++ {
		createPet(t, ts.URL, "owner-1", map[string]any{"name": "P", "species": "dog"})
	}
	st, _ := doReq(t, ts.URL, "POST", "/pets", "owner-1", map[string]any{"name": "P", "species": "dog"})
	if st != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "GET", "/pets", "owner-1", nil); st != http.StatusOK {
		t.Fatalf("reads are not limited, got %d", st)
	}
}

func TestHTTP_Health(t *testing.T) {
	ts := newServer(t, router.Options{})
	st, body := doReq(t, ts.URL, "GET", "/health", "", nil)
	if st != http.StatusOK || string(body) != "ok" {
		t.Fatalf("unexpected health response %d %q", st, string(body))
	}
}

// -------------------------
// Helpers
// -------------------------

func createPet(t *testing.T, baseURL, userID string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/pets", userID, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create pet, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	mustJSON(t, body, &resp)
	if resp.ID == "" {
		t.Fatalf("expected pet id in response, body=%s", string(body))
	}
	return resp.ID
}

func listReminders(t *testing.T, baseURL, userID, petID, query string) []reminderResp {
	t.Helper()

	st, body := doReq(t, baseURL, "GET", "/pets/"+petID+"/reminders"+query, userID, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 list reminders, got %d body=%s", st, string(body))
	}
	var items []reminderResp
	mustJSON(t, body, &items)
	return items
}

func mustJSON(t *testing.T, body []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("invalid json: %v body=%s", err, string(body))
	}
}

func doReq(t *testing.T, baseURL, method, path, userID string, payload any) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(middleware.DebugUserHeader, userID)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}
