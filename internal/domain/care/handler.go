package care

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"pet-care-reminders/internal/domain/pets"
	"pet-care-reminders/internal/middleware"
	"pet-care-reminders/internal/platform/apperr"
	"pet-care-reminders/internal/platform/caldate"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta /vaccines y /dewormings con los mismos handlers.
func RegisterRoutes(r chi.Router, svc *Service, petsSvc *pets.Service) {
	for path, kind := range map[string]Kind{"vaccines": KindVaccine, "dewormings": KindDeworming} {
		r.Route("/pets/{petID}/"+path, func(cr chi.Router) {
			cr.Post("/", createCareEventHandler(svc, petsSvc, kind))
			cr.Get("/", listCareEventsHandler(svc, petsSvc, kind))
			cr.Get("/{eventID}", getCareEventHandler(svc, petsSvc, kind))
			cr.Put("/{eventID}", updateCareEventHandler(svc, petsSvc, kind))
			cr.Delete("/{eventID}", deleteCareEventHandler(svc, petsSvc, kind))
			cr.Get("/{eventID}/reminders", listEventRemindersHandler(svc, petsSvc, kind))
		})
	}
}

type recurrenceRequest struct {
	Enabled  bool   `json:"enabled"`
	Unit     string `json:"unit" enums:"months,years"` // vacunas: years por defecto
	Interval int    `json:"interval"`
}

// careEventRequest se usa tanto para crear (POST) como para reemplazar (PUT).
type careEventRequest struct {
	Label      string             `json:"label"`
	OccurredOn caldate.Date       `json:"occurred_on" swaggertype:"string" example:"2019-03-15"`
	Notes      string             `json:"notes"`
	Recurrence *recurrenceRequest `json:"recurrence"`
}

type recurrenceResponse struct {
	Enabled     bool   `json:"enabled"`
	Unit        string `json:"unit"`
	Interval    int    `json:"interval"`
	Description string `json:"description"`
}

// careEventResponse es una vacuna o desparasitación con sus próximos vencimientos.
type careEventResponse struct {
	ID         string              `json:"id"`
	PetID      string              `json:"pet_id"`
	Kind       Kind                `json:"kind"`
	Label      string              `json:"label"`
	OccurredOn caldate.Date        `json:"occurred_on" swaggertype:"string"`
	Notes      string              `json:"notes"`
	Recurrence *recurrenceResponse `json:"recurrence,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`

	// ScheduledDueDates solo en create/update: lo que se acaba de agendar.
	ScheduledDueDates []string `json:"scheduled_due_dates,omitempty"`
}

// createCareEventHandler godoc
// @Summary Registrar vacuna o desparasitación
// @Description Registra el evento y, si tiene recurrencia activa, agenda sus recordatorios. Vacunas: serie completa hasta 10 años desde hoy. Desparasitaciones: solo la próxima dosis. Las dosis atrasadas se colapsan en la próxima.
// @Tags care
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Param payload body careEventRequest true "Datos del evento; occurred_on en formato YYYY-MM-DD"
// @Success 201 {object} careEventResponse
// @Failure 400 {string} string "invalid json / recurrencia inválida / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/vaccines [post]
// @Router /pets/{petID}/dewormings [post]
func createCareEventHandler(svc *Service, petsSvc *pets.Service, kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := authorize(w, r, petsSvc)
		if !ok {
			return
		}

		in, ok := decodeInput(w, r)
		if !ok {
			return
		}

		res, err := svc.Create(r.Context(), p.ID, kind, in)
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.StatusCode(err))
			return
		}

		writeJSON(w, http.StatusCreated, toResultResponse(res))
	}
}

// listCareEventsHandler godoc
// @Summary Listar vacunas o desparasitaciones
// @Tags care
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Success 200 {array} careEventResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/vaccines [get]
// @Router /pets/{petID}/dewormings [get]
func listCareEventsHandler(svc *Service, petsSvc *pets.Service, kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := authorize(w, r, petsSvc)
		if !ok {
			return
		}

		items, err := svc.List(r.Context(), p.ID, kind)
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.StatusCode(err))
			return
		}

		out := make([]careEventResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toCareEventResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getCareEventHandler godoc
// @Summary Obtener vacuna o desparasitación
// @Tags care
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Param eventID path string true "ID del evento"
// @Success 200 {object} careEventResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/vaccines/{eventID} [get]
// @Router /pets/{petID}/dewormings/{eventID} [get]
func getCareEventHandler(svc *Service, petsSvc *pets.Service, kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := authorize(w, r, petsSvc)
		if !ok {
			return
		}

		e, err := svc.Get(r.Context(), p.ID, kind, chi.URLParam(r, "eventID"))
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.StatusCode(err))
			return
		}
		writeJSON(w, http.StatusOK, toCareEventResponse(e))
	}
}

// updateCareEventHandler godoc
// @Summary Editar vacuna o desparasitación
// @Description Reemplaza el evento y reconcilia sus recordatorios pendientes en una sola operación. Los completados se conservan.
// @Tags care
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Param eventID path string true "ID del evento"
// @Param payload body careEventRequest true "Nuevos datos del evento"
// @Success 200 {object} careEventResponse
// @Failure 400 {string} string "invalid json / recurrencia inválida / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/vaccines/{eventID} [put]
// @Router /pets/{petID}/dewormings/{eventID} [put]
func updateCareEventHandler(svc *Service, petsSvc *pets.Service, kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := authorize(w, r, petsSvc)
		if !ok {
			return
		}

		in, ok := decodeInput(w, r)
		if !ok {
			return
		}

		res, err := svc.Update(r.Context(), p.ID, kind, chi.URLParam(r, "eventID"), in)
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.StatusCode(err))
			return
		}
		writeJSON(w, http.StatusOK, toResultResponse(res))
	}
}

// deleteCareEventHandler godoc
// @Summary Borrar vacuna o desparasitación
// @Description Borra los recordatorios del evento (pendientes y completados) y luego el evento.
// @Tags care
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Param eventID path string true "ID del evento"
// @Success 204 "sin contenido"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/vaccines/{eventID} [delete]
// @Router /pets/{petID}/dewormings/{eventID} [delete]
func deleteCareEventHandler(svc *Service, petsSvc *pets.Service, kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := authorize(w, r, petsSvc)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), p.ID, kind, chi.URLParam(r, "eventID")); err != nil {
			http.Error(w, apperr.Message(err), apperr.StatusCode(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type eventReminderResponse struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	DueDate   caldate.Date `json:"due_date" swaggertype:"string"`
	Completed bool         `json:"completed"`
}

// listEventRemindersHandler godoc
// @Summary Recordatorios de un evento
// @Description Pendientes y completados generados por la vacuna o desparasitación.
// @Tags care
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Param eventID path string true "ID del evento"
// @Success 200 {array} eventReminderResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/vaccines/{eventID}/reminders [get]
// @Router /pets/{petID}/dewormings/{eventID}/reminders [get]
func listEventRemindersHandler(svc *Service, petsSvc *pets.Service, kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := authorize(w, r, petsSvc)
		if !ok {
			return
		}

		items, err := svc.Reminders(r.Context(), p.ID, kind, chi.URLParam(r, "eventID"))
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.StatusCode(err))
			return
		}

		out := make([]eventReminderResponse, 0, len(items))
		for _, it := range items {
			out = append(out, eventReminderResponse{
				ID:        it.ID,
				Title:     it.Title,
				DueDate:   it.DueDate,
				Completed: it.Completed,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func authorize(w http.ResponseWriter, r *http.Request, petsSvc *pets.Service) (pets.Pet, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return pets.Pet{}, false
	}
	p, err := petsSvc.AuthorizeOwner(r.Context(), chi.URLParam(r, "petID"), claims.UserID)
	if err != nil {
		http.Error(w, apperr.Message(err), apperr.StatusCode(err))
		return pets.Pet{}, false
	}
	return p, true
}

func decodeInput(w http.ResponseWriter, r *http.Request) (Input, bool) {
	var req careEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if apperr.IsValidation(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return Input{}, false
		}
		http.Error(w, "invalid json", http.StatusBadRequest)
		return Input{}, false
	}

	in := Input{Label: req.Label, OccurredOn: req.OccurredOn, Notes: req.Notes}
	if req.Recurrence != nil {
		in.Recurrence = &RecurrenceInput{
			Enabled:  req.Recurrence.Enabled,
			Unit:     req.Recurrence.Unit,
			Interval: req.Recurrence.Interval,
		}
	}
	return in, true
}

func toCareEventResponse(e CareEvent) careEventResponse {
	out := careEventResponse{
		ID:         e.ID,
		PetID:      e.PetID,
		Kind:       e.Kind,
		Label:      e.Label,
		OccurredOn: e.OccurredOn,
		Notes:      e.Notes,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
	if e.Recurrence != nil {
		out.Recurrence = &recurrenceResponse{
			Enabled:     e.Recurrence.Enabled,
			Unit:        string(e.Recurrence.Unit),
			Interval:    e.Recurrence.Interval,
			Description: e.Recurrence.Rule().Describe(),
		}
	}
	return out
}

func toResultResponse(res Result) careEventResponse {
	out := toCareEventResponse(res.Event)
	out.ScheduledDueDates = make([]string, 0, len(res.Reminders))
	for _, r := range res.Reminders {
		out.ScheduledDueDates = append(out.ScheduledDueDates, r.DueDate.String())
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
