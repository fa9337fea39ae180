package reminders

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pet-care-reminders/internal/domain/pets"
	"pet-care-reminders/internal/middleware"
	"pet-care-reminders/internal/platform/apperr"
	"pet-care-reminders/internal/platform/caldate"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, petsSvc *pets.Service) {
	r.Route("/pets/{petID}/reminders", func(rr chi.Router) {
		rr.Post("/", createReminderHandler(svc, petsSvc))
		rr.Get("/", listRemindersHandler(svc, petsSvc))
		rr.Post("/{reminderID}/complete", completeReminderHandler(svc, petsSvc))
		rr.Delete("/{reminderID}", deleteReminderHandler(svc, petsSvc))
	})

	// Pendientes de todas mis mascotas
	r.Get("/reminders/upcoming", upcomingRemindersHandler(svc, petsSvc))
}

type createReminderRequest struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	DueDate     caldate.Date `json:"due_date" swaggertype:"string" example:"2025-03-15"`
	Type        Type         `json:"type" enums:"vaccination,deworming,checkup,grooming,medication,general"`
}

// reminderResponse representa un vencimiento del calendario de la mascota.
type reminderResponse struct {
	ID            string       `json:"id"`
	PetID         string       `json:"pet_id"`
	SourceEventID string       `json:"source_event_id,omitempty"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	DueDate       caldate.Date `json:"due_date" swaggertype:"string"`
	Type          Type         `json:"type"`
	Completed     bool         `json:"completed"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// createReminderHandler godoc
// @Summary Crear recordatorio manual
// @Description Crea un recordatorio no ligado a ningún evento de cuidado. Solo el dueño de la mascota.
// @Tags reminders
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Param payload body createReminderRequest true "Datos del recordatorio; due_date en formato YYYY-MM-DD"
// @Success 201 {object} reminderResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/reminders [post]
func createReminderHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := authorize(w, r, petsSvc)
		if !ok {
			return
		}

		var req createReminderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			if apperr.IsValidation(err) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		rem, err := svc.Create(r.Context(), p.ID, CreateInput{
			Title:       req.Title,
			Description: req.Description,
			DueDate:     req.DueDate,
			Type:        req.Type,
		})
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.StatusCode(err))
			return
		}

		writeJSON(w, http.StatusCreated, toReminderResponse(rem))
	}
}

// listRemindersHandler godoc
// @Summary Listar recordatorios de una mascota
// @Description Ordenados por due_date ascendente. Por defecto solo pendientes.
// @Tags reminders
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Param from query string false "Desde (YYYY-MM-DD, inclusive)"
// @Param to query string false "Hasta (YYYY-MM-DD, inclusive)"
// @Param include_completed query bool false "Incluir completados"
// @Param limit query int false "Máximo a devolver (1-500)"
// @Success 200 {array} reminderResponse
// @Failure 400 {string} string "filtros inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/reminders [get]
func listRemindersHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := authorize(w, r, petsSvc)
		if !ok {
			return
		}

		filter, err := parseListFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := svc.ListByPet(r.Context(), p.ID, filter)
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.StatusCode(err))
			return
		}

		writeJSON(w, http.StatusOK, toReminderResponses(items))
	}
}

// completeReminderHandler godoc
// @Summary Completar recordatorio
// @Description Marca el recordatorio como completado (idempotente). Si lo generó una desparasitación recurrente, se agenda la siguiente dosis.
// @Tags reminders
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Param reminderID path string true "ID del recordatorio"
// @Success 200 {object} reminderResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/reminders/{reminderID}/complete [post]
func completeReminderHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := authorize(w, r, petsSvc)
		if !ok {
			return
		}

		id := chi.URLParam(r, "reminderID")
		if err := belongsTo(r.Context(), svc, id, p.ID); err != nil {
			http.Error(w, apperr.Message(err), apperr.StatusCode(err))
			return
		}

		rem, err := svc.Complete(r.Context(), id)
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.StatusCode(err))
			return
		}

		writeJSON(w, http.StatusOK, toReminderResponse(rem))
	}
}

// deleteReminderHandler godoc
// @Summary Borrar recordatorio
// @Tags reminders
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Param reminderID path string true "ID del recordatorio"
// @Success 204 "sin contenido"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/reminders/{reminderID} [delete]
func deleteReminderHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := authorize(w, r, petsSvc)
		if !ok {
			return
		}

		id := chi.URLParam(r, "reminderID")
		if err := belongsTo(r.Context(), svc, id, p.ID); err != nil {
			http.Error(w, apperr.Message(err), apperr.StatusCode(err))
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			http.Error(w, apperr.Message(err), apperr.StatusCode(err))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// upcomingRemindersHandler godoc
// @Summary Próximos recordatorios
// @Description Pendientes de todas las mascotas del usuario entre hoy y hoy+days.
// @Tags reminders
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param days query int false "Ventana en días (1-3650). Por defecto 30"
// @Success 200 {array} reminderResponse
// @Failure 400 {string} string "days inválido"
// @Failure 401 {string} string "unauthorized"
// @Router /reminders/upcoming [get]
func upcomingRemindersHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		days := 30
		if v := strings.TrimSpace(r.URL.Query().Get("days")); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 3650 {
				http.Error(w, "days must be an integer between 1 and 3650", http.StatusBadRequest)
				return
			}
			days = n
		}

		owned, err := petsSvc.ListByOwner(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		ids := make([]string, 0, len(owned))
		for _, p := range owned {
			ids = append(ids, p.ID)
		}

		items, err := svc.Upcoming(r.Context(), ids, days)
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.StatusCode(err))
			return
		}

		writeJSON(w, http.StatusOK, toReminderResponses(items))
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

// belongsTo evita operar sobre recordatorios de otra mascota vía URL cruzada.
func belongsTo(ctx context.Context, svc *Service, id, petID string) error {
	rem, err := svc.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rem.PetID != petID {
		return apperr.ErrNotFound
	}
	return nil
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	var f ListFilter

	if v := strings.TrimSpace(q.Get("from")); v != "" {
		d, err := caldate.Parse(v)
		if err != nil {
			return ListFilter{}, err
		}
		f.From = &d
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		d, err := caldate.Parse(v)
		if err != nil {
			return ListFilter{}, err
		}
		f.To = &d
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return ListFilter{}, apperr.Invalid("to", "must not be before from")
	}
	if v := strings.TrimSpace(q.Get("include_completed")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return ListFilter{}, apperr.Invalid("include_completed", "must be a boolean")
		}
		f.IncludeCompleted = b
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			return ListFilter{}, apperr.Invalid("limit", "must be between 1 and 500")
		}
		f.Limit = n
	}
	return f, nil
}

func toReminderResponse(r Reminder) reminderResponse {
	return reminderResponse{
		ID:            r.ID,
		PetID:         r.PetID,
		SourceEventID: r.SourceEventID,
		Title:         r.Title,
		Description:   r.Description,
		DueDate:       r.DueDate,
		Type:          r.Type,
		Completed:     r.Completed,
		CompletedAt:   r.CompletedAt,
		CreatedAt:     r.CreatedAt,
	}
}

func toReminderResponses(items []Reminder) []reminderResponse {
	out := make([]reminderResponse, 0, len(items))
	for _, r := range items {
		out = append(out, toReminderResponse(r))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
