package timeline

import (
	"encoding/json"
	"net/http"
	"strings"

	"pet-care-reminders/internal/domain/pets"
	"pet-care-reminders/internal/middleware"
	"pet-care-reminders/internal/platform/apperr"
	"pet-care-reminders/internal/platform/caldate"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, petsSvc *pets.Service) {
	r.Get("/pets/{petID}/timeline", timelineHandler(svc, petsSvc))
}

// eventResponse es una entrada del timeline de la mascota.
type eventResponse struct {
	Kind      Kind         `json:"kind"`
	Date      caldate.Date `json:"date" swaggertype:"string" example:"2024-01-10"`
	SourceID  string       `json:"source_id"`
	Label     string       `json:"label"`
	Detail    string       `json:"detail,omitempty"`
	WeightKg  *float64     `json:"weight_kg,omitempty"`
	IsInitial bool         `json:"is_initial,omitempty"`
	Notes     string       `json:"notes,omitempty"`
}

// timelineHandler godoc
// @Summary Timeline de la mascota
// @Description Fusiona pesos, vacunas y desparasitaciones. Incluye el peso de alta como entrada inicial si ningún registro cae en la fecha de creación. Mismo día: inicial, peso, vacuna, desparasitación.
// @Tags timeline
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Param order query string false "asc (gráfico) o desc (actividad reciente). Por defecto desc" Enums(asc, desc)
// @Success 200 {array} eventResponse
// @Failure 400 {string} string "order inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/timeline [get]
func timelineHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := petsSvc.AuthorizeOwner(r.Context(), chi.URLParam(r, "petID"), claims.UserID)
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.StatusCode(err))
			return
		}

		order, err := ParseOrder(r.URL.Query().Get("order"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		events, err := svc.ForPet(r.Context(), p, order)
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.StatusCode(err))
			return
		}

		out := make([]eventResponse, 0, len(events))
		for _, e := range events {
			out = append(out, eventResponse{
				Kind:      e.Kind,
				Date:      e.Date,
				SourceID:  e.SourceID,
				Label:     e.Label,
				Detail:    e.Detail,
				WeightKg:  e.WeightKg,
				IsInitial: e.IsInitial,
				Notes:     e.Notes,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
