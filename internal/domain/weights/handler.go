package weights

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

func RegisterRoutes(r chi.Router, svc *Service, petsSvc *pets.Service) {
	r.Route("/pets/{petID}/weights", func(wr chi.Router) {
		wr.Post("/", recordWeightHandler(svc, petsSvc))
		wr.Get("/", listWeightsHandler(svc, petsSvc))
		wr.Delete("/{recordID}", deleteWeightHandler(svc, petsSvc))
	})
}

type recordWeightRequest struct {
	WeightKg   float64      `json:"weight_kg" example:"12.4"`
	RecordedOn caldate.Date `json:"recorded_on" swaggertype:"string" example:"2024-01-10"` // opcional, por defecto hoy
	Notes      string       `json:"notes"`
}

type weightResponse struct {
	ID         string       `json:"id"`
	PetID      string       `json:"pet_id"`
	WeightKg   float64      `json:"weight_kg"`
	RecordedOn caldate.Date `json:"recorded_on" swaggertype:"string"`
	Notes      string       `json:"notes"`
	CreatedAt  time.Time    `json:"created_at"`
}

// recordWeightHandler godoc
// @Summary Registrar peso
// @Tags weights
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Param payload body recordWeightRequest true "Peso en kg; recorded_on en formato YYYY-MM-DD"
// @Success 201 {object} weightResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/weights [post]
func recordWeightHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := authorize(w, r, petsSvc)
		if !ok {
			return
		}

		var req recordWeightRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			if apperr.IsValidation(err) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		rec, err := svc.Record(r.Context(), p.ID, RecordInput{
			WeightKg:   req.WeightKg,
			RecordedOn: req.RecordedOn,
			Notes:      req.Notes,
		})
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.StatusCode(err))
			return
		}
		writeJSON(w, http.StatusCreated, toWeightResponse(rec))
	}
}

// listWeightsHandler godoc
// @Summary Historial de peso
// @Description Registros explícitos ordenados por fecha ascendente. El peso de alta de la mascota solo aparece en el timeline.
// @Tags weights
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Success 200 {array} weightResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/weights [get]
func listWeightsHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := authorize(w, r, petsSvc)
		if !ok {
			return
		}

		items, err := svc.List(r.Context(), p.ID)
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.StatusCode(err))
			return
		}
		out := make([]weightResponse, 0, len(items))
		for _, it := range items {
			out = append(out, toWeightResponse(it))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// deleteWeightHandler godoc
// @Summary Borrar registro de peso
// @Tags weights
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Param recordID path string true "ID del registro"
// @Success 204 "sin contenido"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/weights/{recordID} [delete]
func deleteWeightHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := authorize(w, r, petsSvc)
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), p.ID, chi.URLParam(r, "recordID")); err != nil {
			http.Error(w, apperr.Message(err), apperr.StatusCode(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
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

func toWeightResponse(w WeightRecord) weightResponse {
	return weightResponse{
		ID:         w.ID,
		PetID:      w.PetID,
		WeightKg:   w.WeightKg,
		RecordedOn: w.RecordedOn,
		Notes:      w.Notes,
		CreatedAt:  w.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
