package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/mealledger/internal/middleware"
	"github.com/atinyakov/mealledger/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SavedMealService defines the saved meal operations used by SavedMealHandler.
type SavedMealService interface {
	List(ctx context.Context, userID string) ([]models.SavedMeal, error)
	Create(ctx context.Context, userID string, m models.NewSavedMeal) (*models.SavedMeal, error)
	Update(ctx context.Context, userID, id string, p models.SavedMealPatch) (int64, error)
	Delete(ctx context.Context, userID, id string) (int64, error)
}

// SavedMealHandler serves /api/saved-meals.
type SavedMealHandler struct {
	SavedMealService SavedMealService
	Log              *zap.Logger
}

// List handles GET /api/saved-meals.
func (h *SavedMealHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	meals, err := h.SavedMealService.List(r.Context(), userID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, meals)
}

// Create handles POST /api/saved-meals.
func (h *SavedMealHandler) Create(w http.ResponseWriter, r *http.Request) {
	var m models.NewSavedMeal
	if err := decode(r, &m); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	userID := middleware.GetUserIDFromContext(r.Context())
	created, err := h.SavedMealService.Create(r.Context(), userID, m)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update handles PATCH /api/saved-meals/{id}.
func (h *SavedMealHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p models.SavedMealPatch
	if err := decode(r, &p); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	userID := middleware.GetUserIDFromContext(r.Context())
	n, err := h.SavedMealService.Update(r.Context(), userID, chi.URLParam(r, "id"), p)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, affectedResponse{Affected: n})
}

// Delete handles DELETE /api/saved-meals/{id}.
func (h *SavedMealHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	n, err := h.SavedMealService.Delete(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, affectedResponse{Affected: n})
}
