package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/mealledger/internal/middleware"
	"github.com/atinyakov/mealledger/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MealService defines the daily meal operations used by MealHandler.
type MealService interface {
	List(ctx context.Context, userID, date string) ([]models.MealEntry, error)
	Create(ctx context.Context, userID string, m models.NewMealEntry) (*models.MealEntry, error)
	Update(ctx context.Context, userID, id string, p models.MealEntryPatch) (int64, error)
	Delete(ctx context.Context, userID, id string) (int64, error)
	Totals(ctx context.Context, userID, date string) (models.DailyTotals, error)
	Summary(ctx context.Context, userID, from, to string) ([]models.DaySummary, error)
}

// MealHandler serves /api/meals.
type MealHandler struct {
	MealService MealService
	Log         *zap.Logger
}

// List handles GET /api/meals?date=YYYY-MM-DD.
func (h *MealHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	meals, err := h.MealService.List(r.Context(), userID, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, meals)
}

// Create handles POST /api/meals and answers 201 with the stored row.
func (h *MealHandler) Create(w http.ResponseWriter, r *http.Request) {
	var m models.NewMealEntry
	if err := decode(r, &m); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	userID := middleware.GetUserIDFromContext(r.Context())
	created, err := h.MealService.Create(r.Context(), userID, m)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update handles PATCH /api/meals/{id}.
func (h *MealHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p models.MealEntryPatch
	if err := decode(r, &p); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	userID := middleware.GetUserIDFromContext(r.Context())
	n, err := h.MealService.Update(r.Context(), userID, chi.URLParam(r, "id"), p)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, affectedResponse{Affected: n})
}

// Delete handles DELETE /api/meals/{id}.
func (h *MealHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	n, err := h.MealService.Delete(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, affectedResponse{Affected: n})
}

// Totals handles GET /api/meals/totals?date=YYYY-MM-DD.
func (h *MealHandler) Totals(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	totals, err := h.MealService.Totals(r.Context(), userID, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

// Summary handles GET /api/meals/summary?from=&to=.
func (h *MealHandler) Summary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := middleware.GetUserIDFromContext(r.Context())
	days, err := h.MealService.Summary(r.Context(), userID, q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}
