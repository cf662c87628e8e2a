package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/mealledger/internal/middleware"
	"github.com/atinyakov/mealledger/internal/models"
	"github.com/atinyakov/mealledger/internal/service"
	"go.uber.org/zap"
)

// ProfileService defines the profile and goal operations used by ProfileHandler.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Save(ctx context.Context, userID string, p models.ProfilePatch) (*models.Profile, error)
	Goal(ctx context.Context, userID string, req service.GoalRequest) (*service.GoalResult, error)
}

// ProfileHandler serves /api/profile and /api/goal.
type ProfileHandler struct {
	ProfileService ProfileService
	Log            *zap.Logger
}

// Get handles GET /api/profile. A user without a profile gets 404.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	p, err := h.ProfileService.Get(r.Context(), userID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Put handles PUT /api/profile. Only the fields present in the body change.
func (h *ProfileHandler) Put(w http.ResponseWriter, r *http.Request) {
	var p models.ProfilePatch
	if err := decode(r, &p); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	userID := middleware.GetUserIDFromContext(r.Context())
	saved, err := h.ProfileService.Save(r.Context(), userID, p)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// Goal handles POST /api/goal.
func (h *ProfileHandler) Goal(w http.ResponseWriter, r *http.Request) {
	var req service.GoalRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	userID := middleware.GetUserIDFromContext(r.Context())
	res, err := h.ProfileService.Goal(r.Context(), userID, req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
