package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/mealledger/internal/goal"
	"github.com/atinyakov/mealledger/internal/models"
	"github.com/atinyakov/mealledger/internal/service"
	"go.uber.org/zap"
)

// affectedResponse reports how many rows an update or delete touched.
type affectedResponse struct {
	Affected int64 `json:"affected"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to status codes. Validation messages are
// returned verbatim; anything unexpected is logged and hidden.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, goal.ErrInvalidInput),
		errors.Is(err, goal.ErrUnsupportedSex):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrNoProfile):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
