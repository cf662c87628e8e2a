// Package http provides the HTTP handlers and routing of the meal ledger
// API.
package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/atinyakov/mealledger/internal/service"
	"go.uber.org/zap"
)

// AuthService defines the interface for authentication operations
// required by the HTTP handlers.
type AuthService interface {
	// Register creates a user and returns its ID.
	Register(ctx context.Context, login, password string) (string, error)
	// Login verifies the credentials and returns a bearer token.
	Login(ctx context.Context, login, password string) (token, userID string, err error)
}

// AuthHandler handles HTTP requests for user registration and login.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	Log         *zap.Logger
}

// CredentialsRequest represents the JSON payload for registration and login.
type CredentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Register handles POST /api/register.
// It expects a JSON body with non-empty "login" and "password" fields and
// answers 201 with the new user's ID, or 409 if the login is taken.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decode(r, &req); err != nil || req.Login == "" || req.Password == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	id, err := h.AuthService.Register(r.Context(), req.Login, req.Password)
	if errors.Is(err, service.ErrUserExists) {
		http.Error(w, "user already exists", http.StatusConflict)
		return
	}
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id, "login": req.Login})
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// Login handles POST /api/login and answers with a bearer token, or 401 on
// a credential mismatch.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decode(r, &req); err != nil || req.Login == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	token, userID, err := h.AuthService.Login(r.Context(), req.Login, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token, UserID: userID})
}
