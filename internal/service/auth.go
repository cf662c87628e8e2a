// Package service provides the business logic behind the HTTP API,
// delegating persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atinyakov/mealledger/internal/models"
	"github.com/atinyakov/mealledger/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUserExists is returned by Register when the login is taken.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned by Login for an unknown login or a
	// wrong password.
	ErrInvalidCredentials = errors.New("invalid login or password")
)

// AuthRepository defines the persistence operations
// required by the authentication service.
type AuthRepository interface {
	// UserExists returns true if a user with the given login exists.
	// ctx carries deadlines, cancellation signals, and other request-scoped values.
	UserExists(ctx context.Context, login string) (bool, error)
	// RegisterUser creates a new user record. created is false when the
	// login is already taken.
	RegisterUser(ctx context.Context, login string, passwordHash []byte) (id string, created bool, err error)
	// GetUserByLogin loads a user with its password hash.
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}

// TokenIssuer signs session tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID, login string) (string, error)
}

// Service implements authentication operations by delegating
// to an AuthRepository.
type Service struct {
	// repo performs the data-layer operations.
	repo   AuthRepository
	tokens TokenIssuer
	cost   int
}

// NewAuthService constructs a new Service using the provided repository
// and token issuer.
func NewAuthService(repo AuthRepository, tokens TokenIssuer) *Service {
	return &Service{repo: repo, tokens: tokens, cost: bcrypt.DefaultCost}
}

// UserExists checks whether a user with the specified login exists.
func (s *Service) UserExists(ctx context.Context, login string) (bool, error) {
	return s.repo.UserExists(ctx, login)
}

// Register creates a user with a bcrypt-hashed password and returns its ID.
func (s *Service) Register(ctx context.Context, login, password string) (string, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return "", fmt.Errorf("%w: login and password are required", models.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	id, created, err := s.repo.RegisterUser(ctx, login, hash)
	if err != nil {
		return "", err
	}
	if !created {
		return "", ErrUserExists
	}
	return id, nil
}

// Login checks the password and returns a signed token with the user ID.
func (s *Service) Login(ctx context.Context, login, password string) (token, userID string, err error) {
	u, err := s.repo.GetUserByLogin(ctx, strings.TrimSpace(login))
	if errors.Is(err, repository.ErrNotFound) {
		return "", "", ErrInvalidCredentials
	}
	if err != nil {
		return "", "", err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return "", "", ErrInvalidCredentials
	}
	token, err = s.tokens.Issue(u.ID, u.Login)
	if err != nil {
		return "", "", err
	}
	return token, u.ID, nil
}
