// Package repository provides PostgreSQL persistence for users, logged
// meals, saved meals and profiles. Every statement that touches user data
// is filtered by user_id.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/mealledger/internal/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a single-row lookup matches nothing.
var ErrNotFound = errors.New("not found")

// PostgresAuthRepository implements user storage using a PostgreSQL database.
type PostgresAuthRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAuthRepository creates a new PostgresAuthRepository with the given database connection.
// db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresAuthRepository(db *sql.DB) *PostgresAuthRepository {
	return &PostgresAuthRepository{DB: db}
}

// UserExists checks whether a user with the specified login exists in the database.
func (r *PostgresAuthRepository) UserExists(ctx context.Context, login string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE login = $1)`,
		login,
	).Scan(&exists)
	return exists, err
}

// RegisterUser inserts a new user and returns its generated ID.
// If a user with the same login already exists, the ON CONFLICT DO NOTHING clause
// leaves the table untouched and created is false.
func (r *PostgresAuthRepository) RegisterUser(ctx context.Context, login string, passwordHash []byte) (id string, created bool, err error) {
	id = uuid.NewString()
	res, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO users (id, login, password_hash) VALUES ($1, $2, $3) ON CONFLICT (login) DO NOTHING`,
		id, login, passwordHash,
	)
	if err != nil {
		return "", false, fmt.Errorf("register user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("register user: %w", err)
	}
	if n == 0 {
		return "", false, nil
	}
	return id, true, nil
}

// GetUserByLogin loads a user with its password hash.
// Returns ErrNotFound when no such login exists.
func (r *PostgresAuthRepository) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT id, login, password_hash FROM users WHERE login = $1`,
		login,
	).Scan(&u.ID, &u.Login, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
