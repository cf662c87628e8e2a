package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/mealledger/internal/models"
	"github.com/google/uuid"
)

// PostgresProfileRepository stores one profile row per user.
type PostgresProfileRepository struct {
	DB *sql.DB
}

// NewPostgresProfileRepository creates a new PostgresProfileRepository using the provided *sql.DB.
func NewPostgresProfileRepository(db *sql.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{DB: db}
}

func scanProfile(s rowScanner) (*models.Profile, error) {
	var (
		p      models.Profile
		name   sql.NullString
		age    sql.NullInt64
		weight sql.NullFloat64
		height sql.NullFloat64
	)
	if err := s.Scan(&p.ID, &p.UserID, &name, &age, &weight, &height, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Name = name.String
	if age.Valid {
		v := int(age.Int64)
		p.Age = &v
	}
	if weight.Valid {
		p.Weight = &weight.Float64
	}
	if height.Valid {
		p.Height = &height.Float64
	}
	return &p, nil
}

// Get returns the user's profile, or ErrNotFound when none was saved yet.
func (r *PostgresProfileRepository) Get(ctx context.Context, userID string) (*models.Profile, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, name, age, weight, height, created_at, updated_at
		FROM profiles WHERE user_id = $1
	`, userID)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// Upsert creates the user's profile or merges the present patch fields into
// the existing row. Absent fields keep their stored value.
func (r *PostgresProfileRepository) Upsert(ctx context.Context, userID string, patch models.ProfilePatch) (*models.Profile, error) {
	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO profiles (id, user_id, name, age, weight, height)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			name = COALESCE(EXCLUDED.name, profiles.name),
			age = COALESCE(EXCLUDED.age, profiles.age),
			weight = COALESCE(EXCLUDED.weight, profiles.weight),
			height = COALESCE(EXCLUDED.height, profiles.height),
			updated_at = NOW()
		RETURNING id, user_id, name, age, weight, height, created_at, updated_at
	`, uuid.NewString(), userID, nullable(patch.Name), nullable(patch.Age), nullable(patch.Weight), nullable(patch.Height))
	p, err := scanProfile(row)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return p, nil
}

// nullable turns a nil pointer into SQL NULL.
func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}
