package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atinyakov/mealledger/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const savedMealColumns = `id, user_id, name, calories, protein, carbs, fat, fiber, tags, notes, created_at, updated_at`

// PostgresSavedMealRepository implements saved meal storage against the saved_meals table.
type PostgresSavedMealRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresSavedMealRepository creates a new PostgresSavedMealRepository using the provided *sql.DB.
func NewPostgresSavedMealRepository(db *sql.DB) *PostgresSavedMealRepository {
	return &PostgresSavedMealRepository{DB: db}
}

func scanSavedMeal(s rowScanner) (models.SavedMeal, error) {
	var (
		m     models.SavedMeal
		tags  pq.StringArray
		notes sql.NullString
	)
	err := s.Scan(&m.ID, &m.UserID, &m.Name, &m.Calories, &m.Protein, &m.Carbs, &m.Fat, &m.Fiber,
		&tags, &notes, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return m, err
	}
	m.Tags = []string(tags)
	if m.Tags == nil {
		m.Tags = []string{}
	}
	m.Notes = notes.String
	return m, nil
}

// List returns all templates of the user, most recently created first.
func (r *PostgresSavedMealRepository) List(ctx context.Context, userID string) ([]models.SavedMeal, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+savedMealColumns+` FROM saved_meals
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	meals := []models.SavedMeal{}
	for rows.Next() {
		m, err := scanSavedMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		meals = append(meals, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return meals, nil
}

// Insert stores a new template and returns the stored row.
func (r *PostgresSavedMealRepository) Insert(ctx context.Context, userID string, m models.NewSavedMeal) (*models.SavedMeal, error) {
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO saved_meals (id, user_id, name, calories, protein, carbs, fat, fiber, tags, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+savedMealColumns,
		uuid.NewString(), userID, m.Name, m.Calories, m.Protein, m.Carbs, m.Fat, m.Fiber, pq.Array(tags), m.Notes,
	)
	created, err := scanSavedMeal(row)
	if err != nil {
		return nil, fmt.Errorf("insert saved meal: %w", err)
	}
	return &created, nil
}

// Update applies the present patch fields to the user's template and
// returns the number of affected rows.
func (r *PostgresSavedMealRepository) Update(ctx context.Context, userID, id string, p models.SavedMealPatch) (int64, error) {
	var b setBuilder
	if p.Name != nil {
		b.add("name", *p.Name)
	}
	if p.Calories != nil {
		b.add("calories", *p.Calories)
	}
	if p.Protein != nil {
		b.add("protein", *p.Protein)
	}
	if p.Carbs != nil {
		b.add("carbs", *p.Carbs)
	}
	if p.Fat != nil {
		b.add("fat", *p.Fat)
	}
	if p.Fiber != nil {
		b.add("fiber", *p.Fiber)
	}
	if p.Tags != nil {
		tags := *p.Tags
		if tags == nil {
			tags = []string{}
		}
		b.add("tags", pq.Array(tags))
	}
	if p.Notes != nil {
		b.add("notes", *p.Notes)
	}
	b.add("updated_at", updatedAt(p.UpdatedAt))

	query, args := b.build("saved_meals", id, userID)
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update saved meal: %w", err)
	}
	return res.RowsAffected()
}

// Delete removes the user's template and returns the number of affected rows.
func (r *PostgresSavedMealRepository) Delete(ctx context.Context, userID, id string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM saved_meals WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return 0, fmt.Errorf("delete saved meal: %w", err)
	}
	return res.RowsAffected()
}
