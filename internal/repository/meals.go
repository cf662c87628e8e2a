package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/atinyakov/mealledger/internal/models"
	"github.com/google/uuid"
)

const mealColumns = `id, user_id, name, calories, protein, carbs, fat, fiber, meal_time, logged_date, logged_at, created_at, updated_at`

// PostgresMealRepository implements daily meal storage against the daily_meals table.
type PostgresMealRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresMealRepository creates a new PostgresMealRepository using the provided *sql.DB.
func NewPostgresMealRepository(db *sql.DB) *PostgresMealRepository {
	return &PostgresMealRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeal(s rowScanner) (models.MealEntry, error) {
	var (
		m    models.MealEntry
		slot string
		date time.Time
	)
	err := s.Scan(&m.ID, &m.UserID, &m.Name, &m.Calories, &m.Protein, &m.Carbs, &m.Fat, &m.Fiber,
		&slot, &date, &m.LoggedAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return m, err
	}
	m.MealTime = models.MealSlot(slot)
	m.LoggedDate = models.DateOf(date)
	return m, nil
}

// ListByDate fetches the user's meals logged on date, most recent first.
//
//	ctx:    context for cancellation and deadlines
//	userID: identifier of the user
//	date:   calendar date, YYYY-MM-DD
func (r *PostgresMealRepository) ListByDate(ctx context.Context, userID, date string) ([]models.MealEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+mealColumns+` FROM daily_meals
		WHERE user_id = $1 AND logged_date = $2
		ORDER BY logged_at DESC
	`, userID, date)
	if err != nil {
		return nil, fmt.Errorf("ListByDate: %w", err)
	}
	defer rows.Close()

	meals := []models.MealEntry{}
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		meals = append(meals, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByDate: %w", err)
	}
	return meals, nil
}

// Insert stores a new meal for the user and returns the stored row. A
// missing logged_date or logged_at defaults to the database's current
// date and time.
func (r *PostgresMealRepository) Insert(ctx context.Context, userID string, m models.NewMealEntry) (*models.MealEntry, error) {
	var date, at any
	if m.LoggedDate != "" {
		date = m.LoggedDate
	}
	if m.LoggedAt != nil {
		at = *m.LoggedAt
	}
	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO daily_meals (id, user_id, name, calories, protein, carbs, fat, fiber, meal_time, logged_date, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10::date, CURRENT_DATE), COALESCE($11::timestamptz, NOW()))
		RETURNING `+mealColumns,
		uuid.NewString(), userID, m.Name, m.Calories, m.Protein, m.Carbs, m.Fat, m.Fiber, string(m.MealTime), date, at,
	)
	created, err := scanMeal(row)
	if err != nil {
		return nil, fmt.Errorf("insert meal: %w", err)
	}
	return &created, nil
}

// Update applies the present patch fields and a fresh updated_at to the
// user's meal. It returns the number of affected rows; zero means the meal
// does not exist or belongs to someone else.
func (r *PostgresMealRepository) Update(ctx context.Context, userID, id string, p models.MealEntryPatch) (int64, error) {
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
	if p.MealTime != nil {
		b.add("meal_time", string(*p.MealTime))
	}
	b.add("updated_at", updatedAt(p.UpdatedAt))

	query, args := b.build("daily_meals", id, userID)
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update meal: %w", err)
	}
	return res.RowsAffected()
}

// Delete removes the user's meal and returns the number of affected rows.
func (r *PostgresMealRepository) Delete(ctx context.Context, userID, id string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM daily_meals WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return 0, fmt.Errorf("delete meal: %w", err)
	}
	return res.RowsAffected()
}

// Summaries returns per-day totals for the user between from and to
// inclusive, oldest day first. Days without meals are omitted.
func (r *PostgresMealRepository) Summaries(ctx context.Context, userID, from, to string) ([]models.DaySummary, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT logged_date, COUNT(*), COALESCE(SUM(calories), 0), COALESCE(SUM(protein), 0),
		       COALESCE(SUM(carbs), 0), COALESCE(SUM(fat), 0), COALESCE(SUM(fiber), 0)
		FROM daily_meals
		WHERE user_id = $1 AND logged_date BETWEEN $2 AND $3
		GROUP BY logged_date
		ORDER BY logged_date
	`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("Summaries: %w", err)
	}
	defer rows.Close()

	out := []models.DaySummary{}
	for rows.Next() {
		var (
			s    models.DaySummary
			date time.Time
		)
		t := &s.Totals
		if err := rows.Scan(&date, &s.Meals, &t.Calories, &t.Protein, &t.Carbs, &t.Fat, &t.Fiber); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		s.Date = models.DateOf(date)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Summaries: %w", err)
	}
	return out, nil
}

func updatedAt(t *time.Time) time.Time {
	if t != nil {
		return t.UTC()
	}
	return time.Now().UTC()
}
