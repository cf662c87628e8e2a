// Package models defines the core data structures for users, logged meals,
// saved meal templates and profiles.
package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of a calendar date (logged_date).
const DateLayout = "2006-01-02"

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// User represents an application user with credentials.
type User struct {
	// ID is the unique identifier for the user.
	ID string
	// Login is the name chosen by the user.
	Login string
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte
}

// MealSlot is the daily-recurring category a meal is logged under.
type MealSlot string

const (
	// Breakfast is the morning slot.
	Breakfast MealSlot = "breakfast"
	// Lunch is the midday slot.
	Lunch MealSlot = "lunch"
	// Dinner is the evening slot.
	Dinner MealSlot = "dinner"
	// Snack covers anything eaten between meals.
	Snack MealSlot = "snack"
)

// MealSlots lists every valid slot in display order.
var MealSlots = []MealSlot{Breakfast, Lunch, Dinner, Snack}

// Valid reports whether s is one of the four known slots.
func (s MealSlot) Valid() bool {
	switch s {
	case Breakfast, Lunch, Dinner, Snack:
		return true
	}
	return false
}

// ParseMealSlot converts user input into a MealSlot, ignoring case and
// surrounding whitespace.
func ParseMealSlot(s string) (MealSlot, error) {
	slot := MealSlot(strings.ToLower(strings.TrimSpace(s)))
	if !slot.Valid() {
		return "", fmt.Errorf("%w: unknown meal slot %q", ErrValidation, s)
	}
	return slot, nil
}

// Nutrients is the nutrient vector shared by logged meals, templates and
// daily totals. Macro values are grams.
type Nutrients struct {
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

// Add returns the element-wise sum of n and o.
func (n Nutrients) Add(o Nutrients) Nutrients {
	return Nutrients{
		Calories: n.Calories + o.Calories,
		Protein:  n.Protein + o.Protein,
		Carbs:    n.Carbs + o.Carbs,
		Fat:      n.Fat + o.Fat,
		Fiber:    n.Fiber + o.Fiber,
	}
}

// Validate rejects negative fields and calories above MaxCalories.
func (n Nutrients) Validate() error {
	if n.Calories < 0 {
		return fmt.Errorf("%w: calories must not be negative", ErrValidation)
	}
	if n.Calories > MaxCalories {
		return fmt.Errorf("%w: calories out of range", ErrValidation)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{{"protein", n.Protein}, {"carbs", n.Carbs}, {"fat", n.Fat}, {"fiber", n.Fiber}} {
		if f.v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrValidation, f.name)
		}
	}
	return nil
}

// DailyTotals is the derived nutrient sum of one user's meals for one day.
// It is never stored.
type DailyTotals = Nutrients

// SumNutrients folds the entries into their daily totals. An empty slice
// yields the zero vector.
func SumNutrients(entries []MealEntry) DailyTotals {
	var total DailyTotals
	for _, e := range entries {
		total = total.Add(e.Nutrients)
	}
	return total
}

// MealEntry is one row of the daily meal log.
type MealEntry struct {
	// ID is assigned by the store on insert.
	ID string `json:"id"`
	// UserID is the owning user.
	UserID string `json:"user_id"`
	// Name is the display name of the meal.
	Name string `json:"name"`
	Nutrients
	// MealTime is the slot the meal is logged under.
	MealTime MealSlot `json:"meal_time"`
	// LoggedDate is the calendar date (YYYY-MM-DD) the meal counts towards.
	LoggedDate string `json:"logged_date"`
	// LoggedAt is the creation instant, used for ordering.
	LoggedAt  time.Time `json:"logged_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewMealEntry is the insert payload of a MealEntry. Zero LoggedDate and
// LoggedAt are filled in by the store.
type NewMealEntry struct {
	Name string `json:"name"`
	Nutrients
	MealTime   MealSlot   `json:"meal_time"`
	LoggedDate string     `json:"logged_date,omitempty"`
	LoggedAt   *time.Time `json:"logged_at,omitempty"`
}

// Validate checks the fields required for insertion.
func (m NewMealEntry) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if !m.MealTime.Valid() {
		return fmt.Errorf("%w: unknown meal slot %q", ErrValidation, m.MealTime)
	}
	if m.LoggedDate != "" {
		if _, err := time.Parse(DateLayout, m.LoggedDate); err != nil {
			return fmt.Errorf("%w: logged_date must be YYYY-MM-DD", ErrValidation)
		}
	}
	return m.Nutrients.Validate()
}

// SavedMeal is a reusable meal template. It is not tied to any date.
type SavedMeal struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Nutrients
	// Tags are short labels used for search; order is insertion order.
	Tags      []string  `json:"tags"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSavedMeal is the insert payload of a SavedMeal.
type NewSavedMeal struct {
	Name string `json:"name"`
	Nutrients
	Tags  []string `json:"tags,omitempty"`
	Notes string   `json:"notes,omitempty"`
}

// Validate checks the fields required for insertion.
func (m NewSavedMeal) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	return m.Nutrients.Validate()
}

// Profile holds the body measurements used to derive a calorie goal.
// Numeric fields are nil when the user has not entered them.
type Profile struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Age       *int      `json:"age,omitempty"`
	Weight    *float64  `json:"weight,omitempty"`
	Height    *float64  `json:"height,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DaySummary is the nutrient total of one logged day, used for history
// and weekly views.
type DaySummary struct {
	Date   string      `json:"date"`
	Meals  int         `json:"meals"`
	Totals DailyTotals `json:"totals"`
}
