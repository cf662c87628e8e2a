package models

import (
	"fmt"
	"strings"
	"time"
)

// MealEntryPatch is a partial update of a MealEntry. A nil field is absent
// and leaves the stored value untouched.
type MealEntryPatch struct {
	Name     *string   `json:"name,omitempty"`
	Calories *int      `json:"calories,omitempty"`
	Protein  *float64  `json:"protein,omitempty"`
	Carbs    *float64  `json:"carbs,omitempty"`
	Fat      *float64  `json:"fat,omitempty"`
	Fiber    *float64  `json:"fiber,omitempty"`
	MealTime *MealSlot `json:"meal_time,omitempty"`
	// UpdatedAt is the refreshed modification marker sent with the patch.
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Empty reports whether the patch changes no user-visible field.
func (p MealEntryPatch) Empty() bool {
	return p.Name == nil && p.Calories == nil && p.Protein == nil && p.Carbs == nil &&
		p.Fat == nil && p.Fiber == nil && p.MealTime == nil
}

// Validate applies the MealEntry invariants to the present fields.
func (p MealEntryPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrValidation)
	}
	if p.MealTime != nil && !p.MealTime.Valid() {
		return fmt.Errorf("%w: unknown meal slot %q", ErrValidation, *p.MealTime)
	}
	return validateNutrientPtrs(p.Calories, p.Protein, p.Carbs, p.Fat, p.Fiber)
}

// Apply merges the present fields into e. ID, owner, date and LoggedAt are
// never touched.
func (p MealEntryPatch) Apply(e *MealEntry) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	applyNutrients(&e.Nutrients, p.Calories, p.Protein, p.Carbs, p.Fat, p.Fiber)
	if p.MealTime != nil {
		e.MealTime = *p.MealTime
	}
	if p.UpdatedAt != nil {
		e.UpdatedAt = *p.UpdatedAt
	}
}

// SavedMealPatch is a partial update of a SavedMeal.
type SavedMealPatch struct {
	Name      *string    `json:"name,omitempty"`
	Calories  *int       `json:"calories,omitempty"`
	Protein   *float64   `json:"protein,omitempty"`
	Carbs     *float64   `json:"carbs,omitempty"`
	Fat       *float64   `json:"fat,omitempty"`
	Fiber     *float64   `json:"fiber,omitempty"`
	Tags      *[]string  `json:"tags,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Empty reports whether the patch changes no user-visible field.
func (p SavedMealPatch) Empty() bool {
	return p.Name == nil && p.Calories == nil && p.Protein == nil && p.Carbs == nil &&
		p.Fat == nil && p.Fiber == nil && p.Tags == nil && p.Notes == nil
}

// Validate applies the SavedMeal invariants to the present fields.
func (p SavedMealPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrValidation)
	}
	return validateNutrientPtrs(p.Calories, p.Protein, p.Carbs, p.Fat, p.Fiber)
}

// Apply merges the present fields into m.
func (p SavedMealPatch) Apply(m *SavedMeal) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	applyNutrients(&m.Nutrients, p.Calories, p.Protein, p.Carbs, p.Fat, p.Fiber)
	if p.Tags != nil {
		m.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.Notes != nil {
		m.Notes = *p.Notes
	}
	if p.UpdatedAt != nil {
		m.UpdatedAt = *p.UpdatedAt
	}
}

// ProfilePatch is a partial update of a Profile.
type ProfilePatch struct {
	Name   *string  `json:"name,omitempty"`
	Age    *int     `json:"age,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
	Height *float64 `json:"height,omitempty"`
}

// Validate requires every present numeric field to be positive.
func (p ProfilePatch) Validate() error {
	if p.Age != nil && *p.Age <= 0 {
		return fmt.Errorf("%w: age must be positive", ErrValidation)
	}
	if p.Weight != nil && !(*p.Weight > 0) {
		return fmt.Errorf("%w: weight must be positive", ErrValidation)
	}
	if p.Height != nil && !(*p.Height > 0) {
		return fmt.Errorf("%w: height must be positive", ErrValidation)
	}
	return nil
}

// Apply merges the present fields into pr.
func (p ProfilePatch) Apply(pr *Profile) {
	if p.Name != nil {
		pr.Name = *p.Name
	}
	if p.Age != nil {
		v := *p.Age
		pr.Age = &v
	}
	if p.Weight != nil {
		v := *p.Weight
		pr.Weight = &v
	}
	if p.Height != nil {
		v := *p.Height
		pr.Height = &v
	}
}

func validateNutrientPtrs(cal *int, macros ...*float64) error {
	if cal != nil && *cal < 0 {
		return fmt.Errorf("%w: calories must not be negative", ErrValidation)
	}
	if cal != nil && *cal > MaxCalories {
		return fmt.Errorf("%w: calories out of range", ErrValidation)
	}
	names := []string{"protein", "carbs", "fat", "fiber"}
	for i, m := range macros {
		if m != nil && *m < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrValidation, names[i])
		}
	}
	return nil
}

func applyNutrients(n *Nutrients, cal *int, protein, carbs, fat, fiber *float64) {
	if cal != nil {
		n.Calories = *cal
	}
	if protein != nil {
		n.Protein = *protein
	}
	if carbs != nil {
		n.Carbs = *carbs
	}
	if fat != nil {
		n.Fat = *fat
	}
	if fiber != nil {
		n.Fiber = *fiber
	}
}
