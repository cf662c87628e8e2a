// Package catalog keeps a user's reusable meal templates in memory,
// consistent with the remote store, and copies them into the daily ledger.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/atinyakov/mealledger/internal/models"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a template is not held for the user, or the
// store reports that nothing was changed.
var ErrNotFound = errors.New("saved meal not found")

// SavedMealStore is the remote table store for saved meals. Every call is
// scoped to userID.
type SavedMealStore interface {
	// ListSavedMeals returns the user's templates, most recently created first.
	ListSavedMeals(ctx context.Context, userID string) ([]models.SavedMeal, error)
	// InsertSavedMeal stores a new template and returns the stored row.
	InsertSavedMeal(ctx context.Context, userID string, m models.NewSavedMeal) (*models.SavedMeal, error)
	// UpdateSavedMeal applies the patch and returns the number of affected rows.
	UpdateSavedMeal(ctx context.Context, userID, id string, p models.SavedMealPatch) (int64, error)
	// DeleteSavedMeal removes the template and returns the number of affected rows.
	DeleteSavedMeal(ctx context.Context, userID, id string) (int64, error)
}

// MealAdder receives materialized templates. *ledger.Ledger satisfies it.
type MealAdder interface {
	Add(ctx context.Context, user string, m models.NewMealEntry) (*models.MealEntry, error)
}

// SavedMealForm is the raw "save meal" submission.
type SavedMealForm struct {
	Name     string
	Calories string
	Protein  string
	Carbs    string
	Fat      string
	Fiber    string
	Notes    string
	Tags     *TagList
}

// Parse validates the required fields and coerces the optional macros.
func (f SavedMealForm) Parse() (models.NewSavedMeal, error) {
	var m models.NewSavedMeal
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return m, fmt.Errorf("%w: name is required", models.ErrValidation)
	}
	cal, err := models.ParseCalories(f.Calories)
	if err != nil {
		return m, err
	}
	m.Name = name
	m.Nutrients = models.Nutrients{
		Calories: cal,
		Protein:  models.ParseGrams(f.Protein),
		Carbs:    models.ParseGrams(f.Carbs),
		Fat:      models.ParseGrams(f.Fat),
		Fiber:    models.ParseGrams(f.Fiber),
	}
	m.Notes = strings.TrimSpace(f.Notes)
	if f.Tags != nil {
		m.Tags = f.Tags.Values()
	}
	return m, m.Validate()
}

// Clock supplies the time used for updated_at stamps. ledger.Clock
// satisfies it.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Catalog is the session cache of one user's saved meals.
type Catalog struct {
	store SavedMealStore
	clock Clock
	log   *zap.Logger

	mu      sync.RWMutex
	user    string
	meals   []models.SavedMeal
	loadErr error
}

// New creates an empty catalog. A nil clock reads the wall clock and a nil
// logger discards output.
func New(store SavedMealStore, clock Clock, log *zap.Logger) *Catalog {
	if clock == nil {
		clock = systemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{store: store, clock: clock, log: log}
}

// Load replaces the cache with the user's templates. On failure the cache
// is left empty and the error is kept for Err.
func (c *Catalog) Load(ctx context.Context, user string) error {
	meals, err := c.store.ListSavedMeals(ctx, user)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = user
	if err != nil {
		c.meals = nil
		c.loadErr = fmt.Errorf("load saved meals: %w", err)
		c.log.Error("failed to load saved meals", zap.String("user", user), zap.Error(err))
		return c.loadErr
	}
	c.loadErr = nil
	slices.SortStableFunc(meals, func(a, b models.SavedMeal) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	c.meals = meals
	return nil
}

// Create validates m, normalises its tags and persists it. The stored row
// is placed at the front of the cache.
func (c *Catalog) Create(ctx context.Context, user string, m models.NewSavedMeal) (*models.SavedMeal, error) {
	m.Tags = NormalizeTags(m.Tags)
	if err := m.Validate(); err != nil {
		return nil, err
	}

	created, err := c.store.InsertSavedMeal(ctx, user, m)
	if err != nil {
		c.log.Error("failed to save meal", zap.String("user", user), zap.String("name", m.Name), zap.Error(err))
		return nil, fmt.Errorf("save meal: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == user {
		c.meals = slices.Insert(c.meals, 0, *created)
	}
	out := *created
	return &out, nil
}

// CreateForm parses a raw submission and creates it.
func (c *Catalog) CreateForm(ctx context.Context, user string, f SavedMealForm) (*models.SavedMeal, error) {
	m, err := f.Parse()
	if err != nil {
		return nil, err
	}
	return c.Create(ctx, user, m)
}

// Update sends the present patch fields and merges them into the cache on
// success.
func (c *Catalog) Update(ctx context.Context, user, id string, p models.SavedMealPatch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if !c.holds(user, id) {
		return fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	if p.Empty() {
		return nil
	}
	if p.Tags != nil {
		tags := NormalizeTags(*p.Tags)
		if tags == nil {
			tags = []string{}
		}
		p.Tags = &tags
	}
	now := c.clock.Now().UTC()
	p.UpdatedAt = &now

	affected, err := c.store.UpdateSavedMeal(ctx, user, id, p)
	if err != nil {
		c.log.Error("failed to update saved meal", zap.String("user", user), zap.String("id", id), zap.Error(err))
		return fmt.Errorf("update saved meal: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update %s: %w", id, ErrNotFound)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(user, id); i >= 0 {
		p.Apply(&c.meals[i])
	}
	return nil
}

// Delete removes the template from the store and then from the cache.
func (c *Catalog) Delete(ctx context.Context, user, id string) error {
	if !c.holds(user, id) {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}

	affected, err := c.store.DeleteSavedMeal(ctx, user, id)
	if err != nil {
		c.log.Error("failed to delete saved meal", zap.String("user", user), zap.String("id", id), zap.Error(err))
		return fmt.Errorf("delete saved meal: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(user, id); i >= 0 {
		c.meals = slices.Delete(c.meals, i, i+1)
	}
	return nil
}

// Search returns the templates whose name or any tag contains term,
// ignoring case. An empty term matches everything. The cache is not
// changed.
func (c *Catalog) Search(term string) []models.SavedMeal {
	c.mu.RLock()
	defer c.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(term))
	out := make([]models.SavedMeal, 0, len(c.meals))
	for _, m := range c.meals {
		if matches(m, needle) {
			out = append(out, m)
		}
	}
	return out
}

func matches(m models.SavedMeal, needle string) bool {
	if strings.Contains(strings.ToLower(m.Name), needle) {
		return true
	}
	for _, t := range m.Tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}

// MaterializeToLedger copies the template's name and nutrients into a new
// entry for today under slot. The template itself is not modified. An
// empty slot means snack.
func (c *Catalog) MaterializeToLedger(ctx context.Context, user string, m models.SavedMeal, slot models.MealSlot, ledger MealAdder) (*models.MealEntry, error) {
	if m.UserID != "" && m.UserID != user {
		return nil, fmt.Errorf("materialize %s: %w", m.ID, ErrNotFound)
	}
	if slot == "" {
		slot = models.Snack
	}
	entry, err := ledger.Add(ctx, user, models.NewMealEntry{
		Name:      m.Name,
		Nutrients: m.Nutrients,
		MealTime:  slot,
	})
	if err != nil {
		return nil, fmt.Errorf("materialize %s: %w", m.Name, err)
	}
	return entry, nil
}

// MaterializeByID looks the template up in the cache and materializes it.
func (c *Catalog) MaterializeByID(ctx context.Context, user, id string, slot models.MealSlot, ledger MealAdder) (*models.MealEntry, error) {
	c.mu.RLock()
	i := c.indexOf(user, id)
	var m models.SavedMeal
	if i >= 0 {
		m = c.meals[i]
	}
	c.mu.RUnlock()
	if i < 0 {
		return nil, fmt.Errorf("materialize %s: %w", id, ErrNotFound)
	}
	return c.MaterializeToLedger(ctx, user, m, slot, ledger)
}

// Get returns a copy of a cached template.
func (c *Catalog) Get(id string) (models.SavedMeal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, m := range c.meals {
		if m.ID == id {
			return m, true
		}
	}
	return models.SavedMeal{}, false
}

// Err returns the error of the last failed Load, or nil.
func (c *Catalog) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadErr
}

// Meals returns a copy of the cache.
func (c *Catalog) Meals() []models.SavedMeal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.meals)
}

func (c *Catalog) holds(user, id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indexOf(user, id) >= 0
}

// indexOf must be called with mu held.
func (c *Catalog) indexOf(user, id string) int {
	if c.user != user {
		return -1
	}
	for i, m := range c.meals {
		if m.ID == id && m.UserID == user {
			return i
		}
	}
	return -1
}
