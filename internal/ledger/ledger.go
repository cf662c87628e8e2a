// Package ledger keeps the signed-in user's meals for one day in memory,
// consistent with the remote store, and derives the day's nutrient totals.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/atinyakov/mealledger/internal/goal"
	"github.com/atinyakov/mealledger/internal/models"
	"go.uber.org/zap"
)

// ErrNotFound is returned when an entry is not held for the user, or the
// store reports that nothing was changed.
var ErrNotFound = errors.New("meal entry not found")

// MealStore is the remote table store for daily meals. Every call is scoped
// to userID.
type MealStore interface {
	// ListMeals returns the user's meals logged on date, newest first.
	ListMeals(ctx context.Context, userID, date string) ([]models.MealEntry, error)
	// InsertMeal stores a new meal and returns it with the store-assigned
	// identifier and timestamps.
	InsertMeal(ctx context.Context, userID string, m models.NewMealEntry) (*models.MealEntry, error)
	// UpdateMeal applies the patch and returns the number of affected rows.
	UpdateMeal(ctx context.Context, userID, id string, p models.MealEntryPatch) (int64, error)
	// DeleteMeal removes the meal and returns the number of affected rows.
	DeleteMeal(ctx context.Context, userID, id string) (int64, error)
}

// Clock supplies the current time. The ledger never reads the wall clock
// directly.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock is the local wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// MealForm is the raw add-meal submission.
type MealForm struct {
	Name     string
	Calories string
	Protein  string
	Carbs    string
	Fat      string
	Fiber    string
	MealTime string
}

// Parse validates the required fields and coerces the optional macros.
func (f MealForm) Parse() (models.NewMealEntry, error) {
	var m models.NewMealEntry
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return m, fmt.Errorf("%w: name is required", models.ErrValidation)
	}
	cal, err := models.ParseCalories(f.Calories)
	if err != nil {
		return m, err
	}
	slot, err := models.ParseMealSlot(f.MealTime)
	if err != nil {
		return m, err
	}
	m.Name = name
	m.MealTime = slot
	m.Nutrients = models.Nutrients{
		Calories: cal,
		Protein:  models.ParseGrams(f.Protein),
		Carbs:    models.ParseGrams(f.Carbs),
		Fat:      models.ParseGrams(f.Fat),
		Fiber:    models.ParseGrams(f.Fiber),
	}
	return m, m.Validate()
}

// Ledger is the session cache of one user's meals for one day.
// The mutex guards the cache only; it is never held across a store call,
// and the cache is only changed after the store confirmed the change.
type Ledger struct {
	store MealStore
	clock Clock
	log   *zap.Logger

	mu      sync.RWMutex
	user    string
	date    string
	entries []models.MealEntry
	loadErr error
}

// New creates an empty ledger. A nil clock means SystemClock and a nil
// logger discards output.
func New(store MealStore, clock Clock, log *zap.Logger) *Ledger {
	if clock == nil {
		clock = SystemClock
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{store: store, clock: clock, log: log}
}

// Load replaces the cache with the user's meals for today. "Today" is read
// from the clock once per call. On failure the cache is left empty and the
// error is kept for Err.
func (l *Ledger) Load(ctx context.Context, user string) error {
	date := models.DateOf(l.clock.Now())

	entries, err := l.store.ListMeals(ctx, user, date)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.user = user
	l.date = date
	if err != nil {
		l.entries = nil
		l.loadErr = fmt.Errorf("load meals: %w", err)
		l.log.Error("failed to load today's meals", zap.String("user", user), zap.String("date", date), zap.Error(err))
		return l.loadErr
	}
	l.entries = sortNewestFirst(entries)
	l.loadErr = nil
	return nil
}

// Add validates m and inserts it for user, dated with the loaded day (or
// today when nothing is loaded). The store-assigned row is placed in the
// cache when it belongs to the cached user and day.
func (l *Ledger) Add(ctx context.Context, user string, m models.NewMealEntry) (*models.MealEntry, error) {
	m.LoggedDate = l.dateFor(user)
	if err := m.Validate(); err != nil {
		return nil, err
	}

	created, err := l.store.InsertMeal(ctx, user, m)
	if err != nil {
		l.log.Error("failed to add meal", zap.String("user", user), zap.String("name", m.Name), zap.Error(err))
		return nil, fmt.Errorf("add meal: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.user == user && created.LoggedDate == l.date {
		l.entries = sortNewestFirst(append(l.entries, *created))
	}
	out := *created
	return &out, nil
}

// AddForm parses a raw submission and adds it.
func (l *Ledger) AddForm(ctx context.Context, user string, f MealForm) (*models.MealEntry, error) {
	m, err := f.Parse()
	if err != nil {
		return nil, err
	}
	return l.Add(ctx, user, m)
}

// Update sends the present patch fields plus a fresh updated_at to the
// store and merges them into the cached entry. Concurrent updates of the
// same entry are last-write-wins at the store.
func (l *Ledger) Update(ctx context.Context, user, id string, p models.MealEntryPatch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if !l.holds(user, id) {
		return fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	if p.Empty() {
		return nil
	}
	now := l.clock.Now().UTC()
	p.UpdatedAt = &now

	affected, err := l.store.UpdateMeal(ctx, user, id, p)
	if err != nil {
		l.log.Error("failed to update meal", zap.String("user", user), zap.String("id", id), zap.Error(err))
		return fmt.Errorf("update meal: %w", err)
	}
	if affected == 0 {
		l.log.Warn("meal update changed nothing", zap.String("user", user), zap.String("id", id))
		return fmt.Errorf("update %s: %w", id, ErrNotFound)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexOf(user, id); i >= 0 {
		p.Apply(&l.entries[i])
	}
	return nil
}

// Delete removes the entry from the store and then from the cache. The
// cache is untouched when the store call fails or removes nothing.
func (l *Ledger) Delete(ctx context.Context, user, id string) error {
	if !l.holds(user, id) {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}

	affected, err := l.store.DeleteMeal(ctx, user, id)
	if err != nil {
		l.log.Error("failed to delete meal", zap.String("user", user), zap.String("id", id), zap.Error(err))
		return fmt.Errorf("delete meal: %w", err)
	}
	if affected == 0 {
		l.log.Warn("meal delete removed nothing", zap.String("user", user), zap.String("id", id))
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexOf(user, id); i >= 0 {
		l.entries = slices.Delete(l.entries, i, i+1)
	}
	return nil
}

// Totals folds the cache into the day's nutrient totals. It is recomputed
// on every call.
func (l *Ledger) Totals() models.DailyTotals {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return models.SumNutrients(l.entries)
}

// Progress reports today's calories against goalCalories.
func (l *Ledger) Progress(goalCalories int) goal.Progress {
	return goal.CalorieProgress(l.Totals().Calories, goalCalories)
}

// Entries returns a copy of the cache, newest first.
func (l *Ledger) Entries() []models.MealEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.entries)
}

// BySlot groups the cached entries by meal slot, keeping newest first
// within each slot.
func (l *Ledger) BySlot() map[models.MealSlot][]models.MealEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[models.MealSlot][]models.MealEntry, len(models.MealSlots))
	for _, e := range l.entries {
		out[e.MealTime] = append(out[e.MealTime], e)
	}
	return out
}

// Get returns a copy of a cached entry.
func (l *Ledger) Get(id string) (models.MealEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.entries {
		if e.ID == id {
			return e, true
		}
	}
	return models.MealEntry{}, false
}

// Date is the day the cache was loaded for.
func (l *Ledger) Date() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.date
}

// Err returns the error of the last failed Load, or nil.
func (l *Ledger) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loadErr
}

func (l *Ledger) dateFor(user string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.user == user && l.date != "" {
		return l.date
	}
	return models.DateOf(l.clock.Now())
}

func (l *Ledger) holds(user, id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.indexOf(user, id) >= 0
}

// indexOf must be called with mu held.
func (l *Ledger) indexOf(user, id string) int {
	if l.user != user {
		return -1
	}
	for i, e := range l.entries {
		if e.ID == id && e.UserID == user {
			return i
		}
	}
	return -1
}

func sortNewestFirst(entries []models.MealEntry) []models.MealEntry {
	slices.SortStableFunc(entries, func(a, b models.MealEntry) int {
		return b.LoggedAt.Compare(a.LoggedAt)
	})
	return entries
}
