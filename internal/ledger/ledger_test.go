package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/atinyakov/mealledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeStore is an in-memory daily_meals table with failure injection.
type fakeStore struct {
	mu        sync.Mutex
	rows      map[string]models.MealEntry
	seq       int
	now       func() time.Time
	calls     int
	failOn    string
	err       error
	zeroRows  bool // update/delete report nothing changed
	lastPatch models.MealEntryPatch
}

func newFakeStore(now func() time.Time) *fakeStore {
	return &fakeStore{rows: map[string]models.MealEntry{}, now: now}
}

func (f *fakeStore) fail(op string) error {
	if f.failOn == op {
		return f.err
	}
	return nil
}

func (f *fakeStore) ListMeals(_ context.Context, userID, date string) ([]models.MealEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.fail("list"); err != nil {
		return nil, err
	}
	var out []models.MealEntry
	for _, r := range f.rows {
		if r.UserID == userID && r.LoggedDate == date {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertMeal(_ context.Context, userID string, m models.NewMealEntry) (*models.MealEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.fail("insert"); err != nil {
		return nil, err
	}
	f.seq++
	now := f.now().Add(time.Duration(f.seq) * time.Second)
	e := models.MealEntry{
		ID: fmt.Sprintf("m%d", f.seq), UserID: userID, Name: m.Name, Nutrients: m.Nutrients,
		MealTime: m.MealTime, LoggedDate: m.LoggedDate, LoggedAt: now, CreatedAt: now, UpdatedAt: now,
	}
	f.rows[e.ID] = e
	return &e, nil
}

func (f *fakeStore) UpdateMeal(_ context.Context, userID, id string, p models.MealEntryPatch) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastPatch = p
	if err := f.fail("update"); err != nil {
		return 0, err
	}
	r, ok := f.rows[id]
	if !ok || r.UserID != userID || f.zeroRows {
		return 0, nil
	}
	p.Apply(&r)
	f.rows[id] = r
	return 1, nil
}

func (f *fakeStore) DeleteMeal(_ context.Context, userID, id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.fail("delete"); err != nil {
		return 0, err
	}
	r, ok := f.rows[id]
	if !ok || r.UserID != userID || f.zeroRows {
		return 0, nil
	}
	delete(f.rows, id)
	return 1, nil
}

var fixedNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.Local)

func newLedger(t *testing.T) (*Ledger, *fakeStore) {
	t.Helper()
	store := newFakeStore(func() time.Time { return fixedNow })
	return New(store, ClockFunc(func() time.Time { return fixedNow }), nil), store
}

func oatmeal() models.NewMealEntry {
	return models.NewMealEntry{
		Name:      "Oatmeal",
		MealTime:  models.Breakfast,
		Nutrients: models.Nutrients{Calories: 350, Protein: 12, Carbs: 60, Fat: 6},
	}
}

func TestLedger_AddThenDeleteTotals(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	require.NoError(t, l.Load(ctx, "u1"))
	assert.Equal(t, models.DailyTotals{}, l.Totals())

	e, err := l.Add(ctx, "u1", oatmeal())
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "2026-10-18", e.LoggedDate)
	assert.Equal(t, models.DailyTotals{Calories: 350, Protein: 12, Carbs: 60, Fat: 6, Fiber: 0}, l.Totals())

	require.NoError(t, l.Delete(ctx, "u1", e.ID))
	assert.Equal(t, models.DailyTotals{}, l.Totals())
	assert.Empty(t, l.Entries())
}

func TestLedger_LoadOrdersNewestFirstAndIsIdempotent(t *testing.T) {
	l, store := newLedger(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := l.Add(ctx, "u1", oatmeal())
		require.NoError(t, err)
	}
	// a row for another day and another user must never show up
	store.rows["old"] = models.MealEntry{ID: "old", UserID: "u1", LoggedDate: "2026-10-17"}
	store.rows["other"] = models.MealEntry{ID: "other", UserID: "u2", LoggedDate: "2026-10-18"}

	require.NoError(t, l.Load(ctx, "u1"))
	first := l.Entries()
	require.Len(t, first, 3)
	assert.Equal(t, []string{"m3", "m2", "m1"}, ids(first))

	require.NoError(t, l.Load(ctx, "u1"))
	assert.Equal(t, first, l.Entries())
}

func TestLedger_LoadFailureLeavesEmptyCache(t *testing.T) {
	l, store := newLedger(t)
	ctx := context.Background()
	require.NoError(t, l.Load(ctx, "u1"))
	_, err := l.Add(ctx, "u1", oatmeal())
	require.NoError(t, err)

	store.failOn, store.err = "list", errors.New("network down")
	err = l.Load(ctx, "u1")
	require.Error(t, err)
	assert.ErrorIs(t, l.Err(), store.err)
	assert.Empty(t, l.Entries())
	assert.Equal(t, models.DailyTotals{}, l.Totals())
}

func TestLedger_AddFormValidation(t *testing.T) {
	l, store := newLedger(t)
	ctx := context.Background()
	require.NoError(t, l.Load(ctx, "u1"))
	calls := store.calls

	_, err := l.AddForm(ctx, "u1", MealForm{Calories: "100", MealTime: "lunch"})
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = l.AddForm(ctx, "u1", MealForm{Name: "Soup", MealTime: "lunch"})
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, calls, store.calls, "no store call on validation failure")

	e, err := l.AddForm(ctx, "u1", MealForm{Name: "Soup", Calories: "120", Protein: "abc", Carbs: "", Fat: "0", Fiber: "3", MealTime: "Lunch"})
	require.NoError(t, err)
	assert.Equal(t, models.Nutrients{Calories: 120, Fiber: 3}, e.Nutrients)
	assert.Equal(t, models.Lunch, e.MealTime)
}

func TestLedger_AddFailureLeavesCache(t *testing.T) {
	l, store := newLedger(t)
	ctx := context.Background()
	require.NoError(t, l.Load(ctx, "u1"))
	store.failOn, store.err = "insert", errors.New("insert failed")

	_, err := l.Add(ctx, "u1", oatmeal())
	assert.ErrorIs(t, err, store.err)
	assert.Empty(t, l.Entries())
}

func TestLedger_UpdateChangesOnlyPatchedField(t *testing.T) {
	l, store := newLedger(t)
	ctx := context.Background()
	require.NoError(t, l.Load(ctx, "u1"))
	e, err := l.Add(ctx, "u1", oatmeal())
	require.NoError(t, err)
	before, _ := l.Get(e.ID)

	cal := 500
	require.NoError(t, l.Update(ctx, "u1", e.ID, models.MealEntryPatch{Calories: &cal}))

	after, ok := l.Get(e.ID)
	require.True(t, ok)
	assert.Equal(t, 500, after.Calories)
	assert.Equal(t, before.ID, after.ID)
	assert.True(t, before.LoggedAt.Equal(after.LoggedAt))

	after.Calories = before.Calories
	after.UpdatedAt = before.UpdatedAt
	assert.Equal(t, before, after)

	require.NotNil(t, store.lastPatch.UpdatedAt, "updated_at marker must be sent")
	assert.Nil(t, store.lastPatch.Name)
}

func TestLedger_UpdateFailureKeepsCache(t *testing.T) {
	l, store := newLedger(t)
	ctx := context.Background()
	require.NoError(t, l.Load(ctx, "u1"))
	e, err := l.Add(ctx, "u1", oatmeal())
	require.NoError(t, err)

	cal := 999
	store.failOn, store.err = "update", errors.New("timeout")
	assert.ErrorIs(t, l.Update(ctx, "u1", e.ID, models.MealEntryPatch{Calories: &cal}), store.err)
	got, _ := l.Get(e.ID)
	assert.Equal(t, 350, got.Calories)

	store.failOn = ""
	store.zeroRows = true
	assert.ErrorIs(t, l.Update(ctx, "u1", e.ID, models.MealEntryPatch{Calories: &cal}), ErrNotFound)
	got, _ = l.Get(e.ID)
	assert.Equal(t, 350, got.Calories)
}

func TestLedger_UpdateUnknownOrForeign(t *testing.T) {
	l, store := newLedger(t)
	ctx := context.Background()
	require.NoError(t, l.Load(ctx, "u1"))
	e, err := l.Add(ctx, "u1", oatmeal())
	require.NoError(t, err)
	calls := store.calls

	cal := 1
	assert.ErrorIs(t, l.Update(ctx, "u1", "nope", models.MealEntryPatch{Calories: &cal}), ErrNotFound)
	assert.ErrorIs(t, l.Update(ctx, "u2", e.ID, models.MealEntryPatch{Calories: &cal}), ErrNotFound)
	assert.Equal(t, calls, store.calls)
}

func TestLedger_DeleteNoOpCases(t *testing.T) {
	l, store := newLedger(t)
	ctx := context.Background()
	require.NoError(t, l.Load(ctx, "u1"))
	e, err := l.Add(ctx, "u1", oatmeal())
	require.NoError(t, err)

	assert.ErrorIs(t, l.Delete(ctx, "u1", "missing"), ErrNotFound)
	assert.ErrorIs(t, l.Delete(ctx, "intruder", e.ID), ErrNotFound)
	assert.Len(t, l.Entries(), 1)

	store.failOn, store.err = "delete", errors.New("boom")
	assert.ErrorIs(t, l.Delete(ctx, "u1", e.ID), store.err)
	assert.Len(t, l.Entries(), 1, "row stays visible after failed delete")

	store.failOn = ""
	store.zeroRows = true
	assert.ErrorIs(t, l.Delete(ctx, "u1", e.ID), ErrNotFound)
	assert.Len(t, l.Entries(), 1)
}

func TestLedger_TodayFixedAtLoad(t *testing.T) {
	now := fixedNow
	store := newFakeStore(func() time.Time { return now })
	l := New(store, ClockFunc(func() time.Time { return now }), nil)
	ctx := context.Background()
	require.NoError(t, l.Load(ctx, "u1"))

	now = now.Add(24 * time.Hour)
	e, err := l.Add(ctx, "u1", oatmeal())
	require.NoError(t, err)
	assert.Equal(t, "2026-10-18", e.LoggedDate)
	assert.Len(t, l.Entries(), 1)
}

func TestLedger_BySlotAndProgress(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	require.NoError(t, l.Load(ctx, "u1"))
	_, err := l.Add(ctx, "u1", oatmeal())
	require.NoError(t, err)
	snack := models.NewMealEntry{Name: "Apple", MealTime: models.Snack, Nutrients: models.Nutrients{Calories: 95}}
	_, err = l.Add(ctx, "u1", snack)
	require.NoError(t, err)

	groups := l.BySlot()
	assert.Len(t, groups[models.Breakfast], 1)
	assert.Len(t, groups[models.Snack], 1)
	assert.Empty(t, groups[models.Dinner])

	p := l.Progress(2000)
	assert.Equal(t, 445, p.Consumed)
	assert.Equal(t, 1555, p.Remaining)
}

func TestLedger_ConcurrentAdds(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	require.NoError(t, l.Load(ctx, "u1"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.Add(ctx, "u1", oatmeal())
			_ = l.Totals()
		}()
	}
	wg.Wait()

	assert.Len(t, l.Entries(), 20)
	assert.Equal(t, 20*350, l.Totals().Calories)
}

func ids(entries []models.MealEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}
