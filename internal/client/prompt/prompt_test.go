package prompt

import (
	"io"
	"strings"
	"testing"

	"github.com/atinyakov/mealledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMealForm(t *testing.T) {
	var out strings.Builder
	p := New(strings.NewReader("Oatmeal\n350\n12\n60\nabc\n8\n\n"), &out)

	f, err := p.MealForm(models.Snack)
	require.NoError(t, err)
	assert.Equal(t, "snack", f.MealTime, "blank slot takes the default")

	m, err := f.Parse()
	require.NoError(t, err)
	assert.Equal(t, models.Nutrients{Calories: 350, Protein: 12, Carbs: 60, Fat: 0, Fiber: 8}, m.Nutrients)
	assert.Contains(t, out.String(), "breakfast/lunch/dinner/snack")
}

func TestMealForm_EOF(t *testing.T) {
	p := New(strings.NewReader("Oatmeal\n"), io.Discard)
	_, err := p.MealForm(models.Lunch)
	assert.ErrorIs(t, err, io.EOF)
}

func TestMealPatch_BlankKeeps(t *testing.T) {
	cur := models.MealEntry{Name: "Salad", Nutrients: models.Nutrients{Calories: 300, Protein: 10}, MealTime: models.Lunch}
	p := New(strings.NewReader("\n420\n\n\n\n\nDinner\n"), io.Discard)

	patch, err := p.MealPatch(cur)
	require.NoError(t, err)
	assert.Nil(t, patch.Name)
	require.NotNil(t, patch.Calories)
	assert.Equal(t, 420, *patch.Calories)
	assert.Nil(t, patch.Protein)
	require.NotNil(t, patch.MealTime)
	assert.Equal(t, models.Dinner, *patch.MealTime)
}

func TestMealPatch_Errors(t *testing.T) {
	cur := models.MealEntry{Name: "Salad", MealTime: models.Lunch}
	_, err := New(strings.NewReader("\nlots\n"), io.Discard).MealPatch(cur)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = New(strings.NewReader("\n\n\n\n\n\nbrunch\n"), io.Discard).MealPatch(cur)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestMealPatch_NonNumericMacroRejected(t *testing.T) {
	cur := models.MealEntry{Name: "Salad", Nutrients: models.Nutrients{Calories: 300, Protein: 10}, MealTime: models.Lunch}

	_, err := New(strings.NewReader("\n\nabc\n"), io.Discard).MealPatch(cur)
	assert.ErrorIs(t, err, models.ErrValidation)

	patch, err := New(strings.NewReader("\n\n0\n\n\n\n\n"), io.Discard).MealPatch(cur)
	require.NoError(t, err)
	require.NotNil(t, patch.Protein)
	assert.Zero(t, *patch.Protein, "a literal zero is kept")

	saved := models.SavedMeal{Name: "Bowl", Nutrients: models.Nutrients{Calories: 500, Fat: 12}}
	_, err = New(strings.NewReader("\n\n\n\noops\n"), io.Discard).SavedMealPatch(saved)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestSavedMealForm_Tags(t *testing.T) {
	in := "Chicken Bowl\n550\n45\n50\n15\n6\ndouble rice\nProtein\nLunch\nProtein\n-Lunch\n  Quick \n\n"
	p := New(strings.NewReader(in), io.Discard)

	f, err := p.SavedMealForm()
	require.NoError(t, err)
	assert.Equal(t, []string{"Protein", "Quick"}, f.Tags.Values())

	m, err := f.Parse()
	require.NoError(t, err)
	assert.Equal(t, "double rice", m.Notes)
	assert.Equal(t, 550, m.Calories)
}

func TestProfilePatch(t *testing.T) {
	age := 30
	cur := &models.Profile{Name: "Ann", Age: &age}
	p := New(strings.NewReader("\n31\n70.5\n\n"), io.Discard)

	patch, err := p.ProfilePatch(cur)
	require.NoError(t, err)
	assert.Nil(t, patch.Name)
	assert.Equal(t, 31, *patch.Age)
	assert.Equal(t, 70.5, *patch.Weight)
	assert.Nil(t, patch.Height)

	_, err = New(strings.NewReader("\n-3\n"), io.Discard).ProfilePatch(nil)
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = New(strings.NewReader("\n\nheavy\n"), io.Discard).ProfilePatch(nil)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestSavedMealPatch(t *testing.T) {
	cur := models.SavedMeal{Name: "Bowl", Nutrients: models.Nutrients{Calories: 500}, Tags: []string{"Lunch"}}

	patch, err := New(strings.NewReader("\n\n\n\n\n\nextra sauce\nQuick, Protein ,Quick\n"), io.Discard).SavedMealPatch(cur)
	require.NoError(t, err)
	assert.Nil(t, patch.Name)
	assert.Nil(t, patch.Calories)
	assert.Equal(t, "extra sauce", *patch.Notes)
	assert.Equal(t, []string{"Quick", "Protein"}, *patch.Tags)

	patch, err = New(strings.NewReader("\n\n\n\n\n\n\n-\n"), io.Discard).SavedMealPatch(cur)
	require.NoError(t, err)
	require.NotNil(t, patch.Tags)
	assert.Empty(t, *patch.Tags)
	assert.True(t, patch.Notes == nil)
}
