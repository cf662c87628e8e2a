// Package prompt reads meal, saved meal and profile forms line by line from
// an interactive terminal.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/atinyakov/mealledger/internal/catalog"
	"github.com/atinyakov/mealledger/internal/ledger"
	"github.com/atinyakov/mealledger/internal/models"
)

// Prompter asks questions on out and reads the answers from in.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// New creates a Prompter.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

// Line prints label and returns the next trimmed input line. It returns
// io.EOF once the input is exhausted.
func (p *Prompter) Line(label string) (string, error) {
	if label != "" {
		fmt.Fprint(p.out, label)
	}
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// MealForm asks for every field of a new meal. The slot defaults to def
// when left blank.
func (p *Prompter) MealForm(def models.MealSlot) (ledger.MealForm, error) {
	var f ledger.MealForm
	fields := []struct {
		label string
		dst   *string
	}{
		{"Name: ", &f.Name},
		{"Calories: ", &f.Calories},
		{"Protein (g): ", &f.Protein},
		{"Carbs (g): ", &f.Carbs},
		{"Fat (g): ", &f.Fat},
		{"Fiber (g): ", &f.Fiber},
		{fmt.Sprintf("Meal (%s) [%s]: ", slotChoices(), def), &f.MealTime},
	}
	for _, fl := range fields {
		v, err := p.Line(fl.label)
		if err != nil {
			return f, err
		}
		*fl.dst = v
	}
	if f.MealTime == "" {
		f.MealTime = string(def)
	}
	return f, nil
}

// MealPatch asks for new values of e. A blank answer keeps the current
// value and leaves the field out of the patch. Unlike the add form, a
// non-numeric macro is an error rather than zero.
func (p *Prompter) MealPatch(e models.MealEntry) (models.MealEntryPatch, error) {
	var patch models.MealEntryPatch
	var err error
	if patch.Name, err = p.text("Name", e.Name); err != nil {
		return patch, err
	}
	if patch.Calories, err = p.calories(e.Calories); err != nil {
		return patch, err
	}
	grams := []struct {
		label string
		cur   float64
		dst   **float64
	}{
		{"Protein (g)", e.Protein, &patch.Protein},
		{"Carbs (g)", e.Carbs, &patch.Carbs},
		{"Fat (g)", e.Fat, &patch.Fat},
		{"Fiber (g)", e.Fiber, &patch.Fiber},
	}
	for _, g := range grams {
		if *g.dst, err = p.grams(g.label, g.cur); err != nil {
			return patch, err
		}
	}
	raw, err := p.Line(fmt.Sprintf("Meal (%s) [%s]: ", slotChoices(), e.MealTime))
	if err != nil {
		return patch, err
	}
	if raw != "" {
		slot, err := models.ParseMealSlot(raw)
		if err != nil {
			return patch, err
		}
		patch.MealTime = &slot
	}
	return patch, nil
}

// SavedMealForm asks for a new template. Tags are entered one per line
// until an empty line; "-tag" removes a tag entered earlier.
func (p *Prompter) SavedMealForm() (catalog.SavedMealForm, error) {
	f := catalog.SavedMealForm{Tags: catalog.NewTagList()}
	fields := []struct {
		label string
		dst   *string
	}{
		{"Name: ", &f.Name},
		{"Calories: ", &f.Calories},
		{"Protein (g): ", &f.Protein},
		{"Carbs (g): ", &f.Carbs},
		{"Fat (g): ", &f.Fat},
		{"Fiber (g): ", &f.Fiber},
		{"Notes: ", &f.Notes},
	}
	for _, fl := range fields {
		v, err := p.Line(fl.label)
		if err != nil {
			return f, err
		}
		*fl.dst = v
	}

	fmt.Fprintln(p.out, "Tags, one per line (-tag removes, empty line finishes):")
	for {
		tag, err := p.Line("  tag: ")
		if err != nil {
			return f, err
		}
		if tag == "" {
			break
		}
		if rest, ok := strings.CutPrefix(tag, "-"); ok {
			f.Tags.Remove(rest)
			continue
		}
		f.Tags.Add(tag)
	}
	return f, nil
}

// SavedMealPatch asks for new values of m. Tags are given comma separated;
// a single "-" clears them.
func (p *Prompter) SavedMealPatch(m models.SavedMeal) (models.SavedMealPatch, error) {
	var patch models.SavedMealPatch
	var err error
	if patch.Name, err = p.text("Name", m.Name); err != nil {
		return patch, err
	}
	if patch.Calories, err = p.calories(m.Calories); err != nil {
		return patch, err
	}
	grams := []struct {
		label string
		cur   float64
		dst   **float64
	}{
		{"Protein (g)", m.Protein, &patch.Protein},
		{"Carbs (g)", m.Carbs, &patch.Carbs},
		{"Fat (g)", m.Fat, &patch.Fat},
		{"Fiber (g)", m.Fiber, &patch.Fiber},
	}
	for _, g := range grams {
		if *g.dst, err = p.grams(g.label, g.cur); err != nil {
			return patch, err
		}
	}
	if patch.Notes, err = p.text("Notes", m.Notes); err != nil {
		return patch, err
	}

	raw, err := p.Line(fmt.Sprintf("Tags [%s]: ", strings.Join(m.Tags, ", ")))
	if err != nil {
		return patch, err
	}
	switch raw {
	case "":
	case "-":
		patch.Tags = &[]string{}
	default:
		tags := catalog.NewTagList(strings.Split(raw, ",")...).Values()
		patch.Tags = &tags
	}
	return patch, nil
}

// ProfilePatch asks for new profile values. Blank answers are left out.
func (p *Prompter) ProfilePatch(cur *models.Profile) (models.ProfilePatch, error) {
	if cur == nil {
		cur = &models.Profile{}
	}
	var patch models.ProfilePatch
	var err error
	if patch.Name, err = p.text("Name", cur.Name); err != nil {
		return patch, err
	}

	raw, err := p.Line(fmt.Sprintf("Age [%s]: ", show(cur.Age)))
	if err != nil {
		return patch, err
	}
	if raw != "" {
		age, err := strconv.Atoi(raw)
		if err != nil || age <= 0 {
			return patch, fmt.Errorf("%w: age must be a positive whole number", models.ErrValidation)
		}
		patch.Age = &age
	}

	measures := []struct {
		label string
		cur   *float64
		dst   **float64
	}{
		{"Weight (kg)", cur.Weight, &patch.Weight},
		{"Height (cm)", cur.Height, &patch.Height},
	}
	for _, m := range measures {
		raw, err := p.Line(fmt.Sprintf("%s [%s]: ", m.label, show(m.cur)))
		if err != nil {
			return patch, err
		}
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			return patch, fmt.Errorf("%w: %s must be a positive number", models.ErrValidation, strings.ToLower(m.label))
		}
		*m.dst = &v
	}
	return patch, nil
}

func (p *Prompter) text(label, cur string) (*string, error) {
	raw, err := p.Line(fmt.Sprintf("%s [%s]: ", label, cur))
	if err != nil || raw == "" {
		return nil, err
	}
	return &raw, nil
}

func (p *Prompter) calories(cur int) (*int, error) {
	raw, err := p.Line(fmt.Sprintf("Calories [%d]: ", cur))
	if err != nil || raw == "" {
		return nil, err
	}
	v, err := models.ParseCalories(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (p *Prompter) grams(label string, cur float64) (*float64, error) {
	raw, err := p.Line(fmt.Sprintf("%s [%g]: ", label, cur))
	if err != nil || raw == "" {
		return nil, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%w: %s must be a number", models.ErrValidation, strings.ToLower(label))
	}
	return &v, nil
}

func slotChoices() string {
	names := make([]string, len(models.MealSlots))
	for i, s := range models.MealSlots {
		names[i] = string(s)
	}
	return strings.Join(names, "/")
}

func show[T int | float64](v *T) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}
