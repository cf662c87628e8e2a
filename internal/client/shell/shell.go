// Package shell is the interactive command loop of the meal ledger client.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/atinyakov/mealledger/internal/catalog"
	"github.com/atinyakov/mealledger/internal/client/prompt"
	"github.com/atinyakov/mealledger/internal/client/remote"
	"github.com/atinyakov/mealledger/internal/goal"
	"github.com/atinyakov/mealledger/internal/ledger"
	"github.com/atinyakov/mealledger/internal/models"
	"go.uber.org/zap"
)

const helpText = `Available commands:
  today                 show today's meals and totals
  add [slot]            log a meal
  edit <id>             edit a logged meal
  delete <id>           delete a logged meal
  saved                 list saved meals
  search <term>         search saved meals by name or tag
  save                  save a new meal template
  edit-saved <id>       edit a saved meal
  unsave <id>           delete a saved meal
  use <id> [slot]       log a saved meal for today
  profile               show and edit your profile
  goal                  calculate your daily calorie goal
  history [days]        daily totals for the last days (default 7)
  exit`

const defaultHistoryDays = 7

// Remote is everything the shell needs from the server.
type Remote interface {
	ledger.MealStore
	catalog.SavedMealStore
	Summary(ctx context.Context, userID, from, to string) ([]models.DaySummary, error)
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	SaveProfile(ctx context.Context, userID string, p models.ProfilePatch) (*models.Profile, error)
}

// Shell runs commands for one signed-in user.
type Shell struct {
	remote  Remote
	user    string
	clock   ledger.Clock
	ledger  *ledger.Ledger
	catalog *catalog.Catalog
	prompt  *prompt.Prompter
	out     io.Writer
	log     *zap.Logger

	goalCalories int
	macros       goal.MacroTargets
}

// New creates a Shell reading commands from in and writing to out.
func New(r Remote, user string, in io.Reader, out io.Writer, clock ledger.Clock, log *zap.Logger) *Shell {
	if clock == nil {
		clock = ledger.SystemClock
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Shell{
		remote:  r,
		user:    user,
		clock:   clock,
		ledger:  ledger.New(r, clock, log),
		catalog: catalog.New(r, clock, log),
		prompt:  prompt.New(in, out),
		out:     out,
		log:     log,

		goalCalories: goal.DefaultDailyCalories,
		macros:       goal.DefaultMacroTargets,
	}
}

// SetGoal replaces the calorie goal shown by today. Non-positive values
// are ignored.
func (s *Shell) SetGoal(calories int) {
	if calories > 0 {
		s.goalCalories = calories
	}
}

// Run loads today's meals and the saved meals, then reads commands until
// exit, end of input or ctx is cancelled. Load failures are reported but
// do not stop the shell.
func (s *Shell) Run(ctx context.Context) error {
	if err := s.ledger.Load(ctx, s.user); err != nil {
		fmt.Fprintf(s.out, "Could not load today's meals: %v\n", err)
	}
	if err := s.catalog.Load(ctx, s.user); err != nil {
		fmt.Fprintf(s.out, "Could not load saved meals: %v\n", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := s.prompt.Line("mealledger> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			fmt.Fprintln(s.out, "Bye")
			return nil
		}
		if err := s.exec(ctx, args); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.report(err)
		}
	}
}

func (s *Shell) exec(ctx context.Context, args []string) error {
	switch args[0] {
	case "help":
		fmt.Fprintln(s.out, helpText)
	case "today":
		s.today()
	case "add":
		return s.add(ctx, args[1:])
	case "edit":
		return s.withID(args, func(id string) error { return s.edit(ctx, id) })
	case "delete":
		return s.withID(args, func(id string) error {
			if err := s.ledger.Delete(ctx, s.user, id); err != nil {
				return err
			}
			fmt.Fprintln(s.out, "Meal deleted")
			return nil
		})
	case "saved":
		s.listSaved(s.catalog.Meals())
	case "search":
		s.listSaved(s.catalog.Search(strings.Join(args[1:], " ")))
	case "save":
		return s.save(ctx)
	case "edit-saved":
		return s.withID(args, func(id string) error { return s.editSaved(ctx, id) })
	case "unsave":
		return s.withID(args, func(id string) error {
			if err := s.catalog.Delete(ctx, s.user, id); err != nil {
				return err
			}
			fmt.Fprintln(s.out, "Saved meal deleted")
			return nil
		})
	case "use":
		return s.use(ctx, args[1:])
	case "profile":
		return s.profile(ctx)
	case "goal":
		return s.goal(ctx)
	case "history":
		return s.history(ctx, args[1:])
	default:
		fmt.Fprintln(s.out, "Unknown command. Type 'help' for a list of commands.")
	}
	return nil
}

func (s *Shell) withID(args []string, fn func(id string) error) error {
	if len(args) < 2 {
		fmt.Fprintf(s.out, "Usage: %s <id>\n", args[0])
		return nil
	}
	return fn(args[1])
}

func (s *Shell) report(err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		fmt.Fprintln(s.out, "Meal not found")
	case errors.Is(err, catalog.ErrNotFound):
		fmt.Fprintln(s.out, "Saved meal not found")
	case errors.Is(err, models.ErrValidation), errors.Is(err, goal.ErrInvalidInput), errors.Is(err, goal.ErrUnsupportedSex):
		fmt.Fprintf(s.out, "Invalid input: %v\n", err)
	case errors.Is(err, remote.ErrUnauthorized):
		fmt.Fprintln(s.out, "Session expired, please log in again")
	default:
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
}

func (s *Shell) today() {
	if err := s.ledger.Err(); err != nil {
		fmt.Fprintf(s.out, "Today's meals are unavailable: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Meals for %s\n", s.ledger.Date())
	bySlot := s.ledger.BySlot()
	for _, slot := range models.MealSlots {
		entries := bySlot[slot]
		fmt.Fprintf(s.out, "%s (%d)\n", slot, len(entries))
		for _, e := range entries {
			fmt.Fprintf(s.out, "  %s  %-24s %5d kcal  P %.1f  C %.1f  F %.1f\n",
				e.ID, e.Name, e.Calories, e.Protein, e.Carbs, e.Fat)
		}
	}
	totals := s.ledger.Totals()
	s.printTotals(totals)

	p := s.ledger.Progress(s.goalCalories)
	fmt.Fprintf(s.out, "Goal: %d/%d kcal (%d%%)", p.Consumed, p.Goal, p.Percent)
	if p.Over > 0 {
		fmt.Fprintf(s.out, ", %d over\n", p.Over)
	} else {
		fmt.Fprintf(s.out, ", %d left\n", p.Remaining)
	}
	for _, m := range []struct {
		name            string
		current, target float64
	}{
		{"Protein", totals.Protein, s.macros.Protein},
		{"Carbs", totals.Carbs, s.macros.Carbs},
		{"Fat", totals.Fat, s.macros.Fat},
		{"Fiber", totals.Fiber, s.macros.Fiber},
	} {
		pct := goal.MacroPercent(m.current, m.target)
		fmt.Fprintf(s.out, "  %-7s %6.1f / %3.0f g  [%s] %3.0f%%\n", m.name, m.current, m.target, bar(pct), pct)
	}
}

// bar draws pct (0-100) as ten cells.
func bar(pct float64) string {
	filled := int(math.Round(pct / 10))
	return strings.Repeat("#", filled) + strings.Repeat(".", 10-filled)
}

func (s *Shell) printTotals(t models.DailyTotals) {
	fmt.Fprintf(s.out, "Total: %d kcal  P %.1f  C %.1f  F %.1f  Fiber %.1f\n",
		t.Calories, t.Protein, t.Carbs, t.Fat, t.Fiber)
}

func (s *Shell) add(ctx context.Context, args []string) error {
	slot := models.Snack
	if len(args) > 0 {
		var err error
		if slot, err = models.ParseMealSlot(args[0]); err != nil {
			return err
		}
	}
	form, err := s.prompt.MealForm(slot)
	if err != nil {
		return err
	}
	e, err := s.ledger.AddForm(ctx, s.user, form)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Logged %s (%d kcal) as %s\n", e.Name, e.Calories, e.ID)
	return nil
}

func (s *Shell) edit(ctx context.Context, id string) error {
	cur, ok := s.ledger.Get(id)
	if !ok {
		return fmt.Errorf("edit %s: %w", id, ledger.ErrNotFound)
	}
	patch, err := s.prompt.MealPatch(cur)
	if err != nil {
		return err
	}
	if patch.Empty() {
		fmt.Fprintln(s.out, "Nothing changed")
		return nil
	}
	if err := s.ledger.Update(ctx, s.user, id, patch); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Meal updated")
	return nil
}

func (s *Shell) listSaved(meals []models.SavedMeal) {
	if len(meals) == 0 {
		fmt.Fprintln(s.out, "No saved meals")
		return
	}
	for _, m := range meals {
		fmt.Fprintf(s.out, "%s  %-24s %5d kcal", m.ID, m.Name, m.Calories)
		if len(m.Tags) > 0 {
			fmt.Fprintf(s.out, "  [%s]", strings.Join(m.Tags, ", "))
		}
		fmt.Fprintln(s.out)
	}
}

func (s *Shell) save(ctx context.Context) error {
	form, err := s.prompt.SavedMealForm()
	if err != nil {
		return err
	}
	m, err := s.catalog.CreateForm(ctx, s.user, form)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Saved %s as %s\n", m.Name, m.ID)
	return nil
}

func (s *Shell) editSaved(ctx context.Context, id string) error {
	cur, ok := s.catalog.Get(id)
	if !ok {
		return fmt.Errorf("edit %s: %w", id, catalog.ErrNotFound)
	}
	patch, err := s.prompt.SavedMealPatch(cur)
	if err != nil {
		return err
	}
	if patch.Empty() {
		fmt.Fprintln(s.out, "Nothing changed")
		return nil
	}
	if err := s.catalog.Update(ctx, s.user, id, patch); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Saved meal updated")
	return nil
}

func (s *Shell) use(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(s.out, "Usage: use <id> [slot]")
		return nil
	}
	var slot models.MealSlot
	if len(args) > 1 {
		var err error
		if slot, err = models.ParseMealSlot(args[1]); err != nil {
			return err
		}
	}
	e, err := s.catalog.MaterializeByID(ctx, s.user, args[0], slot, s.ledger)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Logged %s (%d kcal) as %s\n", e.Name, e.Calories, e.MealTime)
	return nil
}

func (s *Shell) loadProfile(ctx context.Context) (*models.Profile, error) {
	p, err := s.remote.GetProfile(ctx, s.user)
	if errors.Is(err, remote.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

func (s *Shell) profile(ctx context.Context) error {
	cur, err := s.loadProfile(ctx)
	if err != nil {
		return err
	}
	patch, err := s.prompt.ProfilePatch(cur)
	if err != nil {
		return err
	}
	if err := patch.Validate(); err != nil {
		return err
	}
	if _, err := s.remote.SaveProfile(ctx, s.user, patch); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	fmt.Fprintln(s.out, "Profile saved")
	return nil
}

func (s *Shell) goal(ctx context.Context) error {
	sex, err := s.prompt.Line("Sex (male/female): ")
	if err != nil {
		return err
	}
	activity, err := s.prompt.Line("Activity (sedentary/active/very_active): ")
	if err != nil {
		return err
	}
	wg, err := s.prompt.Line("Goal (lose/maintain/gain) [maintain]: ")
	if err != nil {
		return err
	}

	prof, err := s.loadProfile(ctx)
	if err != nil {
		s.log.Warn("profile unavailable for goal", zap.Error(err))
	}

	var in goal.Input
	if prof != nil && prof.Weight != nil && prof.Height != nil && prof.Age != nil {
		in, err = goal.FromProfile(*prof,
			goal.Sex(strings.ToLower(sex)),
			goal.ActivityLevel(strings.ToLower(activity)),
			goal.WeightGoal(strings.ToLower(wg)))
	} else {
		in, err = s.askMeasurements(sex, activity, wg)
	}
	if err != nil {
		return err
	}

	calories, err := goal.Calculate(in)
	if err != nil {
		return err
	}
	s.goalCalories = calories
	fmt.Fprintf(s.out, "Daily goal: %d kcal\n", calories)
	return nil
}

func (s *Shell) askMeasurements(sex, activity, wg string) (goal.Input, error) {
	var vals [3]string
	for i, label := range []string{"Weight (kg): ", "Height (cm): ", "Age: "} {
		v, err := s.prompt.Line(label)
		if err != nil {
			return goal.Input{}, err
		}
		vals[i] = v
	}
	return goal.ParseInput(sex, vals[0], vals[1], vals[2], activity, wg)
}

func (s *Shell) history(ctx context.Context, args []string) error {
	days := defaultHistoryDays
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: days must be a positive whole number", models.ErrValidation)
		}
		days = n
	}
	now := s.clock.Now()
	to := models.DateOf(now)
	from := models.DateOf(now.AddDate(0, 0, -(days - 1)))

	summaries, err := s.remote.Summary(ctx, s.user, from, to)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(s.out, "No meals logged in this period")
		return nil
	}
	for _, d := range summaries {
		fmt.Fprintf(s.out, "%s  %2d meals  %5d kcal\n", d.Date, d.Meals, d.Totals.Calories)
	}
	return nil
}
