// Package goal derives a recommended daily calorie goal from body
// measurements using the Mifflin-St Jeor equation, and reports progress
// towards it. Everything here is pure: no state, no I/O.
package goal

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/atinyakov/mealledger/internal/models"
)

var (
	// ErrInvalidInput is returned when a measurement is missing,
	// non-numeric or not positive, or the activity level is unknown.
	ErrInvalidInput = errors.New("invalid goal input")
	// ErrUnsupportedSex is returned for a sex the formula has no constant for.
	ErrUnsupportedSex = errors.New("unsupported sex")
)

// Sex selects the BMR constant.
type Sex string

const (
	Male   Sex = "male"
	Female Sex = "female"
)

// ActivityLevel selects the TDEE multiplier.
type ActivityLevel string

const (
	Sedentary  ActivityLevel = "sedentary"
	Active     ActivityLevel = "active"
	VeryActive ActivityLevel = "very_active"
)

var multipliers = map[ActivityLevel]float64{
	Sedentary:  1.2,
	Active:     1.55,
	VeryActive: 1.725,
}

// WeightGoal selects the calorie adjustment.
type WeightGoal string

const (
	Lose     WeightGoal = "lose"
	Maintain WeightGoal = "maintain"
	Gain     WeightGoal = "gain"
)

const goalAdjustment = 500

// BMR returns the basal metabolic rate in kcal/day.
func BMR(sex Sex, weightKg, heightCm, ageYears float64) (float64, error) {
	base := 10*weightKg + 6.25*heightCm - 5*ageYears
	switch sex {
	case Male:
		return base + 5, nil
	case Female:
		return base - 161, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedSex, sex)
}

// TDEE scales bmr by the activity multiplier.
func TDEE(bmr float64, level ActivityLevel) (float64, error) {
	m, ok := multipliers[level]
	if !ok {
		return 0, fmt.Errorf("%w: unknown activity level %q", ErrInvalidInput, level)
	}
	return bmr * m, nil
}

// GoalCalories adjusts tdee for the weight goal and rounds to the nearest
// calorie. Anything other than lose or gain is treated as maintain.
func GoalCalories(tdee float64, wg WeightGoal) int {
	switch wg {
	case Lose:
		tdee -= goalAdjustment
	case Gain:
		tdee += goalAdjustment
	}
	return int(math.Round(tdee))
}

// Input collects everything Calculate needs.
type Input struct {
	Sex      Sex           `json:"sex"`
	WeightKg float64       `json:"weight"`
	HeightCm float64       `json:"height"`
	AgeYears float64       `json:"age"`
	Activity ActivityLevel `json:"activity_level"`
	Goal     WeightGoal    `json:"goal"`
}

// Validate refuses missing or non-positive measurements. There is no
// fallback value.
func (in Input) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{{"weight", in.WeightKg}, {"height", in.HeightCm}, {"age", in.AgeYears}} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v <= 0 {
			return fmt.Errorf("%w: %s must be a positive number", ErrInvalidInput, f.name)
		}
	}
	return nil
}

// Calculate runs BMR, TDEE and the goal adjustment in sequence.
func Calculate(in Input) (int, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	bmr, err := BMR(in.Sex, in.WeightKg, in.HeightCm, in.AgeYears)
	if err != nil {
		return 0, err
	}
	tdee, err := TDEE(bmr, in.Activity)
	if err != nil {
		return 0, err
	}
	return GoalCalories(tdee, in.Goal), nil
}

// ParseInput builds an Input from raw form strings. Unparseable
// measurements are refused rather than defaulted.
func ParseInput(sex, weight, height, age, activity, wg string) (Input, error) {
	in := Input{
		Sex:      Sex(strings.ToLower(strings.TrimSpace(sex))),
		Activity: ActivityLevel(strings.ToLower(strings.TrimSpace(activity))),
		Goal:     WeightGoal(strings.ToLower(strings.TrimSpace(wg))),
	}
	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"weight", weight, &in.WeightKg},
		{"height", height, &in.HeightCm},
		{"age", age, &in.AgeYears},
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f.raw), 64)
		if err != nil {
			return Input{}, fmt.Errorf("%w: %s must be a positive number", ErrInvalidInput, f.name)
		}
		*f.dst = v
	}
	return in, in.Validate()
}

// FromProfile builds an Input from a stored profile. Fields the user never
// entered are reported as invalid input.
func FromProfile(p models.Profile, sex Sex, activity ActivityLevel, wg WeightGoal) (Input, error) {
	in := Input{Sex: sex, Activity: activity, Goal: wg}
	if p.Weight == nil || p.Height == nil || p.Age == nil {
		return Input{}, fmt.Errorf("%w: profile is missing weight, height or age", ErrInvalidInput)
	}
	in.WeightKg = *p.Weight
	in.HeightCm = *p.Height
	in.AgeYears = float64(*p.Age)
	return in, in.Validate()
}
