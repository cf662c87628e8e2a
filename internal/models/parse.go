package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrValidation marks input rejected before any store call.
var ErrValidation = errors.New("validation failed")

// MaxCalories is the largest calorie value the calories INTEGER column holds.
const MaxCalories = math.MaxInt32

// ParseGrams parses an optional macro field. Blank or non-numeric input
// yields 0; a literal "0" is kept as a real zero. NaN and infinities are
// treated as non-numeric.
func ParseGrams(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ParseCalories parses the required calorie field. Fractions are rounded
// to the nearest whole calorie.
func ParseCalories(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: calories are required", ErrValidation)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: calories must be a number", ErrValidation)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: calories must not be negative", ErrValidation)
	}
	if v = math.Round(v); v > MaxCalories {
		return 0, fmt.Errorf("%w: calories out of range", ErrValidation)
	}
	return int(v), nil
}
