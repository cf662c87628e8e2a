package goal

import "math"

// DefaultDailyCalories is the calorie goal used until one is calculated.
const DefaultDailyCalories = 2200

// MacroTargets are daily gram targets for the macro bars.
type MacroTargets struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
	Fiber   float64 `json:"fiber"`
}

// DefaultMacroTargets are the targets shown when the user has set none.
var DefaultMacroTargets = MacroTargets{Protein: 150, Carbs: 250, Fat: 80, Fiber: 25}

// Progress summarises calories consumed against a daily goal.
type Progress struct {
	Consumed int `json:"consumed"`
	Goal     int `json:"goal"`
	// Percent is consumed/goal as a whole percentage, capped at 100.
	Percent int `json:"percent"`
	// Remaining is how many calories are left, never negative.
	Remaining int `json:"remaining"`
	// Over is how far consumption exceeds the goal, never negative.
	Over int `json:"over"`
}

// CalorieProgress computes Progress. A non-positive goal yields 0 percent.
func CalorieProgress(consumed, goalCalories int) Progress {
	p := Progress{Consumed: consumed, Goal: goalCalories}
	if goalCalories > 0 {
		p.Percent = int(math.Round(clampPercent(float64(consumed) / float64(goalCalories) * 100)))
	}
	if d := goalCalories - consumed; d > 0 {
		p.Remaining = d
	} else {
		p.Over = -d
	}
	return p
}

// MacroPercent is the unrounded percentage of a macro target, capped at 100.
func MacroPercent(current, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return clampPercent(current / target * 100)
}

func clampPercent(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 100:
		return 100
	}
	return v
}
