package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/atinyakov/mealledger/internal/goal"
	"github.com/atinyakov/mealledger/internal/models"
	"github.com/atinyakov/mealledger/internal/repository"
)

// ErrNoProfile is returned when the user has not saved a profile yet.
var ErrNoProfile = errors.New("profile not found")

// ProfileRepository defines the profiles persistence operations.
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Upsert(ctx context.Context, userID string, p models.ProfilePatch) (*models.Profile, error)
}

// GoalRequest asks for a calorie goal. Zero measurements are taken from the
// stored profile.
type GoalRequest struct {
	Sex      goal.Sex           `json:"sex"`
	Activity goal.ActivityLevel `json:"activity_level"`
	Goal     goal.WeightGoal    `json:"goal"`
	WeightKg float64            `json:"weight,omitempty"`
	HeightCm float64            `json:"height,omitempty"`
	AgeYears float64            `json:"age,omitempty"`
}

// GoalResult is the outcome of every step of the goal calculation.
type GoalResult struct {
	BMR      float64 `json:"bmr"`
	TDEE     float64 `json:"tdee"`
	Calories int     `json:"calories"`
}

// ProfileService manages profiles and derives calorie goals from them.
type ProfileService struct {
	repo ProfileRepository
}

// NewProfileService constructs a ProfileService.
func NewProfileService(repo ProfileRepository) *ProfileService {
	return &ProfileService{repo: repo}
}

// Get returns the user's profile or ErrNoProfile.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := s.repo.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoProfile
	}
	return p, err
}

// Save validates the patch and merges it into the stored profile.
func (s *ProfileService) Save(ctx context.Context, userID string, p models.ProfilePatch) (*models.Profile, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Upsert(ctx, userID, p)
}

// Goal computes BMR, TDEE and the adjusted calorie goal. When the request
// carries no measurements the stored profile supplies them.
func (s *ProfileService) Goal(ctx context.Context, userID string, req GoalRequest) (*GoalResult, error) {
	in := goal.Input{
		Sex: req.Sex, Activity: req.Activity, Goal: req.Goal,
		WeightKg: req.WeightKg, HeightCm: req.HeightCm, AgeYears: req.AgeYears,
	}
	if req.WeightKg == 0 && req.HeightCm == 0 && req.AgeYears == 0 {
		p, err := s.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		if in, err = goal.FromProfile(*p, req.Sex, req.Activity, req.Goal); err != nil {
			return nil, err
		}
	}
	return computeGoal(in)
}

func computeGoal(in goal.Input) (*GoalResult, error) {
	calories, err := goal.Calculate(in)
	if err != nil {
		return nil, err
	}
	bmr, err := goal.BMR(in.Sex, in.WeightKg, in.HeightCm, in.AgeYears)
	if err != nil {
		return nil, fmt.Errorf("bmr: %w", err)
	}
	tdee, err := goal.TDEE(bmr, in.Activity)
	if err != nil {
		return nil, fmt.Errorf("tdee: %w", err)
	}
	return &GoalResult{BMR: bmr, TDEE: tdee, Calories: calories}, nil
}
