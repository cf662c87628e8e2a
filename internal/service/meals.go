package service

import (
	"context"
	"fmt"
	"time"

	"github.com/atinyakov/mealledger/internal/models"
)

// maxSummaryDays bounds the range of a single summary request.
const maxSummaryDays = 366

// MealRepository defines the daily_meals persistence operations.
type MealRepository interface {
	ListByDate(ctx context.Context, userID, date string) ([]models.MealEntry, error)
	Insert(ctx context.Context, userID string, m models.NewMealEntry) (*models.MealEntry, error)
	Update(ctx context.Context, userID, id string, p models.MealEntryPatch) (int64, error)
	Delete(ctx context.Context, userID, id string) (int64, error)
	Summaries(ctx context.Context, userID, from, to string) ([]models.DaySummary, error)
}

// MealService validates daily meal requests before they reach the store.
type MealService struct {
	repo MealRepository
}

// NewMealService constructs a MealService.
func NewMealService(repo MealRepository) *MealService {
	return &MealService{repo: repo}
}

// List returns the user's meals for date, most recent first.
func (s *MealService) List(ctx context.Context, userID, date string) ([]models.MealEntry, error) {
	if err := checkDate(date); err != nil {
		return nil, err
	}
	return s.repo.ListByDate(ctx, userID, date)
}

// Create validates and stores a meal.
func (s *MealService) Create(ctx context.Context, userID string, m models.NewMealEntry) (*models.MealEntry, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Insert(ctx, userID, m)
}

// Update validates and applies a partial update. It returns the number of
// rows changed.
func (s *MealService) Update(ctx context.Context, userID, id string, p models.MealEntryPatch) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return s.repo.Update(ctx, userID, id, p)
}

// Delete removes a meal and returns the number of rows removed.
func (s *MealService) Delete(ctx context.Context, userID, id string) (int64, error) {
	return s.repo.Delete(ctx, userID, id)
}

// Totals sums the user's meals for date.
func (s *MealService) Totals(ctx context.Context, userID, date string) (models.DailyTotals, error) {
	meals, err := s.List(ctx, userID, date)
	if err != nil {
		return models.DailyTotals{}, err
	}
	return models.SumNutrients(meals), nil
}

// Summary returns per-day totals between from and to inclusive.
func (s *MealService) Summary(ctx context.Context, userID, from, to string) ([]models.DaySummary, error) {
	start, err := time.Parse(models.DateLayout, from)
	if err != nil {
		return nil, fmt.Errorf("%w: from must be YYYY-MM-DD", models.ErrValidation)
	}
	end, err := time.Parse(models.DateLayout, to)
	if err != nil {
		return nil, fmt.Errorf("%w: to must be YYYY-MM-DD", models.ErrValidation)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: to is before from", models.ErrValidation)
	}
	if end.Sub(start) >= maxSummaryDays*24*time.Hour {
		return nil, fmt.Errorf("%w: range exceeds %d days", models.ErrValidation, maxSummaryDays)
	}
	return s.repo.Summaries(ctx, userID, from, to)
}

func checkDate(date string) error {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", models.ErrValidation)
	}
	return nil
}
