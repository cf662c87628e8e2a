package service

import (
	"context"

	"github.com/atinyakov/mealledger/internal/catalog"
	"github.com/atinyakov/mealledger/internal/models"
)

// SavedMealRepository defines the saved_meals persistence operations.
type SavedMealRepository interface {
	List(ctx context.Context, userID string) ([]models.SavedMeal, error)
	Insert(ctx context.Context, userID string, m models.NewSavedMeal) (*models.SavedMeal, error)
	Update(ctx context.Context, userID, id string, p models.SavedMealPatch) (int64, error)
	Delete(ctx context.Context, userID, id string) (int64, error)
}

// SavedMealService validates saved meal requests and normalises their tags.
type SavedMealService struct {
	repo SavedMealRepository
}

// NewSavedMealService constructs a SavedMealService.
func NewSavedMealService(repo SavedMealRepository) *SavedMealService {
	return &SavedMealService{repo: repo}
}

// List returns the user's templates, most recently created first.
func (s *SavedMealService) List(ctx context.Context, userID string) ([]models.SavedMeal, error) {
	return s.repo.List(ctx, userID)
}

// Create validates and stores a template.
func (s *SavedMealService) Create(ctx context.Context, userID string, m models.NewSavedMeal) (*models.SavedMeal, error) {
	m.Tags = catalog.NormalizeTags(m.Tags)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Insert(ctx, userID, m)
}

// Update validates and applies a partial update.
func (s *SavedMealService) Update(ctx context.Context, userID, id string, p models.SavedMealPatch) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if p.Tags != nil {
		tags := catalog.NormalizeTags(*p.Tags)
		p.Tags = &tags
	}
	return s.repo.Update(ctx, userID, id, p)
}

// Delete removes a template.
func (s *SavedMealService) Delete(ctx context.Context, userID, id string) (int64, error) {
	return s.repo.Delete(ctx, userID, id)
}
