package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/pose-mock/internal/apperror"
	"github.com/sakif/pose-mock/internal/model"
	"github.com/sakif/pose-mock/internal/repository"
)

// CategoryInput is the body of a category create request.
type CategoryInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type CategoryService struct {
	repo   repository.CategoryRepository
	logger *slog.Logger
}

func NewCategoryService(repo repository.CategoryRepository, logger *slog.Logger) *CategoryService {
	return &CategoryService{repo: repo, logger: logger}
}

func (s *CategoryService) Create(ctx context.Context, userID int64, in CategoryInput) (*model.CategoryResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}

	category := &model.Category{
		UserID:      userID,
		Name:        name,
		Description: in.Description,
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("creating category: %w", err)
	}

	s.logger.Info("category created",
		slog.Int64("id", category.ID),
		slog.String("name", category.Name),
	)
	return &model.CategoryResponse{Category: *category}, nil
}

// List returns the caller's categories, each with the number of the
// caller's poses currently in it.
func (s *CategoryService) List(ctx context.Context, userID int64) ([]model.CategoryResponse, error) {
	categories, err := s.repo.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	counts, err := s.repo.CountPosesByCategory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("counting poses: %w", err)
	}

	out := make([]model.CategoryResponse, len(categories))
	for i, c := range categories {
		out[i] = model.CategoryResponse{Category: c, PoseCount: counts[c.ID]}
	}
	return out, nil
}

// Delete is idempotent: a missing or foreign category is a silent no-op.
// Poses in a deleted category keep existing with a null category_id.
func (s *CategoryService) Delete(ctx context.Context, userID, id int64) error {
	category, err := s.repo.GetCategory(ctx, id)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("getting category: %w", err)
	}
	if category.UserID != userID {
		return nil
	}

	if err := s.repo.DeleteCategory(ctx, id); err != nil && !isNotFound(err) {
		return fmt.Errorf("deleting category: %w", err)
	}

	s.logger.Info("category deleted", slog.Int64("id", id))
	return nil
}
