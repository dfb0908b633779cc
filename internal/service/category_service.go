package service

import (
	"context"
	"strings"

	"stockroom/internal/domain"
	"stockroom/internal/repository"
)

type CategoryService interface {
	List(ctx context.Context) ([]*domain.Category, error)
	Get(ctx context.Context, id int64) (*domain.Category, error)
	Create(ctx context.Context, name string) (*domain.Category, error)
	Update(ctx context.Context, id int64, name string) (*domain.Category, error)
	Delete(ctx context.Context, id int64) error
}

type categoryService struct {
	categories repository.CategoryRepository
}

func NewCategoryService(categories repository.CategoryRepository) CategoryService {
	return &categoryService{categories: categories}
}

func (s *categoryService) List(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.List(ctx)
}

func (s *categoryService) Get(ctx context.Context, id int64) (*domain.Category, error) {
	return s.categories.FindByID(ctx, id)
}

func (s *categoryService) Create(ctx context.Context, name string) (*domain.Category, error) {
	category := &domain.Category{Name: strings.TrimSpace(name)}
	if category.Name == "" {
		return nil, domain.ErrBlankName
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, id int64, name string) (*domain.Category, error) {
	category := &domain.Category{ID: id, Name: strings.TrimSpace(name)}
	if category.Name == "" {
		return nil, domain.ErrBlankName
	}
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete fails with ErrCategoryInUse while products reference the category
func (s *categoryService) Delete(ctx context.Context, id int64) error {
	return s.categories.Delete(ctx, id)
}
