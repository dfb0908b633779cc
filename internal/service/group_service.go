package service

import (
	"context"
	"strings"

	"stockroom/internal/domain"
	"stockroom/internal/repository"
)

// GroupInput carries the editable fields of a role group.
type GroupInput struct {
	Name   string
	Level  int
	Active bool
}

type GroupService interface {
	List(ctx context.Context) ([]*domain.Group, error)
	Get(ctx context.Context, id int64) (*domain.Group, error)
	Create(ctx context.Context, input GroupInput) (*domain.Group, error)
	Update(ctx context.Context, id int64, input GroupInput) (*domain.Group, error)
	Delete(ctx context.Context, id int64) error
}

type groupService struct {
	groups repository.GroupRepository
}

func NewGroupService(groups repository.GroupRepository) GroupService {
	return &groupService{groups: groups}
}

func (s *groupService) List(ctx context.Context) ([]*domain.Group, error) {
	return s.groups.List(ctx)
}

func (s *groupService) Get(ctx context.Context, id int64) (*domain.Group, error) {
	return s.groups.FindByID(ctx, id)
}

func (s *groupService) Create(ctx context.Context, input GroupInput) (*domain.Group, error) {
	group, err := buildGroup(input)
	if err != nil {
		return nil, err
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// Update renames or re-levels a group. Users follow a level change through
// the foreign key.
func (s *groupService) Update(ctx context.Context, id int64, input GroupInput) (*domain.Group, error) {
	group, err := buildGroup(input)
	if err != nil {
		return nil, err
	}
	group.ID = id
	if err := s.groups.Update(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *groupService) Delete(ctx context.Context, id int64) error {
	return s.groups.Delete(ctx, id)
}

func buildGroup(input GroupInput) (*domain.Group, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrBlankName
	}
	if input.Level < 1 {
		return nil, domain.ErrInvalidLevel
	}
	return &domain.Group{Name: name, Level: input.Level, Active: input.Active}, nil
}
