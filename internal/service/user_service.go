package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"stockroom/internal/auth"
	"stockroom/internal/domain"
	"stockroom/internal/repository"

	"go.uber.org/zap"
)

// CreateUserInput carries the fields of a new account.
type CreateUserInput struct {
	Name     string
	Username string
	Password string
	Level    int
}

// UpdateUserInput replaces an account's editable fields. An empty Password
// keeps the current one.
type UpdateUserInput struct {
	Name     string
	Username string
	Level    int
	Active   bool
	Password string
}

// ProfileInput is what users may change about themselves.
type ProfileInput struct {
	Name     string
	Username string
}

// UserService defines the interface for account management
type UserService interface {
	List(ctx context.Context) ([]*domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, input CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, actorID, id int64, input UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, actorID, id int64) error
	SetStatus(ctx context.Context, actorID, id int64, active bool) (*domain.User, error)
	UpdateProfile(ctx context.Context, id int64, input ProfileInput) (*domain.User, error)
	ChangePassword(ctx context.Context, id int64, current, next, confirm string) error
	UpdateAvatar(ctx context.Context, id int64, image io.Reader) (*domain.User, error)
}

type userService struct {
	users    repository.UserRepository
	groups   repository.GroupRepository
	hasher   *auth.Hasher
	uploader *ImageUploader
	logger   *zap.Logger
}

// NewUserService creates a new instance of UserService
func NewUserService(
	users repository.UserRepository,
	groups repository.GroupRepository,
	hasher *auth.Hasher,
	uploader *ImageUploader,
	logger *zap.Logger,
) UserService {
	return &userService{
		users:    users,
		groups:   groups,
		hasher:   hasher,
		uploader: uploader,
		logger:   logger,
	}
}

func (s *userService) List(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

func (s *userService) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

// Create stores a new active account with a hashed password
func (s *userService) Create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	if err := s.requireLevel(ctx, input.Level); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Username:     strings.TrimSpace(input.Username),
		PasswordHash: hash,
		Level:        input.Level,
		Image:        domain.DefaultImage,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.users.FindByID(ctx, user.ID)
}

func (s *userService) Update(ctx context.Context, actorID, id int64, input UpdateUserInput) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actorID == id && !input.Active {
		return nil, domain.ErrSelfStatus
	}
	if err := s.requireLevel(ctx, input.Level); err != nil {
		return nil, err
	}

	user.Name = strings.TrimSpace(input.Name)
	user.Username = strings.TrimSpace(input.Username)
	user.Level = input.Level
	user.Active = input.Active
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	if input.Password != "" {
		hash, err := s.hasher.Hash(input.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
			return nil, err
		}
	}

	return s.users.FindByID(ctx, id)
}

func (s *userService) Delete(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return domain.ErrSelfDelete
	}
	return s.users.Delete(ctx, id)
}

func (s *userService) SetStatus(ctx context.Context, actorID, id int64, active bool) (*domain.User, error) {
	if actorID == id {
		return nil, domain.ErrSelfStatus
	}
	if err := s.users.UpdateStatus(ctx, id, active); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, id)
}

func (s *userService) UpdateProfile(ctx context.Context, id int64, input ProfileInput) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Name = strings.TrimSpace(input.Name)
	user.Username = strings.TrimSpace(input.Username)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword requires the current password and a matching confirmation
func (s *userService) ChangePassword(ctx context.Context, id int64, current, next, confirm string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(current, user.PasswordHash) {
		return domain.ErrWrongPassword
	}
	if next != confirm {
		return domain.ErrPasswordMismatch
	}
	if next == current {
		return domain.ErrSamePassword
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, id, hash)
}

// UpdateAvatar stores a new profile image and removes the previous one
func (s *userService) UpdateAvatar(ctx context.Context, id int64, image io.Reader) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	stored, err := s.uploader.Store(image)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateImage(ctx, id, stored.Name); err != nil {
		s.discard(stored.Name)
		return nil, err
	}

	if user.Image != "" && user.Image != domain.DefaultImage {
		s.discard(user.Image)
	}
	user.Image = stored.Name
	return user, nil
}

func (s *userService) requireLevel(ctx context.Context, level int) error {
	if _, err := s.groups.FindByLevel(ctx, level); err != nil {
		if errors.Is(err, domain.ErrGroupNotFound) {
			return domain.ErrUnknownLevel
		}
		return err
	}
	return nil
}

func (s *userService) discard(name string) {
	if err := s.uploader.Discard(name); err != nil {
		s.logger.Warn("Failed to remove image file", zap.String("file", name), zap.Error(err))
	}
}
