package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"stockroom/internal/auth"
	"stockroom/internal/domain"
	"stockroom/internal/metrics"
	"stockroom/internal/repository"

	"go.uber.org/zap"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token       string
	User        *domain.User
	Permissions domain.Capabilities
}

// AuthService defines the interface for authentication
type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	CurrentUser(ctx context.Context, id int64) (*domain.User, domain.Capabilities, error)
}

// PasswordHasher hashes and checks stored credentials. *auth.Hasher
// implements it.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hashed string) bool
}

type authService struct {
	users   repository.UserRepository
	hasher  PasswordHasher
	tokens  *auth.TokenManager
	guard   *auth.Guard
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new instance of AuthService
func NewAuthService(
	users repository.UserRepository,
	hasher PasswordHasher,
	tokens *auth.TokenManager,
	guard *auth.Guard,
	m *metrics.Metrics,
	logger *zap.Logger,
) AuthService {
	return &authService{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		guard:   guard,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Login checks the throttle guard, then the credentials, and issues a token.
// Unknown users, inactive users and wrong passwords all fail with
// ErrInvalidCredentials and all count as a failed attempt.
func (s *authService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	decision, err := s.guard.Check(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check login attempts: %w", err)
	}
	if decision.Locked {
		s.metrics.LoginLocked()
		s.logger.Warn("Login refused for locked username",
			zap.String("username", username),
			zap.Duration("retry_after", decision.RetryAfter),
		)
		return nil, &domain.LockoutError{RetryAfter: decision.RetryAfter}
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user == nil || !user.Active {
		// keep the response time close to a real password check
		s.hasher.Verify(password, s.placeholderHash())
		return nil, s.rejectLogin(ctx, username)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, s.rejectLogin(ctx, username)
	}

	if err := s.guard.Succeed(ctx, username); err != nil {
		return nil, fmt.Errorf("failed to reset login attempts: %w", err)
	}
	if err := s.users.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		return nil, fmt.Errorf("failed to record last login: %w", err)
	}

	token, err := s.tokens.Issue(auth.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Level:    user.Level,
		Name:     user.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &LoginResult{
		Token:       token,
		User:        user,
		Permissions: domain.CapabilitiesFor(user.Level),
	}, nil
}

func (s *authService) rejectLogin(ctx context.Context, username string) error {
	attempt, err := s.guard.Fail(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to record login attempt: %w", err)
	}
	s.metrics.LoginFailed()
	s.logger.Warn("Failed login",
		zap.String("username", username),
		zap.Int("failures", attempt.Failures),
	)
	return domain.ErrInvalidCredentials
}

func (s *authService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("placeholder-password")
	})
	return s.dummyHash
}

func (s *authService) CurrentUser(ctx context.Context, id int64) (*domain.User, domain.Capabilities, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, domain.Capabilities{}, err
	}
	return user, domain.CapabilitiesFor(user.Level), nil
}
