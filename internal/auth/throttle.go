package auth

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Attempt is the failure record of one username.
type Attempt struct {
	Failures    int
	LastFailure time.Time
}

// AttemptStore keeps failed login attempts keyed by username.
type AttemptStore interface {
	Get(ctx context.Context, username string) (Attempt, bool, error)
	RecordFailure(ctx context.Context, username string, at time.Time) (Attempt, error)
	Reset(ctx context.Context, username string) error
}

// Decision is the outcome of checking a username before verifying a password.
type Decision struct {
	Locked     bool
	RetryAfter time.Duration
}

// Guard locks a username out after maxFailures consecutive failures until
// window has passed since the last failure.
type Guard struct {
	store       AttemptStore
	maxFailures int
	window      time.Duration
	now         func() time.Time
}

func NewGuard(store AttemptStore, maxFailures int, window time.Duration) *Guard {
	return &Guard{
		store:       store,
		maxFailures: maxFailures,
		window:      window,
		now:         time.Now,
	}
}

// Check discards a stale record and reports whether the username is locked.
func (g *Guard) Check(ctx context.Context, username string) (Decision, error) {
	attempt, ok, err := g.store.Get(ctx, username)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to read login attempts: %w", err)
	}
	if !ok {
		return Decision{}, nil
	}

	// the lockout ends once a full window has passed
	elapsed := g.now().Sub(attempt.LastFailure)
	if elapsed >= g.window {
		if err := g.store.Reset(ctx, username); err != nil {
			return Decision{}, fmt.Errorf("failed to reset login attempts: %w", err)
		}
		return Decision{}, nil
	}

	if attempt.Failures >= g.maxFailures {
		return Decision{Locked: true, RetryAfter: g.window - elapsed}, nil
	}
	return Decision{}, nil
}

// Fail records a failed attempt.
func (g *Guard) Fail(ctx context.Context, username string) (Attempt, error) {
	attempt, err := g.store.RecordFailure(ctx, username, g.now())
	if err != nil {
		return Attempt{}, fmt.Errorf("failed to record login attempt: %w", err)
	}
	return attempt, nil
}

// Succeed clears the record after a successful login.
func (g *Guard) Succeed(ctx context.Context, username string) error {
	if err := g.store.Reset(ctx, username); err != nil {
		return fmt.Errorf("failed to reset login attempts: %w", err)
	}
	return nil
}

// MemoryAttemptStore is a process-local AttemptStore. It does not survive a
// restart and is not shared between instances.
type MemoryAttemptStore struct {
	mu       sync.Mutex
	attempts map[string]Attempt
}

func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{attempts: make(map[string]Attempt)}
}

func (s *MemoryAttemptStore) Get(_ context.Context, username string) (Attempt, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempt, ok := s.attempts[username]
	return attempt, ok, nil
}

func (s *MemoryAttemptStore) RecordFailure(_ context.Context, username string, at time.Time) (Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempt := s.attempts[username]
	attempt.Failures++
	attempt.LastFailure = at
	s.attempts[username] = attempt
	return attempt, nil
}

func (s *MemoryAttemptStore) Reset(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.attempts, username)
	return nil
}
