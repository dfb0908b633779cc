package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const attemptKeyPrefix = "login_attempts:"

// RedisAttemptStore shares failed login attempts between instances. Each
// username is a hash that expires once the lockout window has passed.
type RedisAttemptStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisAttemptStore(client redis.Cmdable, ttl time.Duration) *RedisAttemptStore {
	return &RedisAttemptStore{client: client, ttl: ttl}
}

func (s *RedisAttemptStore) Get(ctx context.Context, username string) (Attempt, bool, error) {
	fields, err := s.client.HGetAll(ctx, attemptKey(username)).Result()
	if err != nil {
		return Attempt{}, false, err
	}
	if len(fields) == 0 {
		return Attempt{}, false, nil
	}

	failures, err := strconv.Atoi(fields["failures"])
	if err != nil {
		return Attempt{}, false, fmt.Errorf("corrupt failure count for %q: %w", username, err)
	}
	last, err := strconv.ParseInt(fields["last"], 10, 64)
	if err != nil {
		return Attempt{}, false, fmt.Errorf("corrupt failure time for %q: %w", username, err)
	}

	return Attempt{Failures: failures, LastFailure: time.Unix(0, last)}, true, nil
}

func (s *RedisAttemptStore) RecordFailure(ctx context.Context, username string, at time.Time) (Attempt, error) {
	key := attemptKey(username)

	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.HIncrBy(ctx, key, "failures", 1)
		pipe.HSet(ctx, key, "last", at.UnixNano())
		pipe.PExpire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return Attempt{}, err
	}

	return Attempt{Failures: int(incr.Val()), LastFailure: at}, nil
}

func (s *RedisAttemptStore) Reset(ctx context.Context, username string) error {
	return s.client.Del(ctx, attemptKey(username)).Err()
}

func attemptKey(username string) string {
	return attemptKeyPrefix + username
}
