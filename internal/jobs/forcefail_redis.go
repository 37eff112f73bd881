package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const forceFailPrefix = "forcefail:"

// RedisFlagStore is a FlagStore shared across processes through Redis.
// GETDEL gives the one-shot consume without a race between workers.
type RedisFlagStore struct {
	client *redis.Client
}

// NewRedisFlagStore wraps the given client.
func NewRedisFlagStore(client *redis.Client) *RedisFlagStore {
	return &RedisFlagStore{client: client}
}

var _ FlagStore = (*RedisFlagStore)(nil)

// Arm sets the switch with a server-side TTL.
func (s *RedisFlagStore) Arm(ctx context.Context, jobType string, ttl time.Duration) error {
	return s.client.Set(ctx, forceFailPrefix+jobType, "1", ttl).Err()
}

// Disarm clears the switch.
func (s *RedisFlagStore) Disarm(ctx context.Context, jobType string) error {
	return s.client.Del(ctx, forceFailPrefix+jobType).Err()
}

// CheckAndClear consumes the switch if armed.
func (s *RedisFlagStore) CheckAndClear(ctx context.Context, jobType string) (bool, error) {
	_, err := s.client.GetDel(ctx, forceFailPrefix+jobType).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Armed reports the switch state without consuming it.
func (s *RedisFlagStore) Armed(ctx context.Context, jobType string) (bool, error) {
	n, err := s.client.Exists(ctx, forceFailPrefix+jobType).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
