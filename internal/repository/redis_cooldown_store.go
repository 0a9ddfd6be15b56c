package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmuslimabdulj/gelly-pet/internal/domain"
)

// RedisCooldownStore keeps cooldowns in Redis so they survive restarts and
// are shared between replicas. Keys expire together with the cooldown.
type RedisCooldownStore struct {
	client    redis.Cmdable
	keyPrefix string
	now       func() time.Time
}

// NewRedisCooldownStore creates a store writing keys under keyPrefix
func NewRedisCooldownStore(client redis.Cmdable, keyPrefix string) *RedisCooldownStore {
	return &RedisCooldownStore{client: client, keyPrefix: keyPrefix, now: time.Now}
}

func (s *RedisCooldownStore) NotBefore(ctx context.Context, userID string, kind domain.ActionKind) (time.Time, bool, error) {
	val, err := s.client.Get(ctx, s.key(userID, kind)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("redis get: %w", err)
	}

	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse cooldown: %w", err)
	}
	return time.UnixMilli(ms), true, nil
}

func (s *RedisCooldownStore) SetNotBefore(ctx context.Context, userID string, kind domain.ActionKind, notBefore time.Time) error {
	ttl := notBefore.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	// Round up so the key does not expire before the cooldown ends
	ttl = ttl.Truncate(time.Millisecond) + time.Millisecond

	if err := s.client.Set(ctx, s.key(userID, kind), notBefore.UnixMilli(), ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisCooldownStore) key(userID string, kind domain.ActionKind) string {
	if s.keyPrefix == "" {
		return fmt.Sprintf("%s:%s", userID, kind)
	}
	return fmt.Sprintf("%s:%s:%s", s.keyPrefix, userID, kind)
}

var _ CooldownStore = (*RedisCooldownStore)(nil)
