package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/robalobadob/priceguess/internal/game"
)

const redisPrefix = "priceguess:round:"

// redisStore keeps JSON round snapshots in Redis so several server
// processes can serve the same player. Expiry is delegated to Redis TTLs.
type redisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore constructs a Store on top of rdb. ttl <= 0 disables expiry.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) Store {
	if ttl < 0 {
		ttl = 0
	}
	return &redisStore{rdb: rdb, ttl: ttl}
}

func (s *redisStore) Save(ctx context.Context, player string, r *game.Round) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode round: %w", err)
	}
	if err := s.rdb.Set(ctx, redisPrefix+key(player, r.ID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, player, id string) (*game.Round, error) {
	b, err := s.rdb.Get(ctx, redisPrefix+key(player, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var r game.Round
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode round: %w", err)
	}
	if r.Attempts == nil {
		r.Attempts = []game.Guess{}
	}
	return &r, nil
}

func (s *redisStore) Delete(ctx context.Context, player, id string) error {
	if err := s.rdb.Del(ctx, redisPrefix+key(player, id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
