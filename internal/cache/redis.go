package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/tender-optimizer/internal/optimizer"
	redis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "tender:solution:"

// Redis stores solutions as JSON strings with an expiry.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis connects to the server at url (redis://host:port/db). A zero ttl
// keeps entries until Redis evicts them.
func NewRedis(url string, ttl time.Duration) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisFromClient(redis.NewClient(opt), ttl), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) (*optimizer.Solution, bool, error) {
	data, err := r.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var sol optimizer.Solution
	if err := json.Unmarshal(data, &sol); err != nil {
		return nil, false, fmt.Errorf("decode cached solution %s: %w", key, err)
	}
	return &sol, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, sol *optimizer.Solution) error {
	data, err := json.Marshal(sol)
	if err != nil {
		return fmt.Errorf("encode solution %s: %w", key, err)
	}
	if err := r.rdb.Set(ctx, redisKeyPrefix+key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
