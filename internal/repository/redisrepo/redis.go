package redisrepo

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Default is a JSON cache. Reads of a missing key return redis.Nil.
type Default interface {
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	GetBytes(ctx context.Context, key string) ([]byte, error)
	Del(ctx context.Context, keys ...string) error
	// Counter reads an integer key, 0 when missing.
	Counter(ctx context.Context, key string) (int64, error)
	// Incr bumps an integer key. A positive ttl extends its lifetime, zero
	// leaves it as is.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type RedisRepository struct {
	Default
}

func New(rdb *redis.Client) *RedisRepository {
	return &RedisRepository{
		Default: newJSONRepo(rdb),
	}
}
