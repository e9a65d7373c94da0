package redisrepo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var jsonNull = []byte("null")

type jsonRepo struct {
	rdb *redis.Client
}

func newJSONRepo(rdb *redis.Client) *jsonRepo {
	return &jsonRepo{rdb: rdb}
}

func (r *jsonRepo) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, key, encoded, ttl).Err()
}

func (r *jsonRepo) GetBytes(ctx context.Context, key string) ([]byte, error) {
	return r.rdb.Get(ctx, key).Bytes()
}

func (r *jsonRepo) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.rdb.Del(ctx, keys...).Err()
}

func (r *jsonRepo) Counter(ctx context.Context, key string) (int64, error) {
	n, err := r.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (r *jsonRepo) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// decodeInto reads key into dst. It reports false when a null was stored,
// which callers use to cache the absence of a row.
func decodeInto(ctx context.Context, r Default, key string, dst interface{}) (bool, error) {
	raw, err := r.GetBytes(ctx, key)
	if err != nil {
		return false, err
	}
	if bytes.Equal(bytes.TrimSpace(raw), jsonNull) {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

// Get decodes a single cached value. A stored null decodes to nil without
// error; a missing key returns redis.Nil.
func Get[T any](r Default, ctx context.Context, key string) (*T, error) {
	var value T
	found, err := decodeInto(ctx, r, key, &value)
	if err != nil || !found {
		return nil, err
	}
	return &value, nil
}

// GetMany decodes a cached list. An empty list decodes to a non-nil slice so
// it can be told apart from a stored null.
func GetMany[T any](r Default, ctx context.Context, key string) ([]*T, error) {
	values := []*T{}
	found, err := decodeInto(ctx, r, key, &values)
	if err != nil || !found {
		return nil, err
	}
	return values, nil
}
