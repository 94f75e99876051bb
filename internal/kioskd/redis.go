package kioskd

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists job records in redis, one hash per job with the job
// hash as the key. This matches what the real kiosk's redis consumer writes,
// so kioskd can also point at a live kiosk redis for debugging.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) SaveJob(ctx context.Context, rec *JobRecord) error {
	fields := rec.fields()
	values := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		values = append(values, k, v)
	}
	return s.rdb.HSet(ctx, rec.Hash, values...).Err()
}

func (s *RedisStore) SetField(ctx context.Context, hash, field, value string) error {
	return s.rdb.HSet(ctx, hash, field, value).Err()
}

func (s *RedisStore) GetField(ctx context.Context, hash, field string) (string, error) {
	value, err := s.rdb.HGet(ctx, hash, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *RedisStore) Expire(ctx context.Context, hash string, ttl time.Duration) (bool, error) {
	return s.rdb.Expire(ctx, hash, ttl).Result()
}
