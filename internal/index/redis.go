package index

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSequence keeps counters in Redis so several processes sharing one
// storage backend never hand out the same id.
type RedisSequence struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisSequence creates a sequence whose keys live under prefix
// (e.g. "oss:my-bucket", see Storage.RedisPrefix).
func NewRedisSequence(rdb *redis.Client, prefix string) *RedisSequence {
	return &RedisSequence{rdb: rdb, prefix: prefix}
}

func (s *RedisSequence) Next(ctx context.Context, table string) (int64, error) {
	id, err := s.rdb.Incr(ctx, makeSeqKey(s.prefix, table)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to generate id: %w", err)
	}
	return id, nil
}

func (s *RedisSequence) Seed(ctx context.Context, table string, floor int64) error {
	err := SafeEvalSha(ctx, s.rdb, "seed.lua", []string{makeSeqKey(s.prefix, table)}, floor).Err()
	if err != nil {
		return fmt.Errorf("failed to seed sequence: %w", err)
	}
	return nil
}

func (s *RedisSequence) Reset(ctx context.Context, table string) error {
	return s.rdb.Del(ctx, makeSeqKey(s.prefix, table)).Err()
}
