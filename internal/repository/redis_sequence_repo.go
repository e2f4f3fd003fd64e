package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const sequenceKeyPrefix = "docflow:docseq:"

// DocumentCounter is the store count used to seed a fresh Redis counter.
type DocumentCounter interface {
	CountByTypeInYear(ctx context.Context, docType string, year int) (int64, error)
}

type redisSequenceRepository struct {
	client  redis.Cmdable
	counter DocumentCounter
}

// NewRedisSequenceRepository returns a sequence backed by Redis INCR.
// Redis does not take part in the database transaction, so a rolled back
// create leaves a gap in the numbering.
func NewRedisSequenceRepository(client redis.Cmdable, counter DocumentCounter) SequenceRepository {
	return &redisSequenceRepository{client: client, counter: counter}
}

func sequenceKey(docType string, year int) string {
	return fmt.Sprintf("%s%s:%d", sequenceKeyPrefix, docType, year)
}

func (r *redisSequenceRepository) Next(ctx context.Context, docType string, year int) (int64, error) {
	key := sequenceKey(docType, year)

	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis exists %s: %w", key, err)
	}
	if exists == 0 {
		count, err := r.counter.CountByTypeInYear(ctx, docType, year)
		if err != nil {
			return 0, fmt.Errorf("seed %s: %w", key, err)
		}
		// Losing the race is fine: the winner seeded the same count.
		if err := r.client.SetNX(ctx, key, count, 0).Err(); err != nil {
			return 0, fmt.Errorf("redis setnx %s: %w", key, err)
		}
	}

	value, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	return value, nil
}
