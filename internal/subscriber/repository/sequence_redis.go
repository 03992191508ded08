package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/cabledesk/internal/subscriber/domain"
)

const sequenceTTL = 48 * time.Hour

type redisSequencer struct {
	client *redis.Client
	prefix string
	repo   domain.Repository
}

// NewRedisSequencer counts with INCR on a per-day key. The key is seeded
// with SETNX from the day's existing record count before the first INCR.
func NewRedisSequencer(client *redis.Client, prefix string, repo domain.Repository) domain.Sequencer {
	if prefix == "" {
		prefix = "cabledesk"
	}
	return &redisSequencer{client: client, prefix: prefix, repo: repo}
}

func (s *redisSequencer) Next(ctx context.Context, day time.Time) (int64, error) {
	key := s.prefix + ":code_seq:" + day.Format("20060102")

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, domain.NewStoreError("sequence", err)
	}
	if exists == 0 {
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		count, err := s.repo.CountSince(ctx, start)
		if err != nil {
			return 0, err
		}
		if err := s.client.SetNX(ctx, key, count, sequenceTTL).Err(); err != nil {
			return 0, domain.NewStoreError("sequence", err)
		}
	}

	value, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, domain.NewStoreError("sequence", err)
	}
	return value, nil
}
