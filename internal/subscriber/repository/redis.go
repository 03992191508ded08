package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/cabledesk/internal/clock"
	"github.com/smallbiznis/cabledesk/internal/subscriber/domain"
)

const redisTxAttempts = 10

// redisRepo keeps the whole subscriber list as one JSON array under a single
// key. Writes are read-modify-write guarded by WATCH.
type redisRepo struct {
	client *redis.Client
	key    string
	genID  *snowflake.Node
	clock  clock.Clock
}

func NewRedis(client *redis.Client, prefix string, genID *snowflake.Node, clk clock.Clock) domain.Repository {
	return &redisRepo{client: client, key: blobKey(prefix), genID: genID, clock: clk}
}

func blobKey(prefix string) string {
	if prefix == "" {
		prefix = "cabledesk"
	}
	return prefix + ":subscribers"
}

func (r *redisRepo) List(ctx context.Context) ([]domain.Subscriber, error) {
	subscribers, err := r.load(ctx, r.client)
	if err != nil {
		return nil, domain.NewStoreError("list", err)
	}
	sortNewestFirst(subscribers)
	return subscribers, nil
}

func (r *redisRepo) Insert(ctx context.Context, subscriber *domain.Subscriber) error {
	stampInsert(subscriber, r.genID, r.clock.Now())
	err := r.mutate(ctx, func(all []domain.Subscriber) ([]domain.Subscriber, error) {
		return append(all, *subscriber), nil
	})
	return domain.NewStoreError("insert", err)
}

func (r *redisRepo) BatchInsert(ctx context.Context, subscribers []*domain.Subscriber) error {
	if len(subscribers) == 0 {
		return nil
	}
	now := r.clock.Now()
	for _, s := range subscribers {
		stampInsert(s, r.genID, now)
	}
	err := r.mutate(ctx, func(all []domain.Subscriber) ([]domain.Subscriber, error) {
		for _, s := range subscribers {
			all = append(all, *s)
		}
		return all, nil
	})
	return domain.NewStoreError("batch_insert", err)
}

func (r *redisRepo) Update(ctx context.Context, id snowflake.ID, subscriber *domain.Subscriber) error {
	stampUpdate(subscriber, id, r.clock.Now())
	err := r.mutate(ctx, func(all []domain.Subscriber) ([]domain.Subscriber, error) {
		for i := range all {
			if all[i].ID != id {
				continue
			}
			subscriber.CreatedAt = all[i].CreatedAt
			subscriber.CreatedBy = all[i].CreatedBy
			all[i] = *subscriber
			return all, nil
		}
		return nil, domain.ErrNotFound
	})
	return domain.NewStoreError("update", err)
}

func (r *redisRepo) Delete(ctx context.Context, id snowflake.ID) error {
	err := r.mutate(ctx, func(all []domain.Subscriber) ([]domain.Subscriber, error) {
		for i := range all {
			if all[i].ID == id {
				return append(all[:i], all[i+1:]...), nil
			}
		}
		return nil, domain.ErrNotFound
	})
	return domain.NewStoreError("delete", err)
}

func (r *redisRepo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Subscriber, error) {
	all, err := r.load(ctx, r.client)
	if err != nil {
		return nil, domain.NewStoreError("find", err)
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, nil
}

func (r *redisRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	all, err := r.load(ctx, r.client)
	if err != nil {
		return 0, domain.NewStoreError("count", err)
	}
	var count int64
	for _, s := range all {
		if !s.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *redisRepo) load(ctx context.Context, c redis.Cmdable) ([]domain.Subscriber, error) {
	raw, err := c.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []domain.Subscriber{}, nil
	}
	if err != nil {
		return nil, err
	}
	var subscribers []domain.Subscriber
	if err := json.Unmarshal(raw, &subscribers); err != nil {
		return nil, err
	}
	return subscribers, nil
}

func (r *redisRepo) mutate(ctx context.Context, fn func([]domain.Subscriber) ([]domain.Subscriber, error)) error {
	txf := func(tx *redis.Tx) error {
		all, err := r.load(ctx, tx)
		if err != nil {
			return err
		}
		next, err := fn(all)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key, payload, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < redisTxAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, r.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return redis.TxFailedErr
}

func sortNewestFirst(subscribers []domain.Subscriber) {
	sort.SliceStable(subscribers, func(i, j int) bool {
		if !subscribers[i].CreatedAt.Equal(subscribers[j].CreatedAt) {
			return subscribers[i].CreatedAt.After(subscribers[j].CreatedAt)
		}
		return subscribers[i].ID > subscribers[j].ID
	})
}
