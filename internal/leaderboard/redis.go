package leaderboard

import (
	"context"
	"fmt"
	"math"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const defaultRedisKey = "bugbusters:scores"

// RedisStore implements Store on a sorted set. Members sort earlier
// submissions first among equal scores; names live in a companion hash.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{client: client, key: defaultRedisKey}, nil
}

func (s *RedisStore) namesKey() string {
	return s.key + ":names"
}

// memberFor builds a member ID whose reverse lexical order matches
// submission order, so ZREVRANGE lists earlier entries first on ties.
func memberFor(entry ScoreEntry) string {
	return fmt.Sprintf("%019d:%s", math.MaxInt64-entry.CreatedAt.UnixNano(), entry.ID)
}

// Submit adds the entry to the sorted set and records its name.
func (s *RedisStore) Submit(ctx context.Context, entry ScoreEntry) error {
	member := memberFor(entry)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, s.key, redis.Z{Score: float64(entry.Score), Member: member})
		pipe.HSet(ctx, s.namesKey(), member, entry.Name)
		return nil
	})
	return err
}

// Top returns up to limit entries by score descending.
func (s *RedisStore) Top(ctx context.Context, limit int) ([]ScoreEntry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	zs, err := s.client.ZRevRangeWithScores(ctx, s.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(zs) == 0 {
		return []ScoreEntry{}, nil
	}

	members := make([]string, len(zs))
	for i, z := range zs {
		members[i], _ = z.Member.(string)
	}
	names, err := s.client.HMGet(ctx, s.namesKey(), members...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]ScoreEntry, 0, len(zs))
	for i, z := range zs {
		name, _ := names[i].(string)
		entries = append(entries, ScoreEntry{
			ID:    members[i],
			Name:  name,
			Score: int(z.Score),
		})
	}
	return entries, nil
}

// Clear deletes all stored entries.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key, s.namesKey()).Err()
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
