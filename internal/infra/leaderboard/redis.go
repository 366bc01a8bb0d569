package leaderboard

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is a Board backed by a Redis sorted set per board name.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to the given Redis endpoint.
func NewRedis(ctx context.Context, addr, password string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{client: client}, nil
}

// Close releases the Redis connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Submit accumulates score onto the user's entry.
func (r *Redis) Submit(ctx context.Context, board, userID string, score int) error {
	return r.client.ZIncrBy(ctx, key(board), float64(score), userID).Err()
}

// Top returns the n highest entries.
func (r *Redis) Top(ctx context.Context, board string, n int) ([]Entry, error) {
	zs, err := r.client.ZRevRangeWithScores(ctx, key(board), 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(zs))
	for _, z := range zs {
		user, _ := z.Member.(string)
		entries = append(entries, Entry{UserID: user, Score: int(z.Score)})
	}
	return entries, nil
}

func key(board string) string {
	return "leaderboard:" + board
}
