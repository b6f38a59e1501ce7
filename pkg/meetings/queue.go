package meetings

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RetryQueue schedules provisioning retries for meetings whose remote call
// setup did not complete.
type RetryQueue interface {
	// Enqueue schedules a retry for the meeting no earlier than notBefore,
	// recording the attempt count.
	Enqueue(ctx context.Context, meetingID string, attempt int, notBefore time.Time) error

	// Due returns up to limit meetings whose retry time has arrived.
	Due(ctx context.Context, now time.Time, limit int) ([]RetryEntry, error)

	// Remove drops a meeting from the queue after a terminal outcome.
	Remove(ctx context.Context, meetingID string) error
}

// RetryEntry is one scheduled provisioning retry.
type RetryEntry struct {
	MeetingID string
	Attempt   int
}

// Redis keys for the retry queue.
const (
	keyRetrySchedule = "provision:retry"          // sorted set, score = notBefore unix
	keyRetryAttempts = "provision:retry:attempts" // hash, meeting id -> attempt count
)

// RedisRetryQueue implements RetryQueue using a Redis sorted set scored by the
// next attempt time, with attempt counts in a companion hash.
type RedisRetryQueue struct {
	client *redis.Client
}

// NewRedisRetryQueue creates a Redis-backed retry queue.
func NewRedisRetryQueue(client *redis.Client) *RedisRetryQueue {
	return &RedisRetryQueue{client: client}
}

// Enqueue schedules a retry for the meeting.
func (q *RedisRetryQueue) Enqueue(ctx context.Context, meetingID string, attempt int, notBefore time.Time) error {
	pipe := q.client.TxPipeline()
	pipe.ZAdd(ctx, keyRetrySchedule, redis.Z{
		Score:  float64(notBefore.Unix()),
		Member: meetingID,
	})
	pipe.HSet(ctx, keyRetryAttempts, meetingID, attempt)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to enqueue provisioning retry: %w", err)
	}
	return nil
}

// Due returns meetings whose scheduled retry time has passed.
func (q *RedisRetryQueue) Due(ctx context.Context, now time.Time, limit int) ([]RetryEntry, error) {
	ids, err := q.client.ZRangeByScore(ctx, keyRetrySchedule, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read retry queue: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	attempts, err := q.client.HMGet(ctx, keyRetryAttempts, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read retry attempts: %w", err)
	}

	entries := make([]RetryEntry, 0, len(ids))
	for i, id := range ids {
		attempt := 0
		if s, ok := attempts[i].(string); ok {
			if n, err := strconv.Atoi(s); err == nil {
				attempt = n
			}
		}
		entries = append(entries, RetryEntry{MeetingID: id, Attempt: attempt})
	}
	return entries, nil
}

// Remove drops a meeting from the queue.
func (q *RedisRetryQueue) Remove(ctx context.Context, meetingID string) error {
	pipe := q.client.TxPipeline()
	pipe.ZRem(ctx, keyRetrySchedule, meetingID)
	pipe.HDel(ctx, keyRetryAttempts, meetingID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove provisioning retry: %w", err)
	}
	return nil
}
