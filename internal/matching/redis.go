// internal/matching/redis.go
// Redis-backed generation lock and batch cursor. The lock guards
// cross-instance duplicate generation; the cursor is server-owned so
// concurrent clients of one user never diverge.

package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// GenerationLock serializes batch generation per (user, day) across instances
type GenerationLock interface {
	Acquire(ctx context.Context, userID int64, batchDate string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, userID int64, batchDate string) error
}

// CursorStore holds the per-(user, day) position over the daily batch
type CursorStore interface {
	Get(ctx context.Context, userID int64, batchDate string) (int, error)
	Advance(ctx context.Context, userID int64, batchDate string) (int, error)
}

type redisLock struct {
	rdb *redis.Client
}

// NewRedisLock creates a Redis-backed generation lock
func NewRedisLock(rdb *redis.Client) GenerationLock {
	return &redisLock{rdb: rdb}
}

func lockKey(userID int64, batchDate string) string {
	return fmt.Sprintf("match:gen:%d:%s", userID, batchDate)
}

func (l *redisLock) Acquire(ctx context.Context, userID int64, batchDate string, ttl time.Duration) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, lockKey(userID, batchDate), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire generation lock: %w", err)
	}
	return ok, nil
}

func (l *redisLock) Release(ctx context.Context, userID int64, batchDate string) error {
	if err := l.rdb.Del(ctx, lockKey(userID, batchDate)).Err(); err != nil {
		return fmt.Errorf("failed to release generation lock: %w", err)
	}
	return nil
}

type redisCursorStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCursorStore creates a Redis-backed cursor store. The TTL should
// outlive the batch so a cursor never resets mid-day.
func NewRedisCursorStore(rdb *redis.Client, ttl time.Duration) CursorStore {
	return &redisCursorStore{rdb: rdb, ttl: ttl}
}

func cursorKey(userID int64, batchDate string) string {
	return fmt.Sprintf("match:cursor:%d:%s", userID, batchDate)
}

// Get returns the current cursor position, zero when none is set
func (c *redisCursorStore) Get(ctx context.Context, userID int64, batchDate string) (int, error) {
	val, err := c.rdb.Get(ctx, cursorKey(userID, batchDate)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read cursor: %w", err)
	}
	return val, nil
}

// Advance moves the cursor forward by one and returns the new position
func (c *redisCursorStore) Advance(ctx context.Context, userID int64, batchDate string) (int, error) {
	key := cursorKey(userID, batchDate)

	val, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to advance cursor: %w", err)
	}

	// First write on a fresh key; keep it from outliving the batch window
	if val == 1 {
		c.rdb.Expire(ctx, key, c.ttl)
	}

	return int(val), nil
}
