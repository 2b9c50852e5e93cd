package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	stockapp "github.com/tyrefleet/backend/internal/application/stock"
)

const lockKeyPrefix = "lock:"

// RedisRunLock keeps periodic jobs from running on two instances at once
type RedisRunLock struct {
	locker *redislock.Client
}

// NewRedisRunLock creates a run lock backed by redislock
func NewRedisRunLock(client *redis.Client) *RedisRunLock {
	return &RedisRunLock{locker: redislock.New(client)}
}

// Obtain takes the lock without waiting. A lock held elsewhere yields
// stockapp.ErrLockNotObtained.
func (l *RedisRunLock) Obtain(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, error) {
	lock, err := l.locker.Obtain(ctx, lockKeyPrefix+name, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, stockapp.ErrLockNotObtained
	}
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) error {
		err := lock.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			// ttl expired before the job finished
			return nil
		}
		return err
	}, nil
}

var _ stockapp.RunLock = (*RedisRunLock)(nil)
