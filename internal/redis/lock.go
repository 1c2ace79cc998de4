package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("booking lock not acquired")
)

// Locker is used by the appointment service to serialize bookings for one
// trainer on one day.
type Locker interface {
	WithTrainerDayLock(ctx context.Context, trainerID uuid.UUID, date time.Time, fn func(ctx context.Context) error) error
}

type redisTrainerDayLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLocker creates a locker that uses a per trainer/day Redis key
func NewRedisLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisTrainerDayLocker{
		client: client,
		ttl:    ttl,
	}
}

// NopLocker runs fn without taking a lock. It suits processes that never
// book, such as the sweeper, whose status updates are conditional in storage.
type NopLocker struct{}

func (NopLocker) WithTrainerDayLock(ctx context.Context, _ uuid.UUID, _ time.Time, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// LockKey is the Redis key guarding bookings of trainerID on date.
func LockKey(trainerID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("lock:trainer:%s:%s", trainerID.String(), date.Format(time.DateOnly))
}

func (l *redisTrainerDayLocker) WithTrainerDayLock(ctx context.Context, trainerID uuid.UUID, date time.Time, fn func(ctx context.Context) error) error {
	key := LockKey(trainerID, date)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire booking lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(context.WithoutCancel(ctx), key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisTrainerDayLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release booking lock: %w", err)
	}
	return nil
}
