package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var ErrLockNotAcquired = errors.New("lock: not acquired")

// unlockScript releases the lock only if the caller still holds it, so a
// lock that expired and was regrabbed by another holder is never released
// by the original owner.
const unlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`

// DistributedLock is a single-instance Redis lock with an owner token.
type DistributedLock struct {
	client *redis.Client
	key    string
	value  string
	ttl    time.Duration
}

func NewDistributedLock(client *redis.Client, key string, ttl time.Duration) *DistributedLock {
	return &DistributedLock{
		client: client,
		key:    key,
		value:  uuid.NewString(),
		ttl:    ttl,
	}
}

// TryLock attempts to acquire the lock once, without blocking.
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.value, l.ttl).Result()
}

// Lock blocks until the lock is acquired or ctx is done.
func (l *DistributedLock) Lock(ctx context.Context) error {
	for {
		ok, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// Unlock releases the lock if this instance still owns it.
func (l *DistributedLock) Unlock(ctx context.Context) error {
	res, err := l.client.Eval(ctx, unlockScript, []string{l.key}, l.value).Result()
	if err != nil {
		return err
	}
	if n, ok := res.(int64); !ok || n == 0 {
		return ErrLockNotAcquired
	}
	return nil
}

// UserLocker hands out per-user locks so that balance-mutating operations
// for the same user are serialized across instances.
type UserLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewUserLocker(client *redis.Client, ttl time.Duration) *UserLocker {
	return &UserLocker{client: client, ttl: ttl}
}

// LockUser acquires the lock for userID and returns the unlock func.
func (ul *UserLocker) LockUser(ctx context.Context, userID int64) (func(), error) {
	l := NewDistributedLock(ul.client, fmt.Sprintf("mining:lock:user:%d", userID), ul.ttl)
	if err := l.Lock(ctx); err != nil {
		return nil, err
	}
	return func() {
		unlockCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = l.Unlock(unlockCtx)
	}, nil
}
