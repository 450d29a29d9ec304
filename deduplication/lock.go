package deduplication

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLockHeld means another run owns the lock.
var ErrLockHeld = errors.New("run lock is held by another run")

// Lock is a held run lock.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker hands out the run-level mutual exclusion marker. The lock expires
// after ttl so a crashed run cannot block later ones forever.
type Locker interface {
	Acquire(ctx context.Context, holder string, ttl time.Duration) (Lock, error)
}

type lockFunc func(ctx context.Context) error

func (f lockFunc) Release(ctx context.Context) error { return f(ctx) }

// RedisLocker uses SET NX PX with a holder token.
type RedisLocker struct {
	client *redis.Client
	key    string
}

// releaseScript deletes the key only if we still hold it.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

func NewRedisLocker(client *redis.Client, prefix string) *RedisLocker {
	return &RedisLocker{client: client, key: prefix + "run:lock"}
}

func (l *RedisLocker) Acquire(ctx context.Context, holder string, ttl time.Duration) (Lock, error) {
	ok, err := l.client.SetNX(ctx, l.key, holder, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return lockFunc(func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.client, []string{l.key}, holder).Err()
	}), nil
}

// MemoryLocker is a process-local Locker.
type MemoryLocker struct {
	mu      sync.Mutex
	holder  string
	expires time.Time
	now     func() time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{now: time.Now}
}

func (l *MemoryLocker) Acquire(_ context.Context, holder string, ttl time.Duration) (Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if l.holder != "" && now.Before(l.expires) {
		return nil, ErrLockHeld
	}
	l.holder, l.expires = holder, now.Add(ttl)

	return lockFunc(func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.holder == holder {
			l.holder = ""
		}
		return nil
	}), nil
}
