package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// ErrSessionLocked is returned when another run holds the session lock.
var ErrSessionLocked = errors.New("another tutorial is already running")

const unlockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

// SessionLock keeps a single tutorial running per desktop.
type SessionLock struct {
	client *backend.Client
	key    string
}

// NewSessionLock creates a lock stored under prefix + "lock:session".
func NewSessionLock(client *backend.Client, prefix string) *SessionLock {
	return &SessionLock{client: client, key: prefix + "lock:session"}
}

// Key returns the redis key holding the lock.
func (l *SessionLock) Key() string {
	return l.key
}

// Acquire takes the lock for ttl without waiting. The returned function
// releases it only if it is still held by this caller.
func (l *SessionLock) Acquire(ctx context.Context, owner string, ttl time.Duration) (func(context.Context) error, error) {
	token := owner + "/" + uuid.NewString()

	ok, err := l.client.SetNX(ctx, l.key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error acquiring lock: %w", err)
	}
	if !ok {
		holder, _ := l.client.Get(ctx, l.key).Result()
		return nil, fmt.Errorf("%w (held by %s)", ErrSessionLocked, holder)
	}

	return func(ctx context.Context) error {
		return l.client.Eval(ctx, unlockScript, []string{l.key}, token).Err()
	}, nil
}
