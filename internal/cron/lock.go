package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const defaultLockTTL = 10 * time.Minute

// Lock keeps a cron cycle to one worker instance at a time.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	DelIfValue(ctx context.Context, key, value string) (bool, error)
}

type RedisLockParams struct {
	Client lockStore
	Key    string
	TTL    time.Duration
	// Instance prefixes the owner token so the holder is visible in redis.
	Instance string
}

// RedisLock takes the key with SET NX and a TTL longer than one cycle, and
// releases it only while it still holds its own owner token.
type RedisLock struct {
	client   lockStore
	key      string
	ttl      time.Duration
	instance string
	owner    string
}

func NewRedisLock(params RedisLockParams) (*RedisLock, error) {
	if params.Client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if params.Key == "" {
		return nil, errors.New("lock key is required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	instance := params.Instance
	if instance == "" {
		instance = "local"
	}
	return &RedisLock{client: params.Client, key: params.Key, ttl: ttl, instance: instance}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	owner := l.instance + ":" + uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("take lock %s: %w", l.key, err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

func (l *RedisLock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	if _, err := l.client.DelIfValue(ctx, l.key, l.owner); err != nil {
		return fmt.Errorf("release lock %s: %w", l.key, err)
	}
	l.owner = ""
	return nil
}
