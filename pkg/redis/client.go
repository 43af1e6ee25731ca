package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clodamigoles/dossiers.vevo/pkg/config"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
)

const (
	keyNamespace      = "vevo"
	idempotencyPrefix = "idempotency"
	rateLimitPrefix   = "rate_limit"
	lockPrefix        = "lock"

	// IdempotencyPending marks a key whose first request has not finished yet.
	IdempotencyPending = "__pending__"
)

var errNotInitialized = errors.New("redis client not initialized")

// deleteIfValueScript removes KEYS[1] only while it still holds ARGV[1].
const deleteIfValueScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) end return 0`

// fixedWindowScript increments the counter and starts the window on the first hit,
// returning {count, remaining ttl in ms} in one round trip.
const fixedWindowScript = `local n = redis.call("INCR", KEYS[1])
if n == 1 then redis.call("PEXPIRE", KEYS[1], ARGV[1]) end
return {n, redis.call("PTTL", KEYS[1])}`

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	SetXX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Eval(context.Context, string, []string, ...any) *redis.Cmd
}

// Client serves the auth rate limiter, the idempotency middleware and the cron lock.
type Client struct {
	store cmdable
	raw   *redis.Client
}

// Window is the outcome of one fixed-window rate check.
type Window struct {
	Allowed    bool
	Count      int64
	RetryAfter time.Duration
}

// Reservation is the outcome of claiming an idempotency key. When Acquired is
// false, Stored holds the previous response or IdempotencyPending.
type Reservation struct {
	Acquired bool
	Stored   string
}

// IdempotencyStore is the surface used by the idempotency middleware.
type IdempotencyStore interface {
	IdempotencyKey(scope, id string) string
	ReserveIdempotency(ctx context.Context, key string, ttl time.Duration) (Reservation, error)
	CompleteIdempotency(ctx context.Context, key, payload string, ttl time.Duration) error
	AbandonIdempotency(ctx context.Context, key string) error
}

// New bootstraps a Redis client with pooling/timeouts and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "redis_db", opts.DB), "redis connection established")
	}
	return &Client{store: raw, raw: raw}, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	opts := &redis.Options{Addr: cfg.Address, Password: cfg.Password, DB: cfg.DB}
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
		if opts.DB == 0 {
			opts.DB = cfg.DB
		}
	}
	// explicit settings fill whatever the URL left unset
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.MinIdleConns == 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

// FixedWindowAllow counts one hit against scope and reports whether it stays within limit.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (Window, error) {
	if c.store == nil {
		return Window{}, errNotInitialized
	}
	if window <= 0 {
		return Window{}, fmt.Errorf("rate limit window must be positive")
	}
	values, err := c.store.Eval(ctx, fixedWindowScript, []string{c.RateLimitKey(scope)}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Window{}, fmt.Errorf("rate window %s: %w", scope, err)
	}
	if len(values) != 2 {
		return Window{}, fmt.Errorf("rate window %s: unexpected reply %v", scope, values)
	}
	result := Window{Allowed: values[0] <= limit, Count: values[0]}
	if values[1] > 0 {
		result.RetryAfter = time.Duration(values[1]) * time.Millisecond
	} else {
		result.RetryAfter = window
	}
	return result, nil
}

// ReserveIdempotency claims key with a pending marker. A key that already exists
// is returned as stored so the caller can replay or refuse it.
func (c *Client) ReserveIdempotency(ctx context.Context, key string, ttl time.Duration) (Reservation, error) {
	if c.store == nil {
		return Reservation{}, errNotInitialized
	}
	acquired, err := c.store.SetNX(ctx, key, IdempotencyPending, ttl).Result()
	if err != nil {
		return Reservation{}, fmt.Errorf("reserve %s: %w", key, err)
	}
	if acquired {
		return Reservation{Acquired: true}, nil
	}
	stored, err := c.store.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// expired between the two calls; treat as free
		return c.ReserveIdempotency(ctx, key, ttl)
	}
	if err != nil {
		return Reservation{}, fmt.Errorf("read %s: %w", key, err)
	}
	return Reservation{Stored: stored}, nil
}

// CompleteIdempotency replaces the pending marker with the recorded response.
func (c *Client) CompleteIdempotency(ctx context.Context, key, payload string, ttl time.Duration) error {
	if c.store == nil {
		return errNotInitialized
	}
	ok, err := c.store.SetXX(ctx, key, payload, ttl).Result()
	if err != nil {
		return fmt.Errorf("complete %s: %w", key, err)
	}
	if !ok {
		return fmt.Errorf("complete %s: reservation expired", key)
	}
	return nil
}

// AbandonIdempotency frees a reservation that never produced a storable response.
func (c *Client) AbandonIdempotency(ctx context.Context, key string) error {
	_, err := c.DelIfValue(ctx, key, IdempotencyPending)
	return err
}

// SetNX sets a value only if the key does not exist yet.
func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if c.store == nil {
		return false, errNotInitialized
	}
	return c.store.SetNX(ctx, key, value, ttl).Result()
}

// DelIfValue removes key only when it still stores value. It reports whether the key was removed.
func (c *Client) DelIfValue(ctx context.Context, key, value string) (bool, error) {
	if c.store == nil {
		return false, errNotInitialized
	}
	removed, err := c.store.Eval(ctx, deleteIfValueScript, []string{key}, value).Int64()
	if err != nil {
		return false, err
	}
	return removed == 1, nil
}

func (c *Client) IdempotencyKey(scope, id string) string {
	return c.buildKey(idempotencyPrefix, scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return c.buildKey(rateLimitPrefix, scope)
}

func (c *Client) LockKey(name string) string {
	return c.buildKey(lockPrefix, name)
}

func (c *Client) Ping(ctx context.Context) error {
	if c.store == nil {
		return errNotInitialized
	}
	return c.store.Ping(ctx).Err()
}

// Close shuts down the underlying client if available.
func (c *Client) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

func (c *Client) buildKey(parts ...string) string {
	clean := []string{keyNamespace}
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			clean = append(clean, part)
		}
	}
	return strings.Join(clean, ":")
}
