package checkpoint

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces checkpoint keys in Redis.
const DefaultRedisPrefix = "mailmerge:checkpoint:"

var (
	// ErrInvalidRedisURL indicates a missing or malformed redis:// URL.
	ErrInvalidRedisURL = errors.New("checkpoint: invalid redis URL")

	// ErrRedisUnavailable indicates the Redis server did not answer PING.
	ErrRedisUnavailable = errors.New("checkpoint: redis unavailable")
)

// RedisOption configures a RedisStore.
type RedisOption func(*redisOptions)

type redisOptions struct {
	prefix        string
	ttl           time.Duration
	retryAttempts int
	retryInterval time.Duration
	dialTimeout   time.Duration
}

// WithPrefix sets the key prefix. Default: "mailmerge:checkpoint:"
func WithPrefix(prefix string) RedisOption {
	return func(o *redisOptions) {
		o.prefix = prefix
	}
}

// WithTTL expires checkpoints that are not updated for d. Default: 30 days.
func WithTTL(d time.Duration) RedisOption {
	return func(o *redisOptions) {
		o.ttl = d
	}
}

// WithRetry configures connection retry behavior.
// Default: 3 attempts, 2 second base interval with linear backoff.
func WithRetry(attempts int, interval time.Duration) RedisOption {
	return func(o *redisOptions) {
		o.retryAttempts = attempts
		o.retryInterval = interval
	}
}

// RedisStore keeps checkpoints in Redis.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to url (redis:// or rediss://) and returns a store.
// The caller owns the connection and must call Close.
func NewRedisStore(ctx context.Context, url string, opts ...RedisOption) (*RedisStore, error) {
	if !strings.HasPrefix(url, "redis://") && !strings.HasPrefix(url, "rediss://") {
		return nil, ErrInvalidRedisURL
	}

	o := &redisOptions{
		prefix:        DefaultRedisPrefix,
		ttl:           30 * 24 * time.Hour,
		retryAttempts: 3,
		retryInterval: 2 * time.Second,
		dialTimeout:   5 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}

	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Join(ErrInvalidRedisURL, err)
	}
	redisOpts.DialTimeout = o.dialTimeout
	redisOpts.PoolSize = 2 // one campaign goroutine writes

	client, err := connect(ctx, redisOpts, o.retryAttempts, o.retryInterval)
	if err != nil {
		return nil, err
	}
	return NewRedisStoreFromClient(client, opts...), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	o := &redisOptions{prefix: DefaultRedisPrefix, ttl: 30 * 24 * time.Hour}
	for _, opt := range opts {
		opt(o)
	}
	return &RedisStore{client: client, prefix: o.prefix, ttl: o.ttl}
}

// connect pings with retry and linear backoff.
func connect(ctx context.Context, opts *redis.Options, attempts int, interval time.Duration) (redis.UniversalClient, error) {
	var lastErr error
	for i := range max(attempts, 1) {
		client := redis.NewClient(opts)
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisUnavailable, ctx.Err())
		case <-time.After(time.Duration(i+1) * interval):
		}
	}
	return nil, errors.Join(ErrRedisUnavailable, lastErr)
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, key string) (int, error) {
	if key == "" {
		return 0, ErrInvalidKey
	}
	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Join(ErrStoreFailed, err)
	}
	return parseIndex(val)
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, key string, next int) error {
	if key == "" {
		return ErrInvalidKey
	}
	if next < 0 {
		return ErrCorrupt
	}
	if err := s.client.Set(ctx, s.prefix+key, next, s.ttl).Err(); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

// Clear implements Store.
func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

// Check pings Redis. It matches the health check signature.
func (s *RedisStore) Check(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return errors.Join(ErrRedisUnavailable, err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
