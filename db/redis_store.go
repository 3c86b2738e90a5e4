package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const defaultKeyPrefix = "meterctl:"

// RedisStore keeps the admin session in Redis, which lets several operators'
// processes on one host or a shared jump box reuse a single session. It implements
// auth.Store.
type RedisStore struct {
	rdb       LimitedRedisClient
	keyPrefix string
	ttl       time.Duration
}

type RedisStoreOption func(s *RedisStore)

// WithKeyPrefix namespaces every key. The default is "meterctl:".
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		s.keyPrefix = prefix
	}
}

// WithTTL expires stored values after ttl. Zero keeps them until removed.
func WithTTL(ttl time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// RedisConfig holds the connection settings for NewRedisStore.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore connects to Redis and checks the connection with a PING.
func NewRedisStore(ctx context.Context, cfg RedisConfig, options ...RedisStoreOption) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	log.Debug().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("Connected to redis")
	return NewRedisStoreWithClient(rdb, options...), nil
}

// NewRedisStoreWithClient builds a RedisStore over an existing client.
func NewRedisStoreWithClient(rdb LimitedRedisClient, options ...RedisStoreOption) *RedisStore {
	s := &RedisStore{rdb: rdb, keyPrefix: defaultKeyPrefix}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// NewMockRedisStore builds a RedisStore over an in-memory client. Nothing leaves
// the process.
func NewMockRedisStore(options ...RedisStoreOption) *RedisStore {
	return NewRedisStoreWithClient(NewMockRedisClient(), options...)
}

func (s *RedisStore) key(key string) string {
	return s.keyPrefix + key
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s from redis: %w", key, err)
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s in redis: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete %s from redis: %w", key, err)
	}
	return nil
}

// Close releases the underlying connection pool, if the client has one.
func (s *RedisStore) Close() error {
	if c, ok := s.rdb.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
