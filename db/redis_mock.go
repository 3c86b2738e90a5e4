package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MockRedisClient implements LimitedRedisClient in memory.
// Only suitable for tests and local development. Expirations are recorded but never
// enforced, and the value of IntCmd results is the number of keys actually removed.
type MockRedisClient struct {
	mu    sync.Mutex
	store map[string]string
	ttls  map[string]time.Duration
	// failWith makes every command fail with this error when set.
	failWith error
}

func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{store: map[string]string{}, ttls: map[string]time.Duration{}}
}

// FailWith makes every subsequent command return err. Pass nil to recover.
func (m *MockRedisClient) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

func (m *MockRedisClient) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := redis.StringCmd{}
	if m.failWith != nil {
		res.SetErr(m.failWith)
		return &res
	}
	val, found := m.store[key]
	if !found {
		res.SetErr(redis.Nil)
		return &res
	}
	res.SetVal(val)
	return &res
}

func (m *MockRedisClient) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := redis.StatusCmd{}
	if m.failWith != nil {
		res.SetErr(m.failWith)
		return &res
	}
	m.store[key] = fmt.Sprint(value)
	m.ttls[key] = expiration
	res.SetVal("OK")
	return &res
}

func (m *MockRedisClient) Del(_ context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := redis.IntCmd{}
	if m.failWith != nil {
		res.SetErr(m.failWith)
		return &res
	}
	var removed int64
	for _, k := range keys {
		if _, found := m.store[k]; found {
			delete(m.store, k)
			delete(m.ttls, k)
			removed++
		}
	}
	res.SetVal(removed)
	return &res
}

func (m *MockRedisClient) Ping(_ context.Context) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := redis.StatusCmd{}
	if m.failWith != nil {
		res.SetErr(m.failWith)
		return &res
	}
	res.SetVal("PONG")
	return &res
}

// Keys returns the raw keys currently stored, prefix included.
func (m *MockRedisClient) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.store))
	for k := range m.store {
		keys = append(keys, k)
	}
	return keys
}

// TTL returns the expiration passed with the last SET of key. Zero means none.
func (m *MockRedisClient) TTL(key string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ttls[key]
}
