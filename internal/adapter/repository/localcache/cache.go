// Package localcache provides in-process implementations of the cache and
// idempotency ports for single-instance deployments without Redis.
package localcache

import (
	"context"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultCleanupInterval is how often expired items are purged.
const DefaultCleanupInterval = 10 * time.Minute

// Cache implements usecase.Cache on top of go-cache.
type Cache struct {
	items *gocache.Cache
}

// NewCache creates a Cache whose items expire after defaultTTL unless Set
// is given its own ttl.
func NewCache(defaultTTL time.Duration) *Cache {
	return &Cache{items: gocache.New(defaultTTL, DefaultCleanupInterval)}
}

// Get returns a copy of the stored value, or nil on a miss.
func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := c.items.Get(key)
	if !ok {
		return nil, nil
	}
	data := v.([]byte)
	return append([]byte(nil), data...), nil
}

// Set stores a copy of value for ttl.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.items.Set(key, append([]byte(nil), value...), ttl)
	return nil
}

// Delete removes a key.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.items.Delete(key)
	return nil
}

// DeletePrefix removes every key starting with prefix.
func (c *Cache) DeletePrefix(_ context.Context, prefix string) error {
	for key := range c.items.Items() {
		if strings.HasPrefix(key, prefix) {
			c.items.Delete(key)
		}
	}
	return nil
}

// ProcessingMarker is stored under a claimed key until the response is known.
const ProcessingMarker = "processing"

// IdempotencyStore implements usecase.IdempotencyStore in process memory.
type IdempotencyStore struct {
	mu    sync.Mutex
	items *gocache.Cache
}

// NewIdempotencyStore creates an IdempotencyStore.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{items: gocache.New(gocache.NoExpiration, DefaultCleanupInterval)}
}

// CheckAndSet claims key unless it is already held, in which case the
// stored value is returned.
func (s *IdempotencyStore) CheckAndSet(_ context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.items.Get(key); ok {
		return true, append([]byte(nil), v.([]byte)...), nil
	}

	value := response
	if value == nil {
		value = []byte(ProcessingMarker)
	}
	s.items.Set(key, append([]byte(nil), value...), ttl)
	return false, nil, nil
}

// Update stores the final response under key.
func (s *IdempotencyStore) Update(_ context.Context, key string, response []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items.Set(key, append([]byte(nil), response...), ttl)
	return nil
}

// Release drops a claim so the request can be retried.
func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.items.Delete(key)
	return nil
}
