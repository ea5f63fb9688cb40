package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrMiss is returned by Store.Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is a byte-oriented key/value cache with per-entry expiration.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// Item represents a cached item with expiration
type Item struct {
	Value      []byte
	Expiration int64
}

// Expired checks if the cache item has expired
func (item Item) Expired() bool {
	if item.Expiration == 0 {
		return false
	}
	return time.Now().UnixNano() > item.Expiration
}

// Options configures a MemoryStore.
type Options struct {
	// CleanupInterval is how often expired items are purged; zero disables the janitor.
	CleanupInterval time.Duration
	// MaxItems bounds the store; zero means unbounded.
	MaxItems int
}

// MemoryStore is a thread-safe in-process Store.
type MemoryStore struct {
	items    map[string]Item
	mu       sync.RWMutex
	maxItems int
	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates a store and starts its cleanup goroutine if configured.
func NewMemoryStore(opts Options) *MemoryStore {
	store := &MemoryStore{
		items:    make(map[string]Item),
		maxItems: opts.MaxItems,
		stop:     make(chan struct{}),
	}

	if opts.CleanupInterval > 0 {
		go store.startCleanupTimer(opts.CleanupInterval)
	}

	return store
}

// Get retrieves an item from the cache
func (c *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, found := c.items[key]
	if !found || item.Expired() {
		return nil, ErrMiss
	}
	return item.Value, nil
}

// Set adds an item to the cache; a non-positive ttl never expires.
func (c *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var exp int64
	if ttl > 0 {
		exp = time.Now().Add(ttl).UnixNano()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.maxItems > 0 && len(c.items) >= c.maxItems {
		c.evictOldest()
	}

	c.items[key] = Item{
		Value:      value,
		Expiration: exp,
	}
	return nil
}

// Delete removes an item from the cache
func (c *MemoryStore) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	return nil
}

// Ping always succeeds for the in-process store.
func (c *MemoryStore) Ping(context.Context) error {
	return nil
}

// Count returns the number of items in the cache (including expired items)
func (c *MemoryStore) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Close stops the cleanup goroutine.
func (c *MemoryStore) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *MemoryStore) startCleanupTimer(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *MemoryStore) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixNano()
	for k, v := range c.items {
		if v.Expiration > 0 && now > v.Expiration {
			delete(c.items, k)
		}
	}
}

// evictOldest removes the entry closest to expiry; entries without expiry go last.
func (c *MemoryStore) evictOldest() {
	var oldestKey string
	var oldestExp int64
	found := false

	for k, v := range c.items {
		exp := v.Expiration
		if exp == 0 {
			exp = int64(^uint64(0) >> 1)
		}
		if !found || exp < oldestExp {
			oldestKey, oldestExp, found = k, exp, true
		}
	}

	if found {
		delete(c.items, oldestKey)
	}
}
