package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"anime-character-catalog/backend/pkg/resilience"
)

// Guarded routes reads and writes to a remote Store through a circuit breaker
// so a cache outage costs one failed round trip per retry window instead of
// one per request. Misses do not count as failures.
//
// Deletes bypass the breaker. A key whose delete failed is pending: it is
// never served or written until a retried delete succeeds, so an entry that
// outlived its record cannot reappear once the store recovers.
type Guarded struct {
	store   Store
	breaker *resilience.CircuitBreaker

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewGuarded wraps store with breaker.
func NewGuarded(store Store, breaker *resilience.CircuitBreaker) *Guarded {
	return &Guarded{
		store:   store,
		breaker: breaker,
		pending: make(map[string]struct{}),
	}
}

func isMiss(err error) bool {
	return errors.Is(err, ErrMiss)
}

func (g *Guarded) Get(ctx context.Context, key string) ([]byte, error) {
	if g.isPending(key) {
		if err := g.Delete(ctx, key); err != nil {
			return nil, ErrMiss
		}
	}

	var value []byte
	err := g.breaker.Execute(func() error {
		var err error
		value, err = g.store.Get(ctx, key)
		return err
	}, isMiss)
	return value, err
}

func (g *Guarded) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if g.isPending(key) {
		if err := g.Delete(ctx, key); err != nil {
			return err
		}
	}

	return g.breaker.Execute(func() error {
		return g.store.Set(ctx, key, value, ttl)
	})
}

// Delete always reaches the store. On failure the key stays pending until a
// later Delete, Get or Set manages to remove it.
func (g *Guarded) Delete(ctx context.Context, key string) error {
	err := g.store.Delete(ctx, key)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.pending[key] = struct{}{}
		return err
	}
	delete(g.pending, key)
	return nil
}

func (g *Guarded) isPending(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.pending[key]
	return ok
}

// Pending reports how many keys are waiting for a successful delete.
func (g *Guarded) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

// Ping bypasses the breaker so health checks observe the real dependency.
func (g *Guarded) Ping(ctx context.Context) error {
	return g.store.Ping(ctx)
}

// State reports the breaker state for health output.
func (g *Guarded) State() resilience.CircuitBreakerState {
	return g.breaker.GetState()
}
