package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"anime-character-catalog/backend/pkg/logger"
	"anime-character-catalog/backend/pkg/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(Options{})
	defer store.Close()

	_, err := store.Get(ctx, "character:1")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, store.Set(ctx, "character:1", []byte(`{"name":"Ryuk"}`), time.Minute))
	value, err := store.Get(ctx, "character:1")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Ryuk"}`, string(value))

	require.NoError(t, store.Delete(ctx, "character:1"))
	_, err = store.Get(ctx, "character:1")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(Options{})
	defer store.Close()

	require.NoError(t, store.Set(ctx, "short", []byte("x"), time.Nanosecond))
	require.NoError(t, store.Set(ctx, "forever", []byte("y"), 0))
	time.Sleep(time.Millisecond)

	_, err := store.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = store.Get(ctx, "forever")
	assert.NoError(t, err)

	store.deleteExpired()
	assert.Equal(t, 1, store.Count())
}

func TestMemoryStore_EvictsWhenFull(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(Options{MaxItems: 2})
	defer store.Close()

	require.NoError(t, store.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), time.Hour))
	require.NoError(t, store.Set(ctx, "c", []byte("3"), time.Hour))

	assert.Equal(t, 2, store.Count())
	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss, "entry closest to expiry is evicted")
}

type flakyStore struct {
	*MemoryStore
	down       bool
	deleteDown bool
	calls      int
	deletes    int
}

func (f *flakyStore) Delete(ctx context.Context, key string) error {
	f.deletes++
	if f.deleteDown {
		return errUnreachable
	}
	return f.MemoryStore.Delete(ctx, key)
}

var errUnreachable = errors.New("dial tcp: connection refused")

func (f *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	f.calls++
	if f.down {
		return nil, errUnreachable
	}
	return f.MemoryStore.Get(ctx, key)
}

func TestGuarded_OpensOnFailuresButNotOnMisses(t *testing.T) {
	ctx := context.Background()
	inner := &flakyStore{MemoryStore: NewMemoryStore(Options{})}
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:             "cache",
		FailureThreshold: 2,
		RetryTimeout:     time.Hour,
	}, logger.Discard())
	g := NewGuarded(inner, breaker)

	for i := 0; i < 5; i++ {
		_, err := g.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrMiss)
	}
	assert.Equal(t, resilience.StateClosed, g.State())

	inner.down = true
	_, _ = g.Get(ctx, "k")
	_, _ = g.Get(ctx, "k")
	assert.Equal(t, resilience.StateOpen, g.State())

	calls := inner.calls
	_, err := g.Get(ctx, "k")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, calls, inner.calls, "open breaker short-circuits the store")

	assert.NoError(t, g.Ping(ctx))
}

func TestGuarded_DeleteBypassesOpenBreaker(t *testing.T) {
	ctx := context.Background()
	inner := &flakyStore{MemoryStore: NewMemoryStore(Options{})}
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:             "cache",
		FailureThreshold: 1,
		RetryTimeout:     time.Hour,
	}, logger.Discard())
	g := NewGuarded(inner, breaker)

	require.NoError(t, inner.MemoryStore.Set(ctx, "k", []byte("v"), 0))
	inner.down = true
	_, _ = g.Get(ctx, "k")
	require.Equal(t, resilience.StateOpen, g.State())

	require.NoError(t, g.Delete(ctx, "k"))
	assert.Equal(t, 1, inner.deletes)
	_, err := inner.MemoryStore.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestGuarded_PendingKeysAreWithheldUntilDeleted(t *testing.T) {
	ctx := context.Background()
	inner := &flakyStore{MemoryStore: NewMemoryStore(Options{})}
	g := NewGuarded(inner, resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:         "cache",
		RetryTimeout: time.Hour,
	}, logger.Discard()))

	require.NoError(t, g.Set(ctx, "k", []byte("stale"), 0))
	inner.deleteDown = true
	assert.ErrorIs(t, g.Delete(ctx, "k"), errUnreachable)
	assert.Equal(t, 1, g.Pending())

	_, err := g.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss, "a pending key is never served")
	assert.Error(t, g.Set(ctx, "k", []byte("fresh"), 0), "a pending key is not written over")
	assert.Equal(t, 1, g.Pending())

	inner.deleteDown = false
	_, err = g.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
	assert.Equal(t, 0, g.Pending())

	require.NoError(t, g.Set(ctx, "k", []byte("fresh"), 0))
	value, err := g.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(value))
}
