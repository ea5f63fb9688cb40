package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anime-character-catalog/backend/pkg/cache"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// Options configures the redis connection.
type Options struct {
	// URL is either a redis:// URL or a bare host:port address.
	URL       string
	KeyPrefix string
	Tracing   bool
}

// RedisClient implements cache.Store on top of go-redis.
type RedisClient struct {
	client *redis.Client
	prefix string
}

var _ cache.Store = (*RedisClient)(nil)

func NewRedisClient(opts Options) (*RedisClient, error) {
	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		redisOpts = &redis.Options{Addr: opts.URL}
	}
	client := redis.NewClient(redisOpts)

	if opts.Tracing {
		err := redisotel.InstrumentTracing(client,
			redisotel.WithAttributes(attribute.String("db.name", "redis")),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
		}
	}

	return &RedisClient{client: client, prefix: opts.KeyPrefix}, nil
}

func (r *RedisClient) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cache.ErrMiss
	}
	return value, err
}

func (r *RedisClient) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	return r.client.Set(ctx, r.prefix+key, value, expiration).Err()
}

func (r *RedisClient) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
