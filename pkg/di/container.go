package di

import (
	"context"
	"fmt"
	"time"

	"anime-character-catalog/backend/internal/repository"
	"anime-character-catalog/backend/internal/service"
	"anime-character-catalog/backend/pkg/cache"
	"anime-character-catalog/backend/pkg/config"
	"anime-character-catalog/backend/pkg/health"
	"anime-character-catalog/backend/pkg/logger"
	"anime-character-catalog/backend/pkg/resilience"
	"anime-character-catalog/backend/shared/redis"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	DB               *gorm.DB
	Logger           *logger.Logger
	Config           *config.Config
	Cache            cache.Store
	CharacterService *service.CharacterService
	Health           *health.Checker
	// Metrics is served on /metrics.
	Metrics *prometheus.Registry

	closers []func() error
}

// New wires the services on top of an open database.
func New(db *gorm.DB, cfg *config.Config, log *logger.Logger) (*Container, error) {
	if log == nil {
		log = logger.GetGlobal()
	}

	metrics := prometheus.NewRegistry()

	store, closeStore, err := newCacheStore(cfg, log, metrics)
	if err != nil {
		return nil, err
	}

	characterService := service.NewCharacterService(
		repository.NewGormCharacterRepository(db),
		log,
		service.CharacterServiceConfig{Cache: store, CacheTTL: cfg.Cache.TTL},
	)

	checker := health.NewChecker(log, cfg.Observability.HealthInterval)
	checker.RegisterDatabaseCheck(func(ctx context.Context) error {
		return config.TestConnection(ctx, db)
	})
	if store != nil {
		var state func() string
		if guarded, ok := store.(*cache.Guarded); ok {
			state = func() string { return string(guarded.State()) }
		}
		checker.RegisterCacheCheck(store.Ping, state)
	}

	c := &Container{
		DB:               db,
		Logger:           log,
		Config:           cfg,
		Cache:            store,
		CharacterService: characterService,
		Health:           checker,
		Metrics:          metrics,
	}
	if closeStore != nil {
		c.closers = append(c.closers, closeStore)
	}
	return c, nil
}

const metricsNamespace = "anime_catalog"

// newCacheStore picks Redis when a URL is configured and the in-process
// store otherwise. Redis is guarded by a circuit breaker.
func newCacheStore(cfg *config.Config, log *logger.Logger, reg prometheus.Registerer) (cache.Store, func() error, error) {
	if !cfg.Cache.Enabled {
		return nil, nil, nil
	}

	if cfg.Redis.URL == "" {
		mem := cache.NewMemoryStore(cache.Options{
			CleanupInterval: cfg.Cache.PurgeWindow,
			MaxItems:        cfg.Cache.MaxSize,
		})
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "cache_entries",
			Help:      "Entries held by the in-process character cache.",
		}, func() float64 { return float64(mem.Count()) }))
		return mem, func() error { mem.Close(); return nil }, nil
	}

	client, err := redis.NewRedisClient(redis.Options{
		URL:       cfg.Redis.URL,
		KeyPrefix: cfg.Redis.KeyPrefix,
		Tracing:   cfg.Observability.TracingEnabled,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		// Not fatal: the breaker keeps requests on the database until Redis recovers.
		log.Warn("Redis unreachable at startup", "error", err.Error())
	}

	breakerConfig := resilience.DefaultCircuitBreakerConfig("redis-cache")
	if cfg.Cache.FailureThreshold > 0 {
		breakerConfig.FailureThreshold = uint(cfg.Cache.FailureThreshold)
	}
	if cfg.Cache.RetryTimeout > 0 {
		breakerConfig.RetryTimeout = cfg.Cache.RetryTimeout
	}

	guarded := cache.NewGuarded(client, resilience.NewCircuitBreaker(breakerConfig, log))
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "cache_pending_evictions",
		Help:      "Cache keys withheld from reads until a failed eviction is retried.",
	}, func() float64 { return float64(guarded.Pending()) }))

	return guarded, client.Close, nil
}

// Close releases the cache. The database is owned by the caller.
func (c *Container) Close() error {
	var firstErr error
	for _, closer := range c.closers {
		if err := closer(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
