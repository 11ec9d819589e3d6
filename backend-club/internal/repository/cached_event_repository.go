package repository

import (
	"context"
	"time"

	"github.com/gronit/club-portal/backend-club/internal/domain"
	"github.com/gronit/club-portal/pkg/logger"
	pkgredis "github.com/gronit/club-portal/pkg/redis"
	"github.com/gronit/club-portal/pkg/telemetry"
	"go.uber.org/zap"
)

// EventCache stores single events as JSON
type EventCache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// RedisEventCache adapts the shared Redis client to EventCache
type RedisEventCache struct {
	client *pkgredis.Client
}

// NewRedisEventCache creates a new RedisEventCache
func NewRedisEventCache(client *pkgredis.Client) *RedisEventCache {
	return &RedisEventCache{client: client}
}

func (c *RedisEventCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	return c.client.GetJSON(ctx, key, dst)
}

func (c *RedisEventCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.client.SetJSON(ctx, key, value, ttl)
}

func (c *RedisEventCache) Invalidate(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// CachedEventRepository is a read-through cache in front of an EventRepository.
// Only GetByID is cached; registration status is always derived by callers.
// Cache failures are logged and the inner repository is used.
type CachedEventRepository struct {
	inner  EventRepository
	cache  EventCache
	prefix string
	ttl    time.Duration
}

// NewCachedEventRepository creates a new CachedEventRepository
func NewCachedEventRepository(inner EventRepository, cache EventCache, prefix string, ttl time.Duration) *CachedEventRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedEventRepository{inner: inner, cache: cache, prefix: prefix, ttl: ttl}
}

func (r *CachedEventRepository) key(id string) string {
	if r.prefix == "" {
		return pkgredis.Key("event", id)
	}
	return pkgredis.Key(r.prefix, "event", id)
}

// Create creates a new event
func (r *CachedEventRepository) Create(ctx context.Context, event *domain.Event) error {
	return r.inner.Create(ctx, event)
}

// GetByID returns the cached event or loads and caches it
func (r *CachedEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	key := r.key(id)

	var cached domain.Event
	found, err := r.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		logger.WarnCtx(ctx, "event cache read failed", zap.String("key", key), zap.Error(err))
	} else if found {
		telemetry.Metrics().CacheLookups.Inc(ctx, telemetry.OutcomeAttr("hit"))
		return &cached, nil
	}
	telemetry.Metrics().CacheLookups.Inc(ctx, telemetry.OutcomeAttr("miss"))

	event, err := r.inner.GetByID(ctx, id)
	if err != nil || event == nil {
		return event, err
	}

	if err := r.cache.SetJSON(ctx, key, event, r.ttl); err != nil {
		logger.WarnCtx(ctx, "event cache write failed", zap.String("key", key), zap.Error(err))
	}
	return event, nil
}

// List always reads through to the inner repository
func (r *CachedEventRepository) List(ctx context.Context, filter EventFilter) ([]*domain.Event, int, error) {
	return r.inner.List(ctx, filter)
}

// Update updates the event and drops its cache entry
func (r *CachedEventRepository) Update(ctx context.Context, event *domain.Event) error {
	if err := r.inner.Update(ctx, event); err != nil {
		return err
	}
	r.invalidate(ctx, event.ID)
	return nil
}

// Delete deletes the event and drops its cache entry
func (r *CachedEventRepository) Delete(ctx context.Context, id string) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedEventRepository) invalidate(ctx context.Context, id string) {
	key := r.key(id)
	if err := r.cache.Invalidate(ctx, key); err != nil {
		logger.WarnCtx(ctx, "event cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}
