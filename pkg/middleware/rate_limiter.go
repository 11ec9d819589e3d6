package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gronit/club-portal/pkg/config"
	"github.com/gronit/club-portal/pkg/logger"
	pkgredis "github.com/gronit/club-portal/pkg/redis"
	"github.com/gronit/club-portal/pkg/response"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Rate limit per second per client IP
	RequestsPerSecond int
	// Token bucket capacity
	BurstSize int
	// Redis client for the distributed limiter; nil selects the local one
	RedisClient *pkgredis.Client
	KeyPrefix   string
	// Cleanup interval and idle TTL for local buckets
	CleanupInterval time.Duration
	EntryTTL        time.Duration
}

// DefaultRateLimitConfig returns defaults suited to the public read endpoints
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 20,
		BurstSize:         40,
		KeyPrefix:         "club:ratelimit:",
		CleanupInterval:   time.Minute,
		EntryTTL:          time.Minute,
	}
}

// RateLimitConfigFrom maps application config; rc is only used when the
// distributed limiter is enabled.
func RateLimitConfigFrom(c config.RateLimitConfig, rc *pkgredis.Client) RateLimitConfig {
	cfg := DefaultRateLimitConfig()
	if c.RequestsPerSecond > 0 {
		cfg.RequestsPerSecond = c.RequestsPerSecond
	}
	if c.BurstSize > 0 {
		cfg.BurstSize = c.BurstSize
	}
	if c.Distributed {
		cfg.RedisClient = rc
	}
	return cfg
}

type rateLimitEntry struct {
	tokens     float64
	lastUpdate time.Time
	mu         sync.Mutex
}

// LocalRateLimiter implements in-memory token bucket rate limiting
type LocalRateLimiter struct {
	config  RateLimitConfig
	entries sync.Map
	stop    chan struct{}
	once    sync.Once
	now     func() time.Time

	allowed  atomic.Uint64
	rejected atomic.Uint64
}

// NewLocalRateLimiter creates a local limiter and starts its cleanup loop
func NewLocalRateLimiter(config RateLimitConfig) *LocalRateLimiter {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Minute
	}
	if config.EntryTTL <= 0 {
		config.EntryTTL = time.Minute
	}
	rl := &LocalRateLimiter{
		config: config,
		stop:   make(chan struct{}),
		now:    time.Now,
	}

	go rl.cleanup()

	return rl
}

// Allow takes one token from key's bucket
func (rl *LocalRateLimiter) Allow(key string) bool {
	now := rl.now()

	entry, _ := rl.entries.LoadOrStore(key, &rateLimitEntry{
		tokens:     float64(rl.config.BurstSize),
		lastUpdate: now,
	})
	e := entry.(*rateLimitEntry)

	e.mu.Lock()
	defer e.mu.Unlock()

	elapsed := now.Sub(e.lastUpdate).Seconds()
	e.tokens = min(float64(rl.config.BurstSize), e.tokens+elapsed*float64(rl.config.RequestsPerSecond))
	e.lastUpdate = now

	if e.tokens >= 1 {
		e.tokens--
		rl.allowed.Add(1)
		return true
	}

	rl.rejected.Add(1)
	return false
}

// Stats returns how many requests were allowed and rejected so far
func (rl *LocalRateLimiter) Stats() (allowed, rejected uint64) {
	return rl.allowed.Load(), rl.rejected.Load()
}

func (rl *LocalRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle(rl.now().Add(-rl.config.EntryTTL))
		case <-rl.stop:
			return
		}
	}
}

func (rl *LocalRateLimiter) evictIdle(cutoff time.Time) {
	rl.entries.Range(func(key, value any) bool {
		e := value.(*rateLimitEntry)
		e.mu.Lock()
		if e.lastUpdate.Before(cutoff) {
			rl.entries.Delete(key)
		}
		e.mu.Unlock()
		return true
	})
}

// Stop stops the cleanup goroutine
func (rl *LocalRateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

const tokenBucketScriptName = "token_bucket"

const tokenBucketScript = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local data = redis.call("HMGET", key, "tokens", "last_update")
local tokens = tonumber(data[1]) or burst
local last_update = tonumber(data[2]) or now

local elapsed = math.max(0, now - last_update)
tokens = math.min(burst, tokens + elapsed * rate)

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end

redis.call("HSET", key, "tokens", tokens, "last_update", now)
redis.call("EXPIRE", key, 60)
return {allowed, math.floor(tokens)}
`

// RedisRateLimiter implements a token bucket shared by every replica
type RedisRateLimiter struct {
	config RateLimitConfig
}

// NewRedisRateLimiter loads the token bucket script into Redis
func NewRedisRateLimiter(ctx context.Context, config RateLimitConfig) (*RedisRateLimiter, error) {
	if config.RedisClient == nil {
		return nil, fmt.Errorf("redis rate limiter: client is nil")
	}
	if _, err := config.RedisClient.LoadScript(ctx, tokenBucketScriptName, tokenBucketScript); err != nil {
		return nil, err
	}
	return &RedisRateLimiter{config: config}, nil
}

// Allow takes one token from key's bucket and returns the tokens left
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	now := float64(time.Now().UnixNano()) / 1e9

	values, err := rl.config.RedisClient.EvalShaByName(ctx, tokenBucketScriptName,
		[]string{rl.config.KeyPrefix + key},
		rl.config.RequestsPerSecond,
		rl.config.BurstSize,
		now,
	).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(values) < 2 {
		return false, 0, fmt.Errorf("unexpected token bucket result length %d", len(values))
	}

	return values[0] == 1, int(values[1]), nil
}

// RateLimiter limits requests per client IP. The Redis limiter fails open;
// when its script cannot be loaded the local limiter is used instead.
func RateLimiter(config RateLimitConfig) gin.HandlerFunc {
	var localLimiter *LocalRateLimiter
	var redisLimiter *RedisRateLimiter

	if config.RedisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		var err error
		redisLimiter, err = NewRedisRateLimiter(ctx, config)
		cancel()
		if err != nil {
			logger.Warn("distributed rate limiter unavailable, using local limiter", zap.Error(err))
			redisLimiter = nil
		}
	}
	if redisLimiter == nil {
		localLimiter = NewLocalRateLimiter(config)
	}

	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		allowed := true
		remaining := config.BurstSize - 1

		if redisLimiter != nil {
			ok, left, err := redisLimiter.Allow(c.Request.Context(), clientIP)
			if err != nil {
				logger.WarnCtx(c.Request.Context(), "rate limiter error, allowing request", zap.Error(err))
			} else {
				allowed, remaining = ok, left
			}
		} else {
			allowed = localLimiter.Allow(clientIP)
		}

		if !allowed {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerSecond))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				response.TooManyRequests("Rate limit exceeded. Please retry after 1 second."))
			return
		}

		c.Next()
	}
}

// SlotLimiter hands out a fixed number of in-flight slots
type SlotLimiter struct {
	slots chan struct{}
}

func NewSlotLimiter(n int64) *SlotLimiter {
	if n < 1 {
		n = 1
	}
	return &SlotLimiter{slots: make(chan struct{}, n)}
}

// TryAcquire takes a slot without blocking
func (s *SlotLimiter) TryAcquire() bool {
	select {
	case s.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release returns a slot; releasing with none held is a no-op
func (s *SlotLimiter) Release() {
	select {
	case <-s.slots:
	default:
	}
}

func (s *SlotLimiter) InUse() int {
	return len(s.slots)
}

// ConcurrencyLimiter bounds concurrent requests in a route group
func ConcurrencyLimiter(maxConcurrent int64) gin.HandlerFunc {
	limiter := NewSlotLimiter(maxConcurrent)

	return func(c *gin.Context) {
		if !limiter.TryAcquire() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				response.TooManyRequests("Server is busy processing uploads. Please retry in a moment."))
			return
		}
		defer limiter.Release()

		c.Next()
	}
}
