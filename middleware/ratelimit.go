package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// IPRateLimiter is a sliding-window limiter held in process memory.
type IPRateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
	swept    time.Time
}

func NewIPRateLimiter(limit int, window time.Duration) *IPRateLimiter {
	return &IPRateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// prune drops timestamps at or before cutoff.
func prune(requests []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(requests); i++ {
		if requests[i].After(cutoff) {
			break
		}
	}
	return requests[i:]
}

// sweep forgets clients with no request inside the window. It runs at most
// once per window.
func (rl *IPRateLimiter) sweep(now, cutoff time.Time) {
	if now.Sub(rl.swept) < rl.window {
		return
	}
	rl.swept = now
	for ip, requests := range rl.requests {
		if len(prune(requests, cutoff)) == 0 {
			delete(rl.requests, ip)
		}
	}
}

func (rl *IPRateLimiter) Allow(_ context.Context, ip string) (bool, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)
	rl.sweep(now, cutoff)

	requests := prune(rl.requests[ip], cutoff)

	if len(requests) >= rl.limit {
		rl.requests[ip] = requests
		return false, nil
	}

	rl.requests[ip] = append(requests, now)
	return true, nil
}

// RedisRateLimiter counts requests per fixed window in Redis so the limit
// holds across several API processes.
type RedisRateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, limit: limit, window: window, now: time.Now}
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, ip string) (bool, error) {
	bucket := rl.now().UnixNano() / int64(rl.window)
	key := fmt.Sprintf("ratelimit:%s:%d", ip, bucket)

	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, err
	}
	return incr.Val() <= int64(rl.limit), nil
}

func RateLimit(limiter Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			// Fail open: a limiter outage must not take the API down.
			logrus.WithError(err).Warn("Rate limiter unavailable")
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests"})
			return
		}
		c.Next()
	}
}
