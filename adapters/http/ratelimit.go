package http

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/khoahotran/academic-records/pkg/apperror"
	"github.com/khoahotran/academic-records/pkg/logger"
)

const rateLimitKeyPrefix = "ratelimit:"

// RateLimiter is a fixed-window counter per client key kept in Redis, so the
// limit holds across every API replica.
type RateLimiter struct {
	rdb    redis.Cmdable
	limit  int
	window time.Duration
	logger logger.Logger
}

func NewRateLimiter(rdb redis.Cmdable, limit int, window time.Duration, log logger.Logger) *RateLimiter {
	return &RateLimiter{rdb: rdb, limit: limit, window: window, logger: log}
}

// Allow counts one hit for key and reports whether it is within the limit,
// how many hits remain and when the window resets.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, int, time.Duration, error) {
	k := rateLimitKeyPrefix + key
	count, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return true, l.limit, 0, fmt.Errorf("rate limit incr: %w", err)
	}

	ttl, err := l.rdb.PTTL(ctx, k).Result()
	if err != nil {
		return true, l.limit, 0, fmt.Errorf("rate limit ttl: %w", err)
	}
	// A negative ttl means the window was never armed, either because this
	// is the first hit or a previous EXPIRE was lost.
	if ttl < 0 {
		if err := l.rdb.PExpire(ctx, k, l.window).Err(); err != nil {
			return true, l.limit, 0, fmt.Errorf("rate limit expire: %w", err)
		}
		ttl = l.window
	}

	remaining := l.limit - int(count)
	return remaining >= 0, max(remaining, 0), ttl, nil
}

// Middleware fails open when Redis is unavailable.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, remaining, reset, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			l.logger.Warn("Rate limiter unavailable, allowing request", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(l.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(reset.Seconds()))))
			c.Error(apperror.NewTooManyRequests(fmt.Sprintf("limit of %d requests per %s exceeded", l.limit, l.window)))
			c.Abort()
			return
		}
		c.Next()
	}
}
