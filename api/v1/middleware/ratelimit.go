package middleware

import (
	"context"
	"fmt"
	"time"

	"codeclover/internal/httpx"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// RateLimit applies a fixed-window per-client limit backed by Redis to a
// public endpoint. With a nil client (Redis not configured) it is a
// no-op, and Redis errors fail open.
func RateLimit(client *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	if client == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s:%s", c.FullPath(), c.ClientIP())
		ctx := context.Background()

		n, err := client.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}
		if n == 1 {
			client.Expire(ctx, key, window)
		}
		if n > int64(limit) {
			httpx.FailErr(c, httpx.ErrRateLimited(""))
			c.Abort()
			return
		}
		c.Next()
	}
}
