// Package middleware 提供 HTTP 中间件
package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dumeirei/fitness-crm-backend/internal/common/cache"
	"github.com/dumeirei/fitness-crm-backend/internal/common/response"
)

// WindowCounter 固定窗口计数器
type WindowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Counter WindowCounter
	Limit   int
	Window  time.Duration
	Logger  *zap.Logger
}

// RateLimit 按员工（未登录时按 IP）限流，计数器故障时放行
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	limit := strconv.Itoa(cfg.Limit)

	return func(c *gin.Context) {
		subject := "ip:" + c.ClientIP()
		if staffID := GetStaffID(c); staffID > 0 {
			subject = "staff:" + strconv.FormatInt(staffID, 10)
		}
		key := cache.BuildKey(cache.KeyPrefixRateLimit, subject)

		count, err := cfg.Counter.IncrWindow(c.Request.Context(), key, cfg.Window)
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn("rate limit counter unavailable", zap.Error(err))
			}
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", limit)
		remaining := int64(cfg.Limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(cfg.Limit) {
			c.Header("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
			response.TooManyRequests(c, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}
