package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/maxfrank76/5s-system/pkg/metrics"
	"github.com/maxfrank76/5s-system/pkg/redis"
	"github.com/maxfrank76/5s-system/pkg/response"
)

// RateLimit 按客户端 IP + 路由的滑动窗口限流，目前只挂在登录接口上
// rdb 为 nil 或 Redis 出错时放行
func RateLimit(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || limit <= 0 {
			c.Next()
			return
		}

		route := c.FullPath()
		allowed, err := rdb.CheckRateLimit(c.Request.Context(), route+"|"+c.ClientIP(), limit, window)
		if err != nil {
			c.Next()
			return
		}

		if !allowed {
			metrics.RateLimited.WithLabelValues(route).Inc()
			c.Header("Retry-After", retryAfter(window))
			response.Error(c, http.StatusTooManyRequests, 10004, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}

func retryAfter(window time.Duration) string {
	secs := int64(window / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
