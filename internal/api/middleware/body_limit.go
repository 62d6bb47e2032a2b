package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxfrank76/5s-system/pkg/response"
)

// BodyLimit 请求体大小上限（照片上传也受此限制，需大于 upload.max_size_mb）
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			tooLarge(c, maxBytes)
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()

		if c.Writer.Written() {
			return
		}
		var mbe *http.MaxBytesError
		for _, err := range c.Errors {
			if errors.As(err.Err, &mbe) {
				tooLarge(c, maxBytes)
				return
			}
		}
	}
}

func tooLarge(c *gin.Context, maxBytes int64) {
	response.Error(c, http.StatusRequestEntityTooLarge, 10005,
		fmt.Sprintf("请求体过大（上限 %.1f MB）", float64(maxBytes)/(1<<20)))
}
