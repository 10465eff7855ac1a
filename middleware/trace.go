package middleware

import (
	"signature-gateway/pkg/logger"
	"signature-gateway/pkg/uniqid"

	"github.com/gin-gonic/gin"
	"github.com/zeromicro/go-zero/core/logx"
)

const maxTraceIDLength = 64

// Trace 为每个请求绑定 traceId，后续通过 logger.WithContext 输出的日志都会带上
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(HeaderTraceID)
		if traceID == "" || len(traceID) > maxTraceIDLength {
			traceID = uniqid.UniqueID()
		}

		c.Set(ContextKeyTraceID, traceID)
		c.Header(HeaderTraceID, traceID)

		ctx := logger.ContextWithFields(c.Request.Context(),
			logx.Field("traceId", traceID),
			logx.Field("uri", c.Request.URL.Path),
		)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
