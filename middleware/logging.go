package middleware

import (
	"context"
	"time"

	"signature-gateway/model"
	"signature-gateway/pkg/logger"
	"signature-gateway/service"

	"github.com/gin-gonic/gin"
)

// LoggingMiddleware 签名校验日志记录中间件
type LoggingMiddleware struct {
	clientService service.ClientServiceInterface
}

// NewLoggingMiddleware 创建校验日志记录中间件
func NewLoggingMiddleware(clientService service.ClientServiceInterface) *LoggingMiddleware {
	return &LoggingMiddleware{
		clientService: clientService,
	}
}

// LogVerification 记录每次签名校验的结果，需放在 Verify 之前以便记录被拒绝的请求
func (l *LoggingMiddleware) LogVerification() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		// 请求体无法解析或客户查询失败时没有校验结果
		res, ok := ResultFromContext(c)
		if !ok {
			return
		}

		entry := model.NewVerificationLog(
			c.GetString(ContextKeyClientID),
			c.GetString(ContextKeyTraceID),
			c.Request.Method,
			c.Request.URL.Path,
			res.OK,
			res.Errors(),
			c.Writer.Status(),
			time.Since(startTime).Milliseconds(),
		)
		log := logger.WithContext(c.Request.Context())

		// 异步记录日志，避免影响响应性能
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			if err := l.clientService.LogVerification(ctx, entry); err != nil {
				log.Errorf("Failed to create verification log: %v", err)
				return
			}
			log.Infof("Verification logged: %s %s by client %s, verified: %t, status: %d, duration: %dms",
				entry.Method, entry.Path, entry.ClientID, entry.Verified, entry.Status, entry.Duration)
		}()
	}
}
